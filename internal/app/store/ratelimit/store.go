// internal/app/store/ratelimit/store.go
package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratareel/internal/app/system/normalize"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Attempt is the failure counter for one email address.
type Attempt struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Email       string             `bson:"email"`
	Failures    int                `bson:"failures"`
	WindowStart time.Time          `bson:"window_start"`
	LockedUntil *time.Time         `bson:"locked_until"`
	LastAttempt time.Time          `bson:"last_attempt"` // TTL key
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

// Decision is the outcome of CheckAllowed.
type Decision struct {
	Allowed     bool
	Remaining   int // -1 while locked
	LockedUntil *time.Time
}

// Store tracks failed sign-ins in the rate_limits collection.
type Store struct {
	c           *mongo.Collection
	maxAttempts int
	window      time.Duration
	lockout     time.Duration
	now         func() time.Time
}

// New creates a Store that locks an email for lockout after maxAttempts
// failures inside window.
func New(db *mongo.Database, maxAttempts int, window, lockout time.Duration) *Store {
	return &Store{
		c:           db.Collection("rate_limits"),
		maxAttempts: maxAttempts,
		window:      window,
		lockout:     lockout,
		now:         time.Now,
	}
}

func (s *Store) find(ctx context.Context, email string) (*Attempt, error) {
	var a Attempt
	err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CheckAllowed reports whether a sign-in for email may proceed. Lookup
// errors fail open.
func (s *Store) CheckAllowed(ctx context.Context, email string) Decision {
	full := Decision{Allowed: true, Remaining: s.maxAttempts}

	a, err := s.find(ctx, normalize.Email(email))
	if err != nil || a == nil {
		return full
	}

	now := s.now()
	if a.LockedUntil != nil && now.Before(*a.LockedUntil) {
		return Decision{Allowed: false, Remaining: -1, LockedUntil: a.LockedUntil}
	}
	if now.After(a.WindowStart.Add(s.window)) {
		return full
	}

	left := s.maxAttempts - a.Failures
	if left <= 0 {
		// counter is full but the lock expired or was never written
		return Decision{Allowed: false, Remaining: 0}
	}
	return Decision{Allowed: true, Remaining: left}
}

// RecordFailure counts a failed sign-in. It returns the lock expiry when this
// failure locked the email, nil otherwise.
func (s *Store) RecordFailure(ctx context.Context, email string) (*time.Time, error) {
	email = normalize.Email(email)
	now := s.now()

	a, err := s.find(ctx, email)
	if err != nil {
		return nil, err
	}

	if a == nil || now.After(a.WindowStart.Add(s.window)) {
		a = &Attempt{Email: email, WindowStart: now, CreatedAt: now}
	}
	a.Failures++
	a.LastAttempt = now
	a.UpdatedAt = now
	a.LockedUntil = nil

	var lockedUntil *time.Time
	if a.Failures >= s.maxAttempts {
		until := now.Add(s.lockout)
		a.LockedUntil = &until
		lockedUntil = &until
	}

	_, err = s.c.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{
			"$set": bson.M{
				"failures":     a.Failures,
				"window_start": a.WindowStart,
				"locked_until": a.LockedUntil,
				"last_attempt": a.LastAttempt,
				"updated_at":   a.UpdatedAt,
			},
			"$setOnInsert": bson.M{"created_at": a.CreatedAt},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, err
	}
	return lockedUntil, nil
}

// ClearOnSuccess drops the counter after a successful sign-in.
func (s *Store) ClearOnSuccess(ctx context.Context, email string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"email": normalize.Email(email)})
	return err
}

// Get returns the counter for email, or nil when there is none.
func (s *Store) Get(ctx context.Context, email string) (*Attempt, error) {
	return s.find(ctx, normalize.Email(email))
}
