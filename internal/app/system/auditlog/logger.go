// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/stratareel/internal/app/store/audit"
	"github.com/dalemusser/stratareel/internal/app/system/integrity"
	"github.com/dalemusser/stratareel/internal/app/system/network"
	"github.com/dalemusser/stratareel/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
//
// Each field takes "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap
// only) or "off".
type Config struct {
	// Auth covers register, login and logout.
	Auth string
	// Admin covers catalog changes, seeding and integrity sweeps.
	Admin string
}

// Logger records audit events to MongoDB and/or zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil when only "log" or "off"
// destinations are configured.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func userAgent(r *http.Request) string {
	if r == nil {
		return ""
	}
	return r.UserAgent()
}

// oid converts a hex id, returning nil for anything that is not one.
func oid(hex string) *primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil
	}
	return &id
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event according to the category's destination. A nil
// Logger is a no-op so handlers can be built without one in tests.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = "all"
	}

	if setting == "off" {
		return
	}
	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// Registered logs a new self-service account.
func (l *Logger) Registered(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventRegistered,
		UserID:    &userID,
		IP:        network.ClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        network.ClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// LoginFailedUserNotFound logs a login for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserNotFound,
		IP:            network.ClientIP(r),
		UserAgent:     userAgent(r),
		FailureReason: "user not found",
		Details:       map[string]string{"attempted_email": attemptedEmail},
	})
}

// LoginFailedWrongPassword logs a login with a bad password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedWrongPassword,
		UserID:        &userID,
		IP:            network.ClientIP(r),
		UserAgent:     userAgent(r),
		FailureReason: "wrong password",
		Details:       map[string]string{"email": email},
	})
}

// LoginLockedOut logs a login refused by the rate limiter.
func (l *Logger) LoginLockedOut(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginLockedOut,
		IP:            network.ClientIP(r),
		UserAgent:     userAgent(r),
		FailureReason: "too many attempts",
		Details:       map[string]string{"email": email},
	})
}

// Logout logs a user logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    oid(userID),
		IP:        network.ClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
	})
}

// --- Admin Events ---

// MovieCreated logs a catalog addition.
func (l *Logger) MovieCreated(ctx context.Context, r *http.Request, actorID, movieID, title string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventMovieCreated,
		ActorID:   oid(actorID),
		IP:        network.ClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details:   map[string]string{"movie_id": movieID, "title": title},
	})
}

// MovieDeleted logs a catalog removal. cascade is the error returned by the
// reference cleanup, nil when it finished; the event is recorded as failed
// otherwise.
func (l *Logger) MovieDeleted(ctx context.Context, r *http.Request, actorID, movieID string, cascade *models.CascadeError) {
	ev := audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventMovieDeleted,
		ActorID:   oid(actorID),
		IP:        network.ClientIP(r),
		UserAgent: userAgent(r),
		Success:   cascade == nil,
		Details:   map[string]string{"movie_id": movieID},
	}
	switch {
	case cascade == nil:
	case cascade.ScanErr != nil:
		ev.FailureReason = "cascade scan failed"
	default:
		ev.FailureReason = "cascade incomplete"
		ev.Details["failed_collections"] = strings.Join(cascade.CollectionIDs(), ",")
	}
	l.Log(ctx, ev)
}

// IntegritySwept logs a sweep run. r is nil for scheduled runs.
func (l *Logger) IntegritySwept(ctx context.Context, r *http.Request, actorID, trigger string, rep integrity.SweepReport) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventIntegritySweep,
		ActorID:   oid(actorID),
		IP:        network.ClientIP(r),
		UserAgent: userAgent(r),
		Success:   len(rep.Failed) == 0,
		Details: map[string]string{
			"trigger":              trigger,
			"collections_scanned":  strconv.Itoa(rep.CollectionsScanned),
			"collections_repaired": strconv.Itoa(rep.CollectionsRepaired),
			"references_removed":   strconv.Itoa(rep.ReferencesRemoved),
		},
	})
}

// Seeded logs startup seeding of the admin account or the sample catalog.
func (l *Logger) Seeded(ctx context.Context, eventType string, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		IP:        "startup",
		Success:   true,
		Details:   details,
	})
}
