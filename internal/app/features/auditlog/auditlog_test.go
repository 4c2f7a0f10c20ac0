package auditlog

import (
	"context"
	"net/http"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/stratareel/internal/app/features/errors"
	"github.com/dalemusser/stratareel/internal/app/store/audit"
	"github.com/dalemusser/stratareel/internal/app/system/auth"
	"github.com/dalemusser/stratareel/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestParseFilter(t *testing.T) {
	uid := primitive.NewObjectID()

	tests := []struct {
		name    string
		query   string
		wantMsg string
		check   func(t *testing.T, f audit.QueryFilter)
	}{
		{
			name:  "defaults",
			query: "",
			check: func(t *testing.T, f audit.QueryFilter) {
				if f.Limit != defaultLimit {
					t.Errorf("Limit = %d, want %d", f.Limit, defaultLimit)
				}
			},
		},
		{
			name:  "category and event",
			query: "?category=admin&event_type=movie_deleted",
			check: func(t *testing.T, f audit.QueryFilter) {
				if f.Category != "admin" || f.EventType != "movie_deleted" {
					t.Errorf("filter = %+v", f)
				}
			},
		},
		{
			name:  "limit capped",
			query: "?limit=100000",
			check: func(t *testing.T, f audit.QueryFilter) {
				if f.Limit != maxLimit {
					t.Errorf("Limit = %d, want %d", f.Limit, maxLimit)
				}
			},
		},
		{
			name:  "since date",
			query: "?since=2026-01-02",
			check: func(t *testing.T, f audit.QueryFilter) {
				if f.Since == nil || f.Since.Day() != 2 {
					t.Errorf("Since = %v", f.Since)
				}
			},
		},
		{
			name:  "user id",
			query: "?user_id=" + uid.Hex(),
			check: func(t *testing.T, f audit.QueryFilter) {
				if f.UserID == nil || *f.UserID != uid {
					t.Errorf("UserID = %v", f.UserID)
				}
			},
		},
		{name: "unknown category", query: "?category=billing", wantMsg: "Unknown category."},
		{name: "event outside category", query: "?category=auth&event_type=movie_created", wantMsg: "Unknown event type."},
		{name: "bad since", query: "?since=yesterday", wantMsg: "since must be a date (YYYY-MM-DD) or RFC 3339 time."},
		{name: "bad limit", query: "?limit=-1", wantMsg: "limit must be a positive whole number."},
		{name: "bad user id", query: "?user_id=xyz", wantMsg: "Invalid user id."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, msg := parseFilter(testutil.NewRequest(http.MethodGet, "/"+tt.query, nil))
			if msg != tt.wantMsg {
				t.Fatalf("msg = %q, want %q", msg, tt.wantMsg)
			}
			if tt.check != nil {
				tt.check(t, f)
			}
		})
	}
}

func TestList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	events := []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true, CreatedAt: old},
		{Category: audit.CategoryAdmin, EventType: audit.EventMovieCreated, Success: true},
		{Category: audit.CategoryAdmin, EventType: audit.EventMovieDeleted, Success: false},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}

	h := NewHandler(store, errorsfeature.NewErrorLogger(zap.NewNop()), zap.NewNop())
	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "", "", 0, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}
	r := Routes(h, sm)

	tests := []struct {
		name   string
		query  string
		user   *testutil.TestUser
		status int
		want   int
	}{
		{"anonymous", "", nil, http.StatusUnauthorized, 0},
		{"regular user", "", ptr(testutil.RegularUser()), http.StatusForbidden, 0},
		{"all events", "", ptr(testutil.AdminUser()), http.StatusOK, 3},
		{"admin category", "?category=admin", ptr(testutil.AdminUser()), http.StatusOK, 2},
		{"since yesterday", "?since=" + time.Now().Add(-24*time.Hour).UTC().Format(time.RFC3339), ptr(testutil.AdminUser()), http.StatusOK, 2},
		{"limited", "?limit=1", ptr(testutil.AdminUser()), http.StatusOK, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewRequest(http.MethodGet, "/"+tt.query, nil)
			if tt.user != nil {
				req = testutil.WithUser(req, *tt.user)
			}
			rec := testutil.NewRecorder()
			r.ServeHTTP(rec, req)
			rec.AssertStatus(t, tt.status)
			if tt.status != http.StatusOK {
				return
			}
			var body struct {
				Events []audit.Event `json:"events"`
			}
			rec.DecodeJSON(t, &body)
			if len(body.Events) != tt.want {
				t.Errorf("got %d events, want %d", len(body.Events), tt.want)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }
