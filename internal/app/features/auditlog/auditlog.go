// internal/app/features/auditlog/auditlog.go
package auditlog

// Terminology: User Identifiers
//   - UserID / userID / user_id: the MongoDB ObjectID (_id) of a user record
//   - ActorID / actor_id: the admin who performed a catalog action

import (
	"net/http"
	"slices"
	"strconv"
	"time"

	errorsfeature "github.com/dalemusser/stratareel/internal/app/features/errors"
	"github.com/dalemusser/stratareel/internal/app/store/audit"
	"github.com/dalemusser/stratareel/internal/app/system/auth"
	"github.com/dalemusser/stratareel/internal/app/system/jsonutil"
	"github.com/dalemusser/stratareel/internal/app/system/normalize"
	"github.com/dalemusser/stratareel/internal/app/system/timeouts"
	"github.com/dalemusser/stratareel/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Handler provides the audit log endpoint.
type Handler struct {
	auditStore *audit.Store
	errLog     *errorsfeature.ErrorLogger
	logger     *zap.Logger
}

// NewHandler creates a new audit log Handler.
func NewHandler(auditStore *audit.Store, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		auditStore: auditStore,
		errLog:     errLog,
		logger:     logger,
	}
}

// Routes returns a chi.Router with audit log routes mounted.
func Routes(h *Handler, sessionMgr *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireRole(models.RoleAdmin))

	r.Get("/", h.list)

	return r
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventRegistered,
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginLockedOut,
		audit.EventLogout,
	}

	adminEvents := []string{
		audit.EventMovieCreated,
		audit.EventMovieDeleted,
		audit.EventIntegritySweep,
		audit.EventAdminSeeded,
		audit.EventCatalogSeeded,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(adminEvents))
		all = append(all, authEvents...)
		all = append(all, adminEvents...)
		return all
	default:
		return nil
	}
}

// parseFilter reads the query string. The returned message is non-empty
// when a parameter is malformed.
func parseFilter(r *http.Request) (audit.QueryFilter, string) {
	q := r.URL.Query()
	filter := audit.QueryFilter{
		Category:  normalize.QueryParam(q.Get("category")),
		EventType: normalize.QueryParam(q.Get("event_type")),
		Limit:     defaultLimit,
	}

	if filter.Category != "" && eventTypesForCategory(filter.Category) == nil {
		return filter, "Unknown category."
	}
	if filter.EventType != "" && !slices.Contains(eventTypesForCategory(filter.Category), filter.EventType) {
		return filter, "Unknown event type."
	}

	if s := normalize.QueryParam(q.Get("user_id")); s != "" {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return filter, "Invalid user id."
		}
		filter.UserID = &id
	}

	if s := normalize.QueryParam(q.Get("since")); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			t, err = time.Parse("2006-01-02", s)
		}
		if err != nil {
			return filter, "since must be a date (YYYY-MM-DD) or RFC 3339 time."
		}
		filter.Since = &t
	}

	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return filter, "limit must be a positive whole number."
		}
		filter.Limit = int64(min(n, maxLimit))
	}
	return filter, ""
}

// list handles GET /api/admin/audit - recent audit events, newest first.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, msg := parseFilter(r)
	if msg != "" {
		jsonutil.BadRequest(w, msg)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Scan(), h.logger, "audit query")
	defer cancel()

	events, err := h.auditStore.Query(ctx, filter)
	if err != nil {
		h.errLog.Respond(w, r, "failed to query audit log", err)
		return
	}
	jsonutil.OK(w, map[string]any{"events": events})
}
