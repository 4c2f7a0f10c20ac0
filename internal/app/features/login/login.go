// internal/app/features/login/login.go
package login

// Terminology: User Identifiers
//   - UserID / userID / user_id: the MongoDB ObjectID (_id) of a user record
//   - Email: the sign-in identifier, stored lowercase and unique

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	errorsfeature "github.com/dalemusser/stratareel/internal/app/features/errors"
	"github.com/dalemusser/stratareel/internal/app/store/ratelimit"
	userstore "github.com/dalemusser/stratareel/internal/app/store/users"
	"github.com/dalemusser/stratareel/internal/app/system/auditlog"
	"github.com/dalemusser/stratareel/internal/app/system/auth"
	"github.com/dalemusser/stratareel/internal/app/system/authutil"
	"github.com/dalemusser/stratareel/internal/app/system/jsonutil"
	"github.com/dalemusser/stratareel/internal/app/system/timeouts"
	"github.com/dalemusser/stratareel/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const invalidCredentials = "Invalid email or password."

// Handler serves registration, sign-in and the current-user endpoints.
type Handler struct {
	userStore      *userstore.Store
	rateLimitStore *ratelimit.Store // nil if rate limiting disabled
	sessionMgr     *auth.SessionManager
	auditLogger    *auditlog.Logger
	errLog         *errorsfeature.ErrorLogger
	logger         *zap.Logger
}

// NewHandler creates a login Handler. rateLimitStore can be nil to disable
// rate limiting.
func NewHandler(
	userStore *userstore.Store,
	sessionMgr *auth.SessionManager,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	rateLimitStore *ratelimit.Store,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		userStore:      userStore,
		rateLimitStore: rateLimitStore,
		sessionMgr:     sessionMgr,
		auditLogger:    auditLogger,
		errLog:         errLog,
		logger:         logger,
	}
}

// Routes returns the /api/auth router. Logout is mounted separately.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Get("/csrf", h.serveCSRF)
	r.With(h.sessionMgr.RequireSignedIn).Get("/me", h.serveMe)
	return r
}

// LoginResponse is returned by a successful sign-in.
type LoginResponse struct {
	User    *auth.SessionUser `json:"user"`
	Landing string            `json:"landing"`
}

func sessionUser(u *models.User) *auth.SessionUser {
	return &auth.SessionUser{
		ID:       u.ID.Hex(),
		Email:    u.Email,
		Username: u.Username,
		Role:     u.Role,
	}
}

// handleRegister creates a user account with role "user". The client signs
// in afterwards.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in authutil.Registration
	if err := jsonutil.Decode(w, r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid request body.")
		return
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		h.errLog.Respond(w, r, "invalid registration", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Store(), h.logger, "register")
	defer cancel()

	exists, err := h.userStore.ExistsByEmail(ctx, in.Email)
	if err != nil {
		h.errLog.Respond(w, r, "database error checking email", err)
		return
	}
	if exists {
		h.duplicateEmail(w)
		return
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		h.errLog.Respond(w, r, "failed to hash password", err)
		return
	}

	user, err := h.userStore.Create(ctx, models.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		Role:         models.RoleUser,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		// lost a race with another registration for the same address
		h.duplicateEmail(w)
		return
	}
	if err != nil {
		h.errLog.Respond(w, r, "failed to create user", err)
		return
	}

	h.auditLogger.Registered(ctx, r, user.ID, user.Email)
	jsonutil.Created(w, map[string]any{
		"user":    sessionUser(&user),
		"message": "Registration successful. Please sign in.",
	})
}

func (h *Handler) duplicateEmail(w http.ResponseWriter) {
	jsonutil.ValidationError(w, "An account with this email already exists.", map[string]string{
		"email": "An account with this email already exists.",
	})
}

// handleLogin checks the credentials, creates the session and returns the
// user with the landing page for their role.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in authutil.SignIn
	if err := jsonutil.Decode(w, r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid request body.")
		return
	}
	if err := in.Validate(); err != nil {
		h.errLog.Respond(w, r, "invalid sign-in", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Store(), h.logger, "login")
	defer cancel()

	// Check rate limit before processing
	if h.rateLimitStore != nil {
		d := h.rateLimitStore.CheckAllowed(ctx, in.Email)
		if !d.Allowed {
			h.auditLogger.LoginLockedOut(ctx, r, in.Email)
			jsonutil.TooManyRequests(w, lockoutMessage(d.LockedUntil))
			return
		}
	}

	user, err := h.userStore.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Record failure for rate limiting (even though user doesn't exist)
			h.recordFailure(ctx, w, r, in.Email, func() {
				h.auditLogger.LoginFailedUserNotFound(ctx, r, in.Email)
			})
			return
		}
		h.errLog.Respond(w, r, "database error during login lookup", err)
		return
	}

	if !authutil.CheckPassword(in.Password, user.PasswordHash) {
		h.recordFailure(ctx, w, r, in.Email, func() {
			h.auditLogger.LoginFailedWrongPassword(ctx, r, user.ID, user.Email)
		})
		return
	}

	// Clear rate limit on successful login
	if h.rateLimitStore != nil {
		if err := h.rateLimitStore.ClearOnSuccess(ctx, in.Email); err != nil {
			h.logger.Warn("failed to clear login attempts", zap.Error(err))
		}
	}

	su := sessionUser(user)
	if err := h.sessionMgr.CreateSession(w, r, su); err != nil {
		h.errLog.Respond(w, r, "failed to create session", err)
		return
	}

	h.auditLogger.LoginSuccess(ctx, r, user.ID, user.Email)
	jsonutil.OK(w, LoginResponse{User: su, Landing: models.LandingPath(user.Role)})
}

// recordFailure counts the failed attempt and writes the response: 429
// when this attempt locked the email, 401 otherwise. audit runs unless the
// lockout event replaces it.
func (h *Handler) recordFailure(ctx context.Context, w http.ResponseWriter, r *http.Request, email string, audit func()) {
	if h.rateLimitStore != nil {
		lockedUntil, err := h.rateLimitStore.RecordFailure(ctx, email)
		if err != nil {
			h.logger.Warn("failed to record login failure", zap.Error(err))
		}
		if lockedUntil != nil {
			h.auditLogger.LoginLockedOut(ctx, r, email)
			jsonutil.TooManyRequests(w, lockoutMessage(lockedUntil))
			return
		}
	}
	audit()
	jsonutil.Unauthorized(w, invalidCredentials)
}

func lockoutMessage(lockedUntil *time.Time) string {
	if lockedUntil == nil {
		return "Too many failed login attempts. Please try again later."
	}
	remaining := time.Until(*lockedUntil)
	if remaining > time.Minute {
		return fmt.Sprintf("Too many failed login attempts. Please try again in %d minute(s).", int(remaining.Minutes())+1)
	}
	return fmt.Sprintf("Too many failed login attempts. Please try again in %d second(s).", int(remaining.Seconds())+1)
}

// serveMe returns the signed-in user.
func (h *Handler) serveMe(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	jsonutil.OK(w, LoginResponse{User: u, Landing: models.LandingPath(u.Role)})
}

// serveCSRF hands the client the token to send in X-CSRF-Token.
func (h *Handler) serveCSRF(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-CSRF-Token", csrf.Token(r))
	jsonutil.OK(w, map[string]string{"csrfToken": csrf.Token(r)})
}
