// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strings"
	"time"

	auditlogfeature "github.com/dalemusser/stratareel/internal/app/features/auditlog"
	collectionsfeature "github.com/dalemusser/stratareel/internal/app/features/collections"
	errorsfeature "github.com/dalemusser/stratareel/internal/app/features/errors"
	healthfeature "github.com/dalemusser/stratareel/internal/app/features/health"
	jobsfeature "github.com/dalemusser/stratareel/internal/app/features/jobs"
	loginfeature "github.com/dalemusser/stratareel/internal/app/features/login"
	logoutfeature "github.com/dalemusser/stratareel/internal/app/features/logout"
	moviesfeature "github.com/dalemusser/stratareel/internal/app/features/movies"
	statusfeature "github.com/dalemusser/stratareel/internal/app/features/status"
	"github.com/dalemusser/stratareel/internal/app/store/audit"
	collectionstore "github.com/dalemusser/stratareel/internal/app/store/collections"
	moviestore "github.com/dalemusser/stratareel/internal/app/store/movies"
	"github.com/dalemusser/stratareel/internal/app/store/ratelimit"
	userstore "github.com/dalemusser/stratareel/internal/app/store/users"
	"github.com/dalemusser/stratareel/internal/app/system/apicors"
	"github.com/dalemusser/stratareel/internal/app/system/auth"
	"github.com/dalemusser/stratareel/internal/app/system/jsonutil"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// csrfExemptPrefixes are served without CSRF checks. They authenticate with
// the API key, not the session cookie.
var csrfExemptPrefixes = []string{
	"/api/maintenance/",
}

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// # Mixed Authentication Routes
//
//   - Session routes (/api/auth, /api/movies, /api/collections, /api/admin):
//     session cookie + CSRF header + WAFFLE CORS
//   - Maintenance routes (/api/maintenance): API key + no CSRF + apicors
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// LoadSessionUser fetches fresh user data on each request so role
	// changes take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase, logger))

	errLog := errorsfeature.NewErrorLogger(logger)

	movies := moviestore.New(deps.Docs, deps.Coord, logger)
	cols := collectionstore.New(deps.Docs, deps.Coord, logger)

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(30 * time.Second))

	// CORS middleware: must be early in the chain to handle preflight requests.
	r.Use(middleware.CORSFromConfig(coreCfg))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// Session middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	r.Use(csrfMiddleware(appCfg, secure, logger))

	// ─────────────────────────────────────────────────────────────────────────────
	// Routes
	// ─────────────────────────────────────────────────────────────────────────────

	// Health check endpoints for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(map[string]healthfeature.Pinger{
		"mongodb": healthfeature.MongoPinger(deps.MongoClient),
	}, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// Authentication

	// Rate limiting for login attempts (nil if disabled)
	var rateLimitStore *ratelimit.Store
	if appCfg.RateLimitEnabled {
		rateLimitStore = ratelimit.New(
			deps.MongoDatabase,
			appCfg.RateLimitLoginAttempts,
			appCfg.RateLimitLoginWindow,
			appCfg.RateLimitLoginLockout,
		)
	}

	loginHandler := loginfeature.NewHandler(
		userstore.New(deps.MongoDatabase),
		sessionMgr,
		errLog,
		deps.Audit,
		rateLimitStore,
		logger,
	)
	logoutHandler := logoutfeature.NewHandler(sessionMgr, deps.Audit, logger)
	r.Route("/api/auth", func(sr chi.Router) {
		sr.Mount("/logout", logoutfeature.Routes(logoutHandler))
		sr.Mount("/", loginfeature.Routes(loginHandler))
	})

	// Catalog and collections
	moviesHandler := moviesfeature.NewHandler(movies, cols, deps.Audit, errLog, appCfg.FeaturedLimit, logger)
	r.Mount("/api/movies", moviesfeature.Routes(moviesHandler, sessionMgr))

	collectionsHandler := collectionsfeature.NewHandler(cols, errLog, logger)
	r.Mount("/api/collections", collectionsfeature.Routes(collectionsHandler, sessionMgr))

	// Admin (role admin)
	jobsHandler := jobsfeature.NewHandler(deps.Coord, taskRunner, deps.Audit, errLog, logger)

	auditLogHandler := auditlogfeature.NewHandler(audit.New(deps.MongoDatabase), errLog, logger)

	statusHandler := statusfeature.NewHandler(deps.MongoClient, taskRunner, coreCfg, statusAppConfig(appCfg), logger)

	r.Route("/api/admin", func(sr chi.Router) {
		sr.Mount("/audit", auditlogfeature.Routes(auditLogHandler, sessionMgr))
		sr.Mount("/status", statusfeature.Routes(statusHandler, sessionMgr))
		sr.Mount("/", jobsfeature.Routes(jobsHandler, sessionMgr))
	})

	// Maintenance API for external schedulers (API key, permissive CORS)
	r.Route("/api/maintenance", func(sr chi.Router) {
		sr.Use(maintenanceCORS(appCfg.MaintenanceCORSOrigins))
		sr.Mount("/", jobsfeature.APIRoutes(jobsHandler, appCfg.APIKey, logger))
	})

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	return r, nil
}

// csrfMiddleware builds the gorilla/csrf protection with path exemptions.
// JSON clients read the token from GET /api/auth/csrf and echo it in the
// X-CSRF-Token header.
func csrfMiddleware(appCfg AppConfig, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	csrfOpts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("stratareel_csrf"),
		csrf.RequestHeader("X-CSRF-Token"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			jsonutil.Forbidden(w, "CSRF token invalid or missing.")
		})),
	}
	// In dev mode, trust localhost origins for CSRF validation.
	if !secure {
		csrfOpts = append(csrfOpts, csrf.TrustedOrigins([]string{
			"localhost:8080",
			"localhost:3000",
			"localhost:5173",
			"127.0.0.1:8080",
			"127.0.0.1:3000",
		}))
	}
	if appCfg.SessionDomain != "" {
		csrfOpts = append(csrfOpts, csrf.Domain(appCfg.SessionDomain))
	}
	protect := csrf.Protect([]byte(appCfg.CSRFKey), csrfOpts...)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if csrfExempt(req.URL.Path) {
				next.ServeHTTP(w, req)
				return
			}
			protected.ServeHTTP(w, req)
		})
	}
}

func csrfExempt(path string) bool {
	for _, p := range csrfExemptPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// maintenanceCORS picks the API CORS policy from a comma-separated origin
// list.
func maintenanceCORS(origins string) func(http.Handler) http.Handler {
	var allowed []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 {
		return apicors.Middleware()
	}
	return apicors.MiddlewareWithOrigins(allowed...)
}

func statusAppConfig(appCfg AppConfig) statusfeature.AppConfig {
	return statusfeature.AppConfig{
		MongoURI:               appCfg.MongoURI,
		MongoDatabase:          appCfg.MongoDatabase,
		MongoMaxPoolSize:       appCfg.MongoMaxPoolSize,
		MongoMinPoolSize:       appCfg.MongoMinPoolSize,
		DocstoreBackend:        appCfg.DocstoreBackend,
		SessionKey:             appCfg.SessionKey,
		SessionName:            appCfg.SessionName,
		SessionDomain:          appCfg.SessionDomain,
		SessionMaxAge:          appCfg.SessionMaxAge,
		CSRFKey:                appCfg.CSRFKey,
		RateLimitEnabled:       appCfg.RateLimitEnabled,
		RateLimitLoginAttempts: appCfg.RateLimitLoginAttempts,
		RateLimitLoginWindow:   appCfg.RateLimitLoginWindow,
		RateLimitLoginLockout:  appCfg.RateLimitLoginLockout,
		APIKey:                 appCfg.APIKey,
		AuditLogAuth:           appCfg.AuditLogAuth,
		AuditLogAdmin:          appCfg.AuditLogAdmin,
		SeedAdminEmail:         appCfg.SeedAdminEmail,
		SeedAdminUsername:      appCfg.SeedAdminUsername,
		SeedSampleCatalog:      appCfg.SeedSampleCatalog,
		IntegritySweepInterval: appCfg.IntegritySweepInterval,
		FeaturedLimit:          appCfg.FeaturedLimit,
		DefaultCoverURL:        appCfg.DefaultCoverURL,
	}
}
