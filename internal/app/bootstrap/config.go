// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/stratareel/internal/app/system/inputval"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "STRATAREEL"

// Docstore backends.
const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: STRATAREEL_MONGO_URI, STRATAREEL_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "stratareel", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "docstore_backend", Default: BackendMongo, Desc: "Movie/collection store: 'mongo' or 'memory'"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "stratareel-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie max age (e.g., 24h, 720h, 30m)"},

	{Name: "csrf_key", Default: "dev-only-csrf-key-please-change-0123456789", Desc: "CSRF token signing key (32+ chars in production)"},
	{Name: "api_key", Default: "", Desc: "Bearer key for /api/maintenance (leave empty to disable)"},
	{Name: "maintenance_cors_origins", Default: "", Desc: "Comma-separated origins for /api/maintenance CORS (blank allows any)"},

	// Rate limiting configuration
	{Name: "rate_limit_enabled", Default: true, Desc: "Enable rate limiting for login attempts"},
	{Name: "rate_limit_login_attempts", Default: 5, Desc: "Max failed login attempts before lockout"},
	{Name: "rate_limit_login_window", Default: "15m", Desc: "Time window for counting failed attempts"},
	{Name: "rate_limit_login_lockout", Default: "15m", Desc: "Lockout duration after exceeding limit"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Seeding configuration
	{Name: "seed_admin_email", Default: "", Desc: "Email of admin user to create on startup"},
	{Name: "seed_admin_username", Default: "admin", Desc: "Username of the seeded admin"},
	{Name: "seed_admin_password", Default: "", Desc: "Password for a newly created seeded admin"},
	{Name: "seed_sample_catalog", Default: false, Desc: "Seed sample movies into an empty catalog"},

	// Catalog configuration
	{Name: "integrity_sweep_interval", Default: "1h", Desc: "Interval of the dangling-reference sweep (0 disables)"},
	{Name: "store_timeout", Default: "5s", Desc: "Timeout for single-document store operations"},
	{Name: "scan_timeout", Default: "15s", Desc: "Timeout for listings, name checks and cascades"},
	{Name: "featured_limit", Default: 6, Desc: "Default number of featured movies"},
	{Name: "default_cover_url", Default: "", Desc: "Placeholder cover for empty collections (blank keeps the built-in one)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, STRATAREEL_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		DocstoreBackend:  appValues.String("docstore_backend"),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 24*time.Hour),

		CSRFKey: appValues.String("csrf_key"),
		APIKey:  appValues.String("api_key"),

		MaintenanceCORSOrigins: appValues.String("maintenance_cors_origins"),

		// Rate limiting
		RateLimitEnabled:       appValues.Bool("rate_limit_enabled"),
		RateLimitLoginAttempts: appValues.Int("rate_limit_login_attempts"),
		RateLimitLoginWindow:   appValues.Duration("rate_limit_login_window", 15*time.Minute),
		RateLimitLoginLockout:  appValues.Duration("rate_limit_login_lockout", 15*time.Minute),

		// Audit logging
		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		// Seeding
		SeedAdminEmail:    appValues.String("seed_admin_email"),
		SeedAdminUsername: appValues.String("seed_admin_username"),
		SeedAdminPassword: appValues.String("seed_admin_password"),
		SeedSampleCatalog: appValues.Bool("seed_sample_catalog"),

		// Catalog
		IntegritySweepInterval: appValues.Duration("integrity_sweep_interval", time.Hour),
		StoreTimeout:           appValues.Duration("store_timeout", 5*time.Second),
		ScanTimeout:            appValues.Duration("scan_timeout", 15*time.Second),
		FeaturedLimit:          appValues.Int("featured_limit"),
		DefaultCoverURL:        appValues.String("default_cover_url"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := validateAppConfig(appCfg); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}
	return nil
}

func validateAppConfig(appCfg AppConfig) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	switch appCfg.DocstoreBackend {
	case BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("docstore_backend must be %q or %q, got %q", BackendMongo, BackendMemory, appCfg.DocstoreBackend)
	}

	for name, d := range map[string]time.Duration{
		"session_max_age":          appCfg.SessionMaxAge,
		"rate_limit_login_window":  appCfg.RateLimitLoginWindow,
		"rate_limit_login_lockout": appCfg.RateLimitLoginLockout,
		"integrity_sweep_interval": appCfg.IntegritySweepInterval,
		"store_timeout":            appCfg.StoreTimeout,
		"scan_timeout":             appCfg.ScanTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}

	if appCfg.RateLimitEnabled && appCfg.RateLimitLoginAttempts <= 0 {
		return fmt.Errorf("rate_limit_login_attempts must be positive when rate limiting is enabled")
	}
	if appCfg.FeaturedLimit < 0 {
		return fmt.Errorf("featured_limit must not be negative")
	}

	for name, v := range map[string]string{
		"audit_log_auth":  appCfg.AuditLogAuth,
		"audit_log_admin": appCfg.AuditLogAdmin,
	} {
		switch v {
		case "all", "db", "log", "off":
		default:
			return fmt.Errorf("%s must be one of all, db, log, off; got %q", name, v)
		}
	}

	if appCfg.DefaultCoverURL != "" {
		if res := inputval.Validate(coverConfig{DefaultCoverURL: appCfg.DefaultCoverURL}); res.HasErrors() {
			return fmt.Errorf("invalid config: %s", res.First())
		}
	}
	return nil
}

// coverConfig runs default_cover_url through the httpurl rule.
type coverConfig struct {
	DefaultCoverURL string `validate:"httpurl" label:"default_cover_url"`
}
