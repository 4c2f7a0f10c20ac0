// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP ports,
// TLS, logging, CORS and request body limits. Everything specific to the
// catalog lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// DocstoreBackend selects where movies and collections live: "mongo" or
	// "memory". Users, audit events and rate limits always use MongoDB.
	DocstoreBackend string

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: stratareel-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Maximum session cookie lifetime (default: 24h)

	// CSRF protection configuration
	CSRFKey string // Secret key for CSRF token signing (32 bytes, must be strong in production)

	// API key for /api/maintenance (external schedulers). Empty rejects
	// every maintenance API request.
	APIKey string

	// Comma-separated origins allowed to call /api/maintenance from a
	// browser. Empty allows any origin (the API key is the credential).
	MaintenanceCORSOrigins string

	// Rate limiting configuration
	RateLimitEnabled       bool          // Enable rate limiting for login attempts (default: true)
	RateLimitLoginAttempts int           // Max failed login attempts before lockout (default: 5)
	RateLimitLoginWindow   time.Duration // Time window for counting failed attempts (default: 15m)
	RateLimitLoginLockout  time.Duration // Lockout duration after exceeding limit (default: 15m)

	// Audit logging configuration
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	AuditLogAuth  string // Authentication events (register, login, logout)
	AuditLogAdmin string // Catalog changes, sweeps and seeding

	// Seeding configuration
	SeedAdminEmail    string // Email of the admin user to create on startup (if set)
	SeedAdminUsername string // Username of the seeded admin
	SeedAdminPassword string // Password of a newly created seeded admin
	SeedSampleCatalog bool   // Add sample movies to an empty catalog

	// Catalog behavior
	IntegritySweepInterval time.Duration // Background sweep interval (0 disables)
	StoreTimeout           time.Duration // Single-document operations
	ScanTimeout            time.Duration // Listings, name checks, cascades
	FeaturedLimit          int           // Default size of /api/movies/featured
	DefaultCoverURL        string        // Cover for collections without a resolvable first movie
}
