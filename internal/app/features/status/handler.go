// internal/app/features/status/handler.go
package status

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/dalemusser/stratareel/internal/app/system/jsonutil"
	"github.com/dalemusser/stratareel/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

var startTime = time.Now()

// JobLister reports the background jobs registered with the task runner.
type JobLister interface {
	Jobs() []string
}

// Handler holds dependencies for the status endpoint.
type Handler struct {
	Client  *mongo.Client
	Jobs    JobLister
	Log     *zap.Logger
	CoreCfg *config.CoreConfig
	AppCfg  AppConfig
}

// AppConfig mirrors bootstrap.AppConfig for status display.
type AppConfig struct {
	// MongoDB
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64
	DocstoreBackend  string

	// Session
	SessionKey    string
	SessionName   string
	SessionDomain string
	SessionMaxAge time.Duration
	CSRFKey       string

	// Rate Limiting
	RateLimitEnabled       bool
	RateLimitLoginAttempts int
	RateLimitLoginWindow   time.Duration
	RateLimitLoginLockout  time.Duration

	// API
	APIKey string

	// Audit
	AuditLogAuth  string
	AuditLogAdmin string

	// Seeding
	SeedAdminEmail    string
	SeedAdminUsername string
	SeedSampleCatalog bool

	// Catalog
	IntegritySweepInterval time.Duration
	FeaturedLimit          int
	DefaultCoverURL        string
}

// NewHandler creates a new status Handler. client and jobs may be nil.
func NewHandler(client *mongo.Client, jobs JobLister, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) *Handler {
	return &Handler{
		Client:  client,
		Jobs:    jobs,
		CoreCfg: coreCfg,
		AppCfg:  appCfg,
		Log:     logger,
	}
}

// ConfigItem represents a single configuration variable for display.
type ConfigItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ConfigGroup represents a logical group of configuration items.
type ConfigGroup struct {
	Name  string       `json:"name"`
	Items []ConfigItem `json:"items"`
}

// DBStatus is the result of pinging MongoDB.
type DBStatus struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
	PingMS    int64  `json:"pingMs"`
	Version   string `json:"version,omitempty"`
}

// Report is the body of GET /api/admin/status.
type Report struct {
	GoVersion       string            `json:"goVersion"`
	Uptime          string            `json:"uptime"`
	NumGoroutine    int               `json:"numGoroutine"`
	MemAlloc        string            `json:"memAlloc"`
	Database        DBStatus          `json:"database"`
	DocstoreBackend string            `json:"docstoreBackend"`
	Jobs            []string          `json:"jobs"`
	Timeouts        map[string]string `json:"timeouts"`
	ConfigGroups    []ConfigGroup     `json:"configGroups"`
}

// Serve handles GET /api/admin/status.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	rep := Report{
		GoVersion:       runtime.Version(),
		Uptime:          formatDuration(time.Since(startTime)),
		NumGoroutine:    runtime.NumGoroutine(),
		DocstoreBackend: h.AppCfg.DocstoreBackend,
		Jobs:            []string{},
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	rep.MemAlloc = formatBytes(m.Alloc)

	rep.Database = h.checkDB(r.Context())

	if h.Jobs != nil {
		rep.Jobs = append(rep.Jobs, h.Jobs.Jobs()...)
	}

	t := timeouts.Current()
	rep.Timeouts = map[string]string{
		"ping":  t.Ping.String(),
		"store": t.Store.String(),
		"scan":  t.Scan.String(),
		"batch": t.Batch.String(),
	}

	rep.ConfigGroups = h.buildConfigGroups()

	jsonutil.OK(w, rep)
}

func (h *Handler) checkDB(parent context.Context) DBStatus {
	if h.Client == nil {
		return DBStatus{Error: "not configured"}
	}

	ctx, cancel := context.WithTimeout(parent, timeouts.Ping())
	defer cancel()

	pingStart := time.Now()
	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Warn("status: database ping failed", zap.Error(err))
		return DBStatus{Error: err.Error()}
	}
	st := DBStatus{Connected: true, PingMS: time.Since(pingStart).Milliseconds()}

	var result bson.M
	if err := h.Client.Database("admin").RunCommand(ctx, bson.D{{Key: "buildInfo", Value: 1}}).Decode(&result); err == nil {
		if version, ok := result["version"].(string); ok {
			st.Version = version
		}
	}
	return st
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return formatPlural(days, "day") + " " + formatPlural(hours, "hour")
	}
	if hours > 0 {
		return formatPlural(hours, "hour") + " " + formatPlural(minutes, "min")
	}
	return formatPlural(minutes, "min")
}

func formatPlural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// formatBytes formats bytes in a human-readable way.
func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

// mask hides all but the ends of a secret.
func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// buildConfigGroups creates organized groups of config items for display.
func (h *Handler) buildConfigGroups() []ConfigGroup {
	groups := []ConfigGroup{}

	join := func(s []string) string {
		return strings.Join(s, ", ")
	}

	if h.CoreCfg != nil {
		groups = append(groups,
			ConfigGroup{
				Name: "Environment",
				Items: []ConfigItem{
					{Name: "env", Value: h.CoreCfg.Env},
					{Name: "log_level", Value: h.CoreCfg.LogLevel},
				},
			},
			ConfigGroup{
				Name: "HTTP Server",
				Items: []ConfigItem{
					{Name: "http_port", Value: fmt.Sprintf("%d", h.CoreCfg.HTTP.HTTPPort)},
					{Name: "https_port", Value: fmt.Sprintf("%d", h.CoreCfg.HTTP.HTTPSPort)},
					{Name: "use_https", Value: boolStr(h.CoreCfg.HTTP.UseHTTPS)},
					{Name: "read_timeout", Value: h.CoreCfg.HTTP.ReadTimeout.String()},
					{Name: "write_timeout", Value: h.CoreCfg.HTTP.WriteTimeout.String()},
					{Name: "shutdown_timeout", Value: h.CoreCfg.HTTP.ShutdownTimeout.String()},
					{Name: "max_request_body_bytes", Value: fmt.Sprintf("%d", h.CoreCfg.MaxRequestBodyBytes)},
				},
			},
			ConfigGroup{
				Name: "CORS",
				Items: []ConfigItem{
					{Name: "enable_cors", Value: boolStr(h.CoreCfg.CORS.EnableCORS)},
					{Name: "cors_allowed_origins", Value: join(h.CoreCfg.CORS.CORSAllowedOrigins)},
					{Name: "cors_allow_credentials", Value: boolStr(h.CoreCfg.CORS.CORSAllowCredentials)},
				},
			},
		)
	}

	dbItems := []ConfigItem{
		{Name: "mongo_uri", Value: mask(h.AppCfg.MongoURI)},
		{Name: "mongo_database", Value: h.AppCfg.MongoDatabase},
		{Name: "mongo_max_pool_size", Value: fmt.Sprintf("%d", h.AppCfg.MongoMaxPoolSize)},
		{Name: "mongo_min_pool_size", Value: fmt.Sprintf("%d", h.AppCfg.MongoMinPoolSize)},
		{Name: "docstore_backend", Value: h.AppCfg.DocstoreBackend},
	}
	if h.CoreCfg != nil {
		dbItems = append(dbItems,
			ConfigItem{Name: "db_connect_timeout", Value: h.CoreCfg.DBConnectTimeout.String()},
			ConfigItem{Name: "index_boot_timeout", Value: h.CoreCfg.IndexBootTimeout.String()},
		)
	}
	groups = append(groups, ConfigGroup{Name: "Database", Items: dbItems})

	groups = append(groups, ConfigGroup{
		Name: "Session & Security",
		Items: []ConfigItem{
			{Name: "session_key", Value: mask(h.AppCfg.SessionKey)},
			{Name: "session_name", Value: h.AppCfg.SessionName},
			{Name: "session_domain", Value: h.AppCfg.SessionDomain},
			{Name: "session_max_age", Value: h.AppCfg.SessionMaxAge.String()},
			{Name: "rate_limit_enabled", Value: boolStr(h.AppCfg.RateLimitEnabled)},
			{Name: "rate_limit_login_attempts", Value: fmt.Sprintf("%d", h.AppCfg.RateLimitLoginAttempts)},
			{Name: "rate_limit_login_window", Value: h.AppCfg.RateLimitLoginWindow.String()},
			{Name: "rate_limit_login_lockout", Value: h.AppCfg.RateLimitLoginLockout.String()},
			{Name: "csrf_key", Value: mask(h.AppCfg.CSRFKey)},
			{Name: "api_key", Value: mask(h.AppCfg.APIKey)},
		},
	})

	groups = append(groups, ConfigGroup{
		Name: "Catalog",
		Items: []ConfigItem{
			{Name: "integrity_sweep_interval", Value: h.AppCfg.IntegritySweepInterval.String()},
			{Name: "featured_limit", Value: fmt.Sprintf("%d", h.AppCfg.FeaturedLimit)},
			{Name: "default_cover_url", Value: h.AppCfg.DefaultCoverURL},
		},
	})

	groups = append(groups, ConfigGroup{
		Name: "Audit Logging",
		Items: []ConfigItem{
			{Name: "audit_log_auth", Value: h.AppCfg.AuditLogAuth},
			{Name: "audit_log_admin", Value: h.AppCfg.AuditLogAdmin},
		},
	})

	groups = append(groups, ConfigGroup{
		Name: "Seeding",
		Items: []ConfigItem{
			{Name: "seed_admin_email", Value: h.AppCfg.SeedAdminEmail},
			{Name: "seed_admin_username", Value: h.AppCfg.SeedAdminUsername},
			{Name: "seed_sample_catalog", Value: boolStr(h.AppCfg.SeedSampleCatalog)},
		},
	})

	return groups
}
