// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/stratareel/internal/app/store/audit"
	"github.com/dalemusser/stratareel/internal/app/store/docstore"
	moviestore "github.com/dalemusser/stratareel/internal/app/store/movies"
	userstore "github.com/dalemusser/stratareel/internal/app/store/users"
	"github.com/dalemusser/stratareel/internal/app/system/auditlog"
	"github.com/dalemusser/stratareel/internal/app/system/indexes"
	"github.com/dalemusser/stratareel/internal/app/system/integrity"
	"github.com/dalemusser/stratareel/internal/app/system/seeding"
	"github.com/dalemusser/stratareel/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// ConnectDB connects to MongoDB and selects the document store.
//
// WAFFLE calls this after configuration is loaded but before EnsureSchema and
// Startup. The memory backend keeps the catalog in process and is meant for
// development; MongoDB is still required for accounts and audit events.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	// Configure MongoDB connection pool
	poolCfg := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
	if err != nil {
		return DBDeps{}, err
	}

	db := client.Database(appCfg.MongoDatabase)

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
		zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
	)

	var docs docstore.Client
	switch appCfg.DocstoreBackend {
	case BackendMemory:
		docs = docstore.NewMemory()
	default:
		docs = docstore.NewMongo(db)
	}
	logger.Info("initialized document store", zap.String("backend", appCfg.DocstoreBackend))

	coord := integrity.New(docs, logger)
	if appCfg.DefaultCoverURL != "" {
		coord.SetDefaultCover(appCfg.DefaultCoverURL)
	}

	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Docs:          docs,
		Coord:         coord,
		Audit:         auditLogger,
	}, nil
}

// EnsureSchema sets up validators, indexes and seed data.
//
// This runs after ConnectDB succeeds but before Startup and before the HTTP
// handler is built. The context has a timeout based on
// coreCfg.IndexBootTimeout.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	// Ensure collections exist and attach JSON-Schema validators.
	// This runs first so indexes can be created on existing collections.
	logger.Info("ensuring collections and validators")
	if err := validators.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure validators", zap.Error(err))
		return err
	}

	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure indexes", zap.Error(err))
		return err
	}

	logger.Info("seeding default data")
	err := seeding.SeedAll(ctx, seeding.Deps{
		Users:  userstore.New(db),
		Movies: moviestore.New(deps.Docs, deps.Coord, logger),
		Audit:  deps.Audit,
		Logger: logger,
	}, seeding.Options{
		AdminEmail:    appCfg.SeedAdminEmail,
		AdminUsername: appCfg.SeedAdminUsername,
		AdminPassword: appCfg.SeedAdminPassword,
		SampleCatalog: appCfg.SeedSampleCatalog,
	})
	if err != nil {
		logger.Error("failed to seed default data", zap.Error(err))
		return err
	}

	logger.Info("database schema ensured successfully")
	return nil
}
