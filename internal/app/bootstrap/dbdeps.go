// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/stratareel/internal/app/store/docstore"
	"github.com/dalemusser/stratareel/internal/app/system/auditlog"
	"github.com/dalemusser/stratareel/internal/app/system/integrity"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// This struct is created in ConnectDB and passed to subsequent lifecycle
// hooks: EnsureSchema, Startup, BuildHandler, and Shutdown.
//
// The Shutdown hook is responsible for closing these connections gracefully
// when the application terminates.
type DBDeps struct {
	// MongoDB client and database (users, audit events, rate limits and,
	// with the mongo backend, the catalog)
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Docs stores movies and collections. Backend chosen by docstore_backend.
	Docs docstore.Client

	// Coord enforces collection references against the catalog.
	Coord *integrity.Coordinator

	// Audit records auth and admin events per the audit_log_* settings.
	Audit *auditlog.Logger
}
