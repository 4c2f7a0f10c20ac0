// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/stratareel/internal/app/system/tasks"
	"github.com/dalemusser/stratareel/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// It applies the configured operation timeouts and starts the background
// task runner. Returning a non-nil error aborts startup.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Store: appCfg.StoreTimeout,
		Scan:  appCfg.ScanTimeout,
	})

	startTaskRunner(appCfg, deps, logger)
	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown
// and the admin job endpoints.
var taskRunner *tasks.Runner

// startTaskRunner initializes and starts the background task runner.
func startTaskRunner(appCfg AppConfig, deps DBDeps, logger *zap.Logger) {
	taskRunner = tasks.New(logger)

	// With interval 0 the job is not registered; POST /api/admin/integrity/sweep
	// still runs a sweep on demand.
	taskRunner.Register(tasks.IntegritySweepJob(deps.Coord, deps.Audit, logger, appCfg.IntegritySweepInterval))

	taskRunner.Start()
}
