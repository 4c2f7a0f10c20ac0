// cmd/stratareel/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dalemusser/stratareel/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, bootstrap.Hooks); err != nil {
		// WAFFLE's logger is gone by now; report on a fresh one.
		logger, _ := zap.NewProduction()
		logger.Error("stratareel exited with error", zap.Error(err))
		_ = logger.Sync()
		stop()
		os.Exit(1)
	}
}
