// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/stratareel/internal/app/system/auditlog"
	"github.com/dalemusser/stratareel/internal/app/system/integrity"
	"github.com/dalemusser/stratareel/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// IntegritySweepName is the runner name of the sweep job.
const IntegritySweepName = "integrity-sweep"

// IntegritySweepJob removes collection references to deleted movies every
// interval. Each run is bounded by the batch timeout. A zero interval leaves
// the job disabled when registered.
func IntegritySweepJob(coord *integrity.Coordinator, audit *auditlog.Logger, logger *zap.Logger, interval time.Duration) Job {
	return Job{
		Name:        IntegritySweepName,
		Interval:    interval,
		SkipInitial: true,
		Run: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, timeouts.Batch())
			defer cancel()

			rep, err := coord.Sweep(ctx)
			if err != nil {
				return err
			}
			if rep.ReferencesRemoved > 0 || len(rep.Failed) > 0 {
				logger.Info("integrity sweep repaired collections",
					zap.Int("scanned", rep.CollectionsScanned),
					zap.Int("repaired", rep.CollectionsRepaired),
					zap.Int("removed", rep.ReferencesRemoved),
					zap.Strings("failed", rep.Failed))
			}
			audit.IntegritySwept(ctx, nil, "", "schedule", rep)
			return nil
		},
	}
}
