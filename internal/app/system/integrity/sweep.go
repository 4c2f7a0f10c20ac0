package integrity

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/stratareel/internal/app/store/docstore"
	"github.com/dalemusser/stratareel/internal/domain/models"
	"go.uber.org/zap"
)

// SweepReport summarizes one repair pass.
type SweepReport struct {
	CollectionsScanned  int      `json:"collections_scanned"`
	CollectionsRepaired int      `json:"collections_repaired"`
	ReferencesRemoved   int      `json:"references_removed"`
	Failed              []string `json:"failed,omitempty"`
}

// Sweep removes dangling movie references from every collection.
//
// Movie ids are listed once up front. Each candidate is re-checked with a
// direct lookup before removal so that a movie created during the sweep is
// not stripped from a collection. Write failures are reported per
// collection and do not stop the pass.
func (c *Coordinator) Sweep(ctx context.Context) (SweepReport, error) {
	var report SweepReport

	movieDocs, err := c.store.List(ctx, Movies)
	if err != nil {
		return report, fmt.Errorf("list movies: %w: %w", models.ErrStore, err)
	}
	known := make(map[string]struct{}, len(movieDocs))
	for _, d := range movieDocs {
		known[d.ID] = struct{}{}
	}

	cols, err := c.LoadCollections(ctx)
	if err != nil {
		return report, err
	}
	report.CollectionsScanned = len(cols)

	for _, col := range cols {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		dangling, err := c.danglingIDs(ctx, col, known)
		if err != nil {
			report.Failed = append(report.Failed, col.ID)
			c.logger.Warn("sweep lookup failed", zap.String("collection_id", col.ID), zap.Error(err))
			continue
		}
		if len(dangling) == 0 {
			continue
		}

		vals := make([]any, len(dangling))
		for i, id := range dangling {
			vals[i] = id
		}
		err = c.store.Update(ctx, Collections, col.ID, docstore.Update{
			ArrayRemove: map[string][]any{movieIDsField: vals},
		})
		if err != nil {
			if errors.Is(err, docstore.ErrNoDocument) {
				continue
			}
			report.Failed = append(report.Failed, col.ID)
			c.logger.Warn("sweep removal failed", zap.String("collection_id", col.ID), zap.Error(err))
			continue
		}
		report.CollectionsRepaired++
		report.ReferencesRemoved += len(dangling)
	}

	c.logger.Info("integrity sweep finished",
		zap.Int("collections_scanned", report.CollectionsScanned),
		zap.Int("collections_repaired", report.CollectionsRepaired),
		zap.Int("references_removed", report.ReferencesRemoved),
		zap.Int("collections_failed", len(report.Failed)))

	return report, nil
}

// danglingIDs returns the distinct ids of col with no movie document.
func (c *Coordinator) danglingIDs(ctx context.Context, col models.Collection, known map[string]struct{}) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})
	for _, id := range col.MovieIDs {
		if _, ok := known[id]; ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		_, err := c.store.Get(ctx, Movies, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, docstore.ErrNoDocument) {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
