package jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/brightleaf/glsync/internal/cache"
	"github.com/brightleaf/glsync/internal/glerr"
	obslogger "github.com/brightleaf/glsync/internal/observability/logger"
	"github.com/brightleaf/glsync/internal/storeregistry"
	"github.com/brightleaf/glsync/internal/worker"
)

// bannerSummary is the thin per-store view the (out-of-scope) HTTP API's
// retailer banner listing reads from Redis — name, branch, and whether
// the store is currently active, nothing the GL or hourly pipelines need.
type bannerSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	BranchCode string `json:"branchCode"`
	IsActive   bool   `json:"isActive"`
}

// BannerSync refreshes the cached retailer banner summary list (spec
// §4.8's "peripheral" queue): it does not touch the POS API at all, only
// Postgres and Redis, so it never competes with inventory-sync or
// gl-export for POS rate-limit budget.
func BannerSync(stores *storeregistry.Registry, c *cache.Refresher) worker.Processor {
	return func(ctx context.Context, reporter *worker.ProgressReporter, _ []byte) error {
		log := obslogger.FromContext(ctx)

		rows, err := stores.Stores(ctx)
		if err != nil {
			return fmt.Errorf("%w: load stores: %v", glerr.ErrStorageUnavailable, err)
		}

		summaries := make([]bannerSummary, 0, len(rows))
		for _, s := range rows {
			summaries = append(summaries, bannerSummary{
				ID:         s.ID,
				Name:       s.Name,
				BranchCode: s.BranchCode,
				IsActive:   s.IsActive,
			})
		}
		reporter.Report(ctx, 50)

		if err := c.SetLocations(ctx, summaries); err != nil {
			return fmt.Errorf("%w: %v", glerr.ErrStorageUnavailable, err)
		}
		reporter.Report(ctx, 100)

		log.Info("banner sync complete", zap.Int("stores", len(summaries)))
		return nil
	}
}
