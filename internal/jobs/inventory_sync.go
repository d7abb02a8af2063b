package jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/brightleaf/glsync/internal/cache"
	"github.com/brightleaf/glsync/internal/gl/domain"
	"github.com/brightleaf/glsync/internal/glerr"
	"github.com/brightleaf/glsync/internal/inventory"
	obslogger "github.com/brightleaf/glsync/internal/observability/logger"
	"github.com/brightleaf/glsync/internal/worker"
)

// InventorySyncDeps extends Deps with the collaborators specific to the
// inventory-sync job: the Postgres snapshot store and the Redis cache
// refresher it feeds.
type InventorySyncDeps struct {
	Deps
	Snapshots *inventory.Repository
	Cache     *cache.Refresher
}

// InventorySync pulls POS inventory and discounts for every active
// store, upserts them into Postgres, then reloads and refreshes the
// Redis view (C7) from what was just persisted.
func InventorySync(deps InventorySyncDeps) worker.Processor {
	return func(ctx context.Context, reporter *worker.ProgressReporter, _ []byte) error {
		log := obslogger.FromContext(ctx)

		stores, err := deps.Stores.Stores(ctx)
		if err != nil {
			return fmt.Errorf("%w: load stores: %v", glerr.ErrStorageUnavailable, err)
		}
		if len(stores) == 0 {
			return fmt.Errorf("%w: no active stores registered", glerr.ErrConfigMissing)
		}

		total := len(stores)
		done := 0

		failures := runPerStore(ctx, stores, deps.Throttle, func(storeCtx context.Context, store domain.Store) error {
			if err := syncStoreInventory(storeCtx, deps, store); err != nil {
				return err
			}
			done++
			reporter.Report(storeCtx, (done*100)/total)
			return nil
		})

		log.Info("inventory sync complete", zap.Int("stores", total))

		if len(failures) > 0 {
			return fmt.Errorf("inventory-sync: %d of %d stores failed: %s", len(failures), total, describeFailures(failures))
		}
		return nil
	}
}

func syncStoreInventory(ctx context.Context, deps InventorySyncDeps, store domain.Store) error {
	invJSON, err := deps.POS.GetInventoryReport(ctx, store.PosAPIKey)
	if err != nil {
		return err
	}
	discJSON, err := deps.POS.GetDiscountsV2(ctx, store.PosAPIKey)
	if err != nil {
		return err
	}

	now := deps.Clock.Now()
	if err := deps.Snapshots.Upsert(ctx, store.ID, invJSON, discJSON, now); err != nil {
		return fmt.Errorf("%w: %v", glerr.ErrStorageUnavailable, err)
	}

	inventoryData, discountsData, err := deps.Snapshots.Get(ctx, store.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", glerr.ErrStorageUnavailable, err)
	}

	if err := deps.Cache.Refresh(ctx, store.ID, inventoryData, discountsData); err != nil {
		return fmt.Errorf("%w: %v", glerr.ErrStorageUnavailable, err)
	}
	return nil
}
