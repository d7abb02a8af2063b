package jobs

import (
	"fmt"

	"go.uber.org/fx"

	"github.com/brightleaf/glsync/internal/cache"
	"github.com/brightleaf/glsync/internal/clock"
	"github.com/brightleaf/glsync/internal/config"
	"github.com/brightleaf/glsync/internal/inventory"
	"github.com/brightleaf/glsync/internal/observability/metrics"
	"github.com/brightleaf/glsync/internal/posclient"
	"github.com/brightleaf/glsync/internal/ratelimit"
	"github.com/brightleaf/glsync/internal/scheduler"
	"github.com/brightleaf/glsync/internal/storeregistry"
	"github.com/brightleaf/glsync/internal/worker"
)

// DepsModule provides the shared Deps bundle on its own, without
// registering any processor onto a worker pool. The CLI trigger tool's
// synchronous subcommands (export/hourly/sync-inventory/import) build on
// this directly, since they drive a Processor themselves and never need a
// *worker.Pool to exist.
var DepsModule = fx.Module("jobs-deps",
	fx.Provide(provideDeps),
)

// Module extends DepsModule by registering every queue's processor onto
// the worker pool, for the scheduler daemon and the asynq-backed
// trigger/status subcommands.
var Module = fx.Module("jobs",
	DepsModule,
	fx.Invoke(registerProcessors),
)

func provideDeps(stores *storeregistry.Registry, pos *posclient.Client, throttle *ratelimit.PosThrottle, cfg config.Config, c clock.Clock, m *metrics.Metrics) Deps {
	return Deps{
		Stores:   stores,
		POS:      pos,
		Throttle: throttle,
		Config:   cfg,
		Clock:    c,
		Metrics:  m,
	}
}

// registerProcessors wires a Processor onto the worker pool for every
// queue in the queue table. A queue with no matching case here is a
// configuration defect caught at startup rather than a silently
// unprocessed cron entry.
func registerProcessors(pool *worker.Pool, cfg config.Config, defs []scheduler.QueueDef, deps Deps, snapshots *inventory.Repository, refresher *cache.Refresher, stores *storeregistry.Registry) error {
	for _, def := range defs {
		switch def.Name {
		case "inventory-sync":
			pool.Register(cfg, def, InventorySync(InventorySyncDeps{Deps: deps, Snapshots: snapshots, Cache: refresher}))
		case "gl-export":
			pool.Register(cfg, def, GLExport(deps))
		case "banner-sync":
			pool.Register(cfg, def, BannerSync(stores, refresher))
		case "hourly-sales":
			pool.Register(cfg, def, HourlySales(deps))
		case "odoo-sync":
			pool.Register(cfg, def, OdooSync())
		default:
			return fmt.Errorf("jobs: no processor registered for queue %q", def.Name)
		}
	}
	return nil
}
