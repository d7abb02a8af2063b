// Command glsync-scheduler is the long-running daemon: it reconciles the
// cron schedule, runs one asynq server per queue, and serves until it
// receives SIGINT/SIGTERM.
package main

import (
	"go.uber.org/fx"

	"github.com/brightleaf/glsync/internal/cache"
	"github.com/brightleaf/glsync/internal/clock"
	"github.com/brightleaf/glsync/internal/config"
	"github.com/brightleaf/glsync/internal/inventory"
	"github.com/brightleaf/glsync/internal/jobs"
	"github.com/brightleaf/glsync/internal/migration"
	"github.com/brightleaf/glsync/internal/observability"
	"github.com/brightleaf/glsync/internal/posclient"
	"github.com/brightleaf/glsync/internal/ratelimit"
	"github.com/brightleaf/glsync/internal/rediscli"
	"github.com/brightleaf/glsync/internal/scheduler"
	"github.com/brightleaf/glsync/internal/storeregistry"
	"github.com/brightleaf/glsync/internal/worker"
	"github.com/brightleaf/glsync/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		clock.Module,
		db.Module,
		rediscli.Module,
		migration.Module,

		storeregistry.Module,
		posclient.Module,
		ratelimit.Module,
		cache.Module,
		inventory.Module,

		// jobs registers every queue's processor on the worker pool via
		// fx.Invoke, which fx guarantees runs before any OnStart hook —
		// so worker.Module's pool.Start always sees a fully wired pool.
		jobs.Module,

		// worker.Module is declared before scheduler.Module so that on
		// shutdown OnStop hooks fire in the reverse order: scheduler
		// stops producing new cron-triggered enqueues first, then the
		// worker pool drains in-flight jobs, and only then do db.Module
		// and rediscli.Module (declared earliest, so stopped last) close
		// their connections.
		worker.Module,
		scheduler.Module,
	)
	app.Run()
}
