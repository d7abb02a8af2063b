package worker

import (
	"context"

	"go.uber.org/fx"
)

// Module provides the Job Run Ledger and worker pool, and wires their
// lifecycle. Pool.Start is deferred to the OnStart hook so every queue's
// processor (registered via fx.Invoke in internal/jobs) has already been
// wired by the time any server starts polling Redis.
var Module = fx.Module("worker",
	fx.Provide(NewLedger),
	fx.Provide(NewPool),
	fx.Provide(func(p *Pool) JobTrigger { return p }),
	fx.Invoke(registerLifecycle),
)

func registerLifecycle(lc fx.Lifecycle, pool *Pool) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pool.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return pool.Shutdown(ctx)
		},
	})
}
