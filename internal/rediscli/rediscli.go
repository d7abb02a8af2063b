// Package rediscli provides the single shared *redis.Client the cache
// refresher, rate limiter, and asynq broker all connect through.
package rediscli

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/brightleaf/glsync/internal/config"
)

// Module provides a *redis.Client wired into the fx lifecycle so the
// connection is closed on shutdown.
var Module = fx.Module("rediscli",
	fx.Provide(New),
	fx.Invoke(registerHooks),
)

func New(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func registerHooks(lc fx.Lifecycle, client *redis.Client) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
}
