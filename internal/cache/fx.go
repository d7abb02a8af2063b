package cache

import (
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/brightleaf/glsync/internal/clock"
)

var Module = fx.Module("cache",
	fx.Provide(func(client *redis.Client, c clock.Clock) *Refresher {
		return NewRefresher(client, c)
	}),
)
