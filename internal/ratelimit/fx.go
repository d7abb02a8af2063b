package ratelimit

import (
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const (
	defaultPosThrottleRate  = 5.0
	defaultPosThrottleBurst = 10
)

var Module = fx.Module("rate.limit",
	fx.Provide(func(client *redis.Client) *Locker {
		return NewLocker(client)
	}),
	fx.Provide(func(client *redis.Client) *PosThrottle {
		return NewPosThrottle(client, defaultPosThrottleRate, defaultPosThrottleBurst)
	}),
)
