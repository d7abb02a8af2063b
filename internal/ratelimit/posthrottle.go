package ratelimit

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

const posThrottleKeyFmt = "posthrottle:%s"

// PosThrottle bounds the rate of outbound calls to the POS vendor API per
// store, so a retry storm against one store's credentials cannot starve
// requests for the rest of the fleet sharing the same vendor endpoint.
type PosThrottle struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

// NewPosThrottle builds a per-store limiter backed by client. rate is
// requests per second, burst is the instantaneous ceiling.
func NewPosThrottle(client *redis.Client, rate float64, burst int) *PosThrottle {
	return &PosThrottle{bucket: NewTokenBucket(client), rate: rate, burst: burst}
}

// Allow reports whether a call for storeID may proceed now.
func (p *PosThrottle) Allow(ctx context.Context, storeID string) (*RateLimitResult, error) {
	key := fmt.Sprintf(posThrottleKeyFmt, storeID)
	return p.bucket.Allow(ctx, key, p.rate, p.burst)
}
