// Package clock abstracts wall-clock access so retry backoff, cron
// scheduling, and local-day resolution can be driven deterministically
// in tests.
package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock is the seam between real wall-clock time and test doubles. Every
// suspension point that would otherwise call time.Now or time.Sleep goes
// through a Clock instead.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// RealClock delegates to the standard library.
type RealClock struct{}

func NewRealClock() RealClock { return RealClock{} }

func (RealClock) Now() time.Time { return time.Now().UTC() }

func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }

// Module provides the production Clock implementation.
var Module = fx.Module("clock",
	fx.Provide(func() Clock { return NewRealClock() }),
)
