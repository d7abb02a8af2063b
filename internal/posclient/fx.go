package posclient

import (
	"go.uber.org/fx"

	"github.com/brightleaf/glsync/internal/clock"
	"github.com/brightleaf/glsync/internal/config"
)

var Module = fx.Module("posclient",
	fx.Provide(func(cfg config.Config, c clock.Clock) *Client {
		return New(cfg.PosBaseURL, c)
	}),
)
