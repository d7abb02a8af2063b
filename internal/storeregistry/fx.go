package storeregistry

import "go.uber.org/fx"

var Module = fx.Module("storeregistry",
	fx.Provide(New),
)
