package filter

import "go.uber.org/fx"

// FXModule provides the Normalizer. It requires a *registry.Registry and a
// filter.Config in the container.
//
// Usage:
//
//	app := fx.New(
//	    registry.FXModule,
//	    filter.FXModule,
//	    fx.Supply(filter.Config{DefaultLimit: 25}),
//	)
var FXModule = fx.Module("filter",
	fx.Provide(NewNormalizer),
)
