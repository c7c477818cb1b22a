package registry

import "go.uber.org/fx"

// FXModule provides the built-in catalog as *Registry.
// Applications with their own catalog should provide a *Registry instead.
var FXModule = fx.Module("registry",
	fx.Provide(Default),
)
