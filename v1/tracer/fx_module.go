package tracer

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides the *Tracer and shuts it down with the application,
// flushing pending spans.
//
// Dependencies required by this module:
//   - a tracer.Config
//   - a tracer.Logger
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewClient,
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// RegisterTracerLifecycle shuts the tracer provider down on stop.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if tracer.logger != nil {
				tracer.logger.Info("shutting down tracer", nil, nil)
			}
			return tracer.Shutdown(ctx)
		},
	})
}
