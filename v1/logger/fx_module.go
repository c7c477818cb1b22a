package logger

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides the *Logger and flushes it on shutdown.
//
// Dependencies required by this module:
//   - a logger.Config
var FXModule = fx.Module("logger",
	fx.Provide(
		NewLoggerClient,
	),
	fx.Invoke(RegisterLoggerLifecycle),
)

// RegisterLoggerLifecycle flushes buffered entries when the application stops.
func RegisterLoggerLifecycle(lc fx.Lifecycle, client *Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// Sync fails with EINVAL/ENOTTY on terminals; nothing to flush then.
			_ = client.Zap.Sync()
			return nil
		},
	})
}
