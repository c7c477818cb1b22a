package main

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/Aleph-Alpha/querykit/v1/catalog"
	"github.com/Aleph-Alpha/querykit/v1/docstore"
	"github.com/Aleph-Alpha/querykit/v1/filter"
	"github.com/Aleph-Alpha/querykit/v1/hybrid"
	"github.com/Aleph-Alpha/querykit/v1/igdb"
	"github.com/Aleph-Alpha/querykit/v1/kafka"
	"github.com/Aleph-Alpha/querykit/v1/logger"
	"github.com/Aleph-Alpha/querykit/v1/metrics"
	"github.com/Aleph-Alpha/querykit/v1/minio"
	"github.com/Aleph-Alpha/querykit/v1/pgstore"
	"github.com/Aleph-Alpha/querykit/v1/rabbit"
	"github.com/Aleph-Alpha/querykit/v1/redis"
	"github.com/Aleph-Alpha/querykit/v1/registry"
	"github.com/Aleph-Alpha/querykit/v1/tracer"
)

// appOptions assembles the application graph. A non-nil store replaces the
// PostgreSQL module; external search (with its optional cache), metrics,
// deletion events and snapshot storage are wired only when configured.
func appOptions(cfg Config, verbose bool, store docstore.Store, populate ...any) []fx.Option {
	opts := []fx.Option{
		fx.Supply(cfg.Logger, cfg.Tracer, cfg.Filter, cfg.Docstore, cfg.Hybrid),
		logger.FXModule,
		tracer.FXModule,
		registry.FXModule,
		filter.FXModule,
		docstore.FXModule,
		hybrid.FXModule,
		catalog.FXModule,
		loggerAdapters,
		fx.Populate(populate...),
	}

	if verbose {
		opts = append(opts, fx.WithLogger(func(l *logger.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Zap}
		}))
	} else {
		opts = append(opts, fx.NopLogger)
	}

	if store != nil {
		opts = append(opts, fx.Provide(func() docstore.Store { return store }))
	} else {
		opts = append(opts, pgstore.FXModule, fx.Supply(cfg.Postgres))
	}
	if cfg.IGDB.ClientID != "" {
		opts = append(opts, igdb.FXModule, fx.Supply(cfg.IGDB))
		if cfg.Redis.Host != "" {
			opts = append(opts, redis.FXModule, fx.Supply(cfg.Redis), fx.Decorate(redis.DecorateExecutor))
		}
	}
	if cfg.Metrics.Address != "" {
		opts = append(opts, metrics.FXModule, fx.Supply(cfg.Metrics))
	}
	if cfg.Rabbit.Connection.Host != "" {
		opts = append(opts, rabbit.FXModule, fx.Supply(cfg.Rabbit))
	}
	if len(cfg.Kafka.Brokers) > 0 {
		opts = append(opts, kafka.FXModule, fx.Supply(cfg.Kafka))
	}
	if cfg.Minio.Connection.Endpoint != "" {
		opts = append(opts, minio.FXModule, fx.Supply(cfg.Minio))
	}
	return opts
}

// loggerAdapters exposes the application logger under each package's
// Logger interface.
var loggerAdapters = fx.Provide(
	func(l *logger.Logger) tracer.Logger { return l },
	func(l *logger.Logger) metrics.Logger { return l },
	func(l *logger.Logger) docstore.Logger { return l },
	func(l *logger.Logger) hybrid.Logger { return l },
	func(l *logger.Logger) igdb.Logger { return l },
	func(l *logger.Logger) catalog.Logger { return l },
	func(l *logger.Logger) pgstore.Logger { return l },
	func(l *logger.Logger) rabbit.Logger { return l },
	func(l *logger.Logger) kafka.Logger { return l },
	func(l *logger.Logger) minio.Logger { return l },
	func(l *logger.Logger) redis.Logger { return l },
)

// withService starts the application, runs fn against the catalog service
// and stops the application again.
func withService(ctx context.Context, cfg Config, verbose bool, store docstore.Store, fn func(context.Context, *catalog.Service) error, populate ...any) (err error) {
	var svc *catalog.Service
	app := fx.New(appOptions(cfg, verbose, store, append([]any{&svc}, populate...)...)...)
	if err := app.Err(); err != nil {
		return fmt.Errorf("building application: %w", err)
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("starting application: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
		defer cancel()
		if stopErr := app.Stop(stopCtx); stopErr != nil && err == nil {
			err = fmt.Errorf("stopping application: %w", stopErr)
		}
	}()

	return fn(ctx, svc)
}
