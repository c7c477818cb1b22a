package redis

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/querykit/v1/igdb"
	"github.com/Aleph-Alpha/querykit/v1/observability"
)

// FXModule provides the *Client and pings the server on start.
//
// The cache takes effect once DecorateExecutor is registered at the top
// level of the application, next to igdb.FXModule:
//
//	app := fx.New(
//	    igdb.FXModule,
//	    redis.FXModule,
//	    fx.Decorate(redis.DecorateExecutor),
//	)
var FXModule = fx.Module("redis",
	fx.Provide(NewClientWithDI),
	fx.Invoke(RegisterRedisLifecycle),
)

// RedisParams groups the dependencies needed to create a client.
type RedisParams struct {
	fx.In

	Config   Config
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewClientWithDI creates the client and attaches the optional logger and observer.
func NewClientWithDI(params RedisParams) (*Client, error) {
	c, err := NewClient(params.Config)
	if err != nil {
		return nil, err
	}
	if params.Logger != nil {
		c.WithLogger(params.Logger)
	}
	if params.Observer != nil {
		c.WithObserver(params.Observer)
	}
	return c, nil
}

// DecorateParams groups the dependencies of DecorateExecutor.
type DecorateParams struct {
	fx.In

	Executor igdb.Executor
	Client   *Client
}

// DecorateExecutor wraps the application's igdb.Executor with the cache.
func DecorateExecutor(params DecorateParams) igdb.Executor {
	return NewCachedExecutor(params.Executor, params.Client)
}

// RedisLifecycleParams groups the dependencies of the lifecycle hooks.
type RedisLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    *Client
}

// RegisterRedisLifecycle pings the server on start and closes the pool on stop.
func RegisterRedisLifecycle(params RedisLifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := params.Client.Ping(ctx); err != nil {
				if params.Client.logger != nil {
					params.Client.logger.Warn("failed to ping redis on startup", err, nil)
				}
				return err
			}
			if params.Client.logger != nil {
				params.Client.logger.Info("redis cache ready", nil, map[string]interface{}{
					"ttl": params.Client.cfg.TTL.String(),
				})
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return params.Client.Close()
		},
	})
}
