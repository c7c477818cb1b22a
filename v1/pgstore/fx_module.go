package pgstore

import (
	"context"
	"sync"
	"time"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/querykit/v1/docstore"
	"github.com/Aleph-Alpha/querykit/v1/registry"
)

// healthCheckInterval is how often MonitorConnection pings the database.
const healthCheckInterval = 10 * time.Second

// FXModule provides the *Store and exposes it as docstore.Store.
var FXModule = fx.Module("pgstore",
	fx.Provide(
		NewStoreWithDI,
		fx.Annotate(
			func(s *Store) docstore.Store { return s },
			fx.As(new(docstore.Store)),
		),
	),
	fx.Invoke(RegisterStoreLifecycle),
)

// StoreParams groups the dependencies needed to create a Store.
type StoreParams struct {
	fx.In

	Config Config
	Logger Logger `optional:"true"`
}

// NewStoreWithDI connects and attaches the optional logger.
func NewStoreWithDI(params StoreParams) (*Store, error) {
	s, err := NewStore(params.Config)
	if err != nil {
		return nil, err
	}
	if params.Logger != nil {
		s.WithLogger(params.Logger)
	}
	return s, nil
}

// StoreLifecycleParams groups the dependencies of the lifecycle hooks.
type StoreLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Store     *Store
	Config    Config
	Registry  *registry.Registry `optional:"true"`
}

// RegisterStoreLifecycle migrates the registry's collections when
// AutoMigrate is set, runs the connection monitor while the app is up and
// closes the connection on stop.
func RegisterStoreLifecycle(params StoreLifecycleParams) {
	wg := &sync.WaitGroup{}
	loopCtx, cancel := context.WithCancel(context.Background())

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if params.Config.AutoMigrate && params.Registry != nil {
				if err := params.Store.Migrate(ctx, Collections(params.Registry)...); err != nil {
					cancel()
					return err
				}
			}

			wg.Add(2)
			go func() {
				defer wg.Done()
				params.Store.MonitorConnection(loopCtx, healthCheckInterval)
			}()
			go func() {
				defer wg.Done()
				params.Store.RetryConnection(loopCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			err := params.Store.GracefulShutdown()
			wg.Wait()
			return err
		},
	})
}

// Collections returns the distinct collections of every registered entity.
func Collections(reg *registry.Registry) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, name := range reg.Entities() {
		desc, err := reg.Describe(name)
		if err != nil {
			continue
		}
		if _, dup := seen[desc.Collection]; dup {
			continue
		}
		seen[desc.Collection] = struct{}{}
		out = append(out, desc.Collection)
	}
	return out
}
