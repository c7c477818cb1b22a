package igdb

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/querykit/v1/docstore"
	"github.com/Aleph-Alpha/querykit/v1/observability"
	"github.com/Aleph-Alpha/querykit/v1/registry"
)

// FXModule provides the external search stack: the HTTP *Client (as
// Executor), the *PlatformTable (as Platforms, loaded from the document
// store on start), the *Compiler and the *Searcher.
//
// Dependencies required by this module:
//   - an igdb.Config
//   - a *registry.Registry and a docstore.Store
//   - optionally an observability.Observer and an igdb.Logger
var FXModule = fx.Module("igdb",
	fx.Provide(
		NewClientWithDI,
		func(c *Client) Executor { return c },
		func() *PlatformTable { return NewPlatformTable(nil) },
		func(t *PlatformTable) Platforms { return t },
		NewCompiler,
		NewSearcherWithDI,
	),
	fx.Invoke(RegisterIGDBLifecycle),
)

// ClientParams groups the dependencies of the HTTP client.
type ClientParams struct {
	fx.In

	Config   Config
	Observer observability.Observer `optional:"true"`
	Logger   Logger                 `optional:"true"`
}

// NewClientWithDI builds the client and attaches the optional observer and logger.
func NewClientWithDI(p ClientParams) (*Client, error) {
	c, err := NewClient(p.Config)
	if err != nil {
		return nil, err
	}
	if p.Observer != nil {
		c.WithObserver(p.Observer)
	}
	if p.Logger != nil {
		c.WithLogger(p.Logger)
	}
	return c, nil
}

// SearcherParams groups the dependencies of the searcher.
type SearcherParams struct {
	fx.In

	Compiler  *Compiler
	Executor  Executor
	Platforms Platforms
	Logger    Logger `optional:"true"`
}

// NewSearcherWithDI builds the searcher.
func NewSearcherWithDI(p SearcherParams) *Searcher {
	s := NewSearcher(p.Compiler, p.Executor, p.Platforms)
	if p.Logger != nil {
		s.WithLogger(p.Logger)
	}
	return s
}

// LifecycleParams groups the dependencies of the lifecycle hooks.
type LifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    *Client
	Table     *PlatformTable
	Registry  *registry.Registry
	Store     docstore.Store
}

// RegisterIGDBLifecycle loads the platform table on start and releases
// the HTTP client's connections on stop.
func RegisterIGDBLifecycle(p LifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return p.Table.Load(ctx, p.Registry, p.Store)
		},
		OnStop: func(ctx context.Context) error {
			return p.Client.Close()
		},
	})
}
