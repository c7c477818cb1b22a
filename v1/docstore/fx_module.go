package docstore

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/querykit/v1/observability"
	"github.com/Aleph-Alpha/querykit/v1/registry"
)

// FXModule provides the *Compiler. A Store (for example pgstore's, or a
// MemoryStore) and a docstore.Config must be available in the container.
var FXModule = fx.Module("docstore",
	fx.Provide(NewCompilerWithDI),
)

// CompilerParams groups the dependencies of the compiler.
type CompilerParams struct {
	fx.In

	Registry *registry.Registry
	Store    Store
	Config   Config
	Observer observability.Observer `optional:"true"`
	Logger   Logger                 `optional:"true"`
}

// NewCompilerWithDI builds a Compiler from injected dependencies,
// attaching the optional observer and logger when present.
func NewCompilerWithDI(p CompilerParams) *Compiler {
	c := NewCompiler(p.Registry, p.Store, p.Config)
	if p.Observer != nil {
		c.WithObserver(p.Observer)
	}
	if p.Logger != nil {
		c.WithLogger(p.Logger)
	}
	return c
}
