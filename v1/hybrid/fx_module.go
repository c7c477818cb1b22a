package hybrid

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/querykit/v1/docstore"
	"github.com/Aleph-Alpha/querykit/v1/igdb"
	"github.com/Aleph-Alpha/querykit/v1/observability"
)

// FXModule provides an *Orchestrator over the docstore compiler and, when
// present in the graph, the igdb searcher.
var FXModule = fx.Module("hybrid",
	fx.Provide(NewOrchestratorWithDI),
)

// OrchestratorParams groups the dependencies of the orchestrator.
type OrchestratorParams struct {
	fx.In

	Config   Config
	Local    *docstore.Compiler
	External *igdb.Searcher         `optional:"true"`
	Observer observability.Observer `optional:"true"`
	Logger   Logger                 `optional:"true"`
}

// NewOrchestratorWithDI builds the orchestrator. Without an igdb searcher
// every request is answered locally.
func NewOrchestratorWithDI(p OrchestratorParams) *Orchestrator {
	var external ExternalSearcher
	if p.External != nil {
		external = p.External
	}
	o := NewOrchestrator(p.Local, external, p.Config)
	if p.Observer != nil {
		o.WithObserver(p.Observer)
	}
	if p.Logger != nil {
		o.WithLogger(p.Logger)
	}
	return o
}
