package catalog

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/querykit/v1/docstore"
	"github.com/Aleph-Alpha/querykit/v1/filter"
	"github.com/Aleph-Alpha/querykit/v1/hybrid"
	"github.com/Aleph-Alpha/querykit/v1/igdb"
	"github.com/Aleph-Alpha/querykit/v1/observability"
)

// PublisherGroup is the fx value group deletion publishers join. Every
// member receives each deletion.
const PublisherGroup = "deletion_publishers"

// FXModule provides the *Service.
var FXModule = fx.Module("catalog",
	fx.Provide(NewServiceWithDI),
)

// ServiceParams groups the dependencies of the service.
type ServiceParams struct {
	fx.In

	Normalizer   *filter.Normalizer
	Compiler     *docstore.Compiler
	Orchestrator *hybrid.Orchestrator
	External     *igdb.Compiler         `optional:"true"`
	Publishers   []DeletionPublisher    `group:"deletion_publishers"`
	Observer     observability.Observer `optional:"true"`
	Logger       Logger                 `optional:"true"`
}

// NewServiceWithDI builds the service with its optional collaborators.
func NewServiceWithDI(p ServiceParams) *Service {
	s := NewService(p.Normalizer, p.Compiler, p.Orchestrator)
	if p.External != nil {
		s.WithExternalCompiler(p.External)
	}
	switch len(p.Publishers) {
	case 0:
	case 1:
		s.WithPublisher(p.Publishers[0])
	default:
		s.WithPublisher(Publishers(p.Publishers))
	}
	if p.Observer != nil {
		s.WithObserver(p.Observer)
	}
	if p.Logger != nil {
		s.WithLogger(p.Logger)
	}
	return s
}
