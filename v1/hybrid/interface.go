package hybrid

import (
	"context"

	"github.com/Aleph-Alpha/querykit/v1/docstore"
	"github.com/Aleph-Alpha/querykit/v1/filter"
	"github.com/Aleph-Alpha/querykit/v1/igdb"
)

// LocalSearcher runs requests against the local document store.
// *docstore.Compiler implements it.
//
//go:generate mockgen -source=interface.go -destination=mock_searchers.go -package=hybrid
type LocalSearcher interface {
	Find(ctx context.Context, req *filter.Request, opts docstore.FindOptions) ([]docstore.Document, error)
}

// ExternalSearcher runs requests against the external catalog.
// *igdb.Searcher implements it.
type ExternalSearcher interface {
	Search(ctx context.Context, req *filter.Request, w igdb.Window) ([]docstore.Document, error)
	Expressible(req *filter.Request) bool
}
