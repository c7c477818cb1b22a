package catalog

import (
	"github.com/Aleph-Alpha/querykit/v1/docstore"
	"github.com/Aleph-Alpha/querykit/v1/hybrid"
)

// Result is the answer to a query: a single entity (possibly nil) for
// single-key lookups, a sequence otherwise.
type Result struct {
	Entity   string
	IsSingle bool
	Single   docstore.Document
	Items    []docstore.Document

	// Mode is how a sequence was produced. It is meaningless for lookups.
	Mode hybrid.Mode
}

// Empty reports whether the result carries no entity. Callers use it to
// answer "no content" instead of an empty payload.
func (r *Result) Empty() bool {
	if r == nil {
		return true
	}
	if r.IsSingle {
		return r.Single == nil
	}
	return len(r.Items) == 0
}

// DeletionResult lists the identities removed from one entity, followed by
// the deletions cascaded to dependent entities.
type DeletionResult struct {
	Entity   string
	IDs      []any
	Cascaded []*DeletionResult
}

// Total returns the number of documents removed, cascades included.
func (d *DeletionResult) Total() int {
	if d == nil {
		return 0
	}
	n := len(d.IDs)
	for _, c := range d.Cascaded {
		n += c.Total()
	}
	return n
}

// Explanation describes how a request would be answered without running it.
type Explanation struct {
	Entity string
	Mode   hybrid.Mode

	// Lookup is set when the request takes the single-key fast path.
	Lookup bool

	// StoreFilter is the compiled native filter, relations resolved.
	StoreFilter docstore.Filter
	FindOptions docstore.FindOptions

	// ExternalQuery is the external query text, empty when the request
	// never reaches the external catalog.
	ExternalQuery string
	// ExternalError explains why the request cannot be sent externally.
	ExternalError string
}
