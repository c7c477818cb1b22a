package docstore

import "context"

// Store is the document store consumed by the compiler. Filters are in the
// native shape produced by Compile; implementations translate them to their
// own query language.
//
//go:generate mockgen -source=interface.go -destination=mock_store.go -package=docstore
type Store interface {
	// Find returns the documents of collection matching filter.
	Find(ctx context.Context, collection string, filter Filter, opts FindOptions) ([]Document, error)

	// FindOne returns the first matching document, or nil when none matches.
	FindOne(ctx context.Context, collection string, filter Filter) (Document, error)

	// Distinct returns the distinct values of field over the matching documents.
	Distinct(ctx context.Context, collection, field string, filter Filter) ([]any, error)

	// Insert stores a new document.
	Insert(ctx context.Context, collection string, doc Document) error

	// Upsert merges set into the first document matching filter, or inserts
	// filter's equality fields merged with set when nothing matches.
	Upsert(ctx context.Context, collection string, filter Filter, set Document) error

	// Delete removes every matching document and returns how many were removed.
	Delete(ctx context.Context, collection string, filter Filter) (int64, error)
}
