// Package docstore compiles normalized filter requests into native
// document-store filters and executes them.
//
// The native filter is Mongo-shaped: store field names map to a value or to a
// Cond operator map ($eq, $ne, $gt, $gte, $lt, $lte, $in, $nin, $all, $size,
// $regex, $not), and the logical keys $and/$or hold lists of sub-filters.
//
// # Value formatting
//
// String equality and the contains/startsWith/endsWith operators compile to a
// Pattern: the input is folded with textnorm.Fold (diacritics stripped,
// lower-cased, "&" spelled out), escaped and anchored as needed, and marked
// Folded so the store folds document values the same way. Array equality
// compiles to {$all: values, $size: n}, meaning "exactly this set".
//
// # Relational filters
//
// A relational condition such as savedata's "user.username" is resolved in a
// first pass: its inner expression is compiled against the related entity and
// run through Store.Distinct projecting the related identity field. All such
// sub-queries of a request run concurrently and must finish before the parent
// filter is assembled. A sub-query matching nothing compiles to
// {fk: {$in: [NeverMatchID]}} so the parent yields no rows.
//
// # Fast path
//
// Compiler.Lookup answers requests with exactly one key, the identity field as
// a scalar or the internal "_id", with a single FindOne.
//
// Basic Usage:
//
//	store := docstore.NewMemoryStore()
//	compiler := docstore.NewCompiler(registry.Default(), store, docstore.Config{})
//
//	req, _ := normalizer.Normalize("savedata", params)
//	if doc, ok, err := compiler.Lookup(ctx, req); ok {
//	    return doc, err
//	}
//	docs, err := compiler.Find(ctx, req, docstore.PageOptions(req))
package docstore
