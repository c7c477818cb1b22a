// Package pgstore implements docstore.Store on PostgreSQL JSONB.
//
// Each collection lives in its own table "<prefix><collection>" with an
// id bigserial column and a doc jsonb column. The native filters produced by
// docstore.Compiler are translated to SQL over doc with the same semantics
// as docstore.Matches: array-valued fields match a scalar condition when any
// element does, folded patterns compare unaccent(lower(...)) text, and a
// missing field never satisfies a comparison. The row id is exposed to
// filters and results as "_id" in decimal text.
//
// Times are stored as fixed-precision UTC strings so ordering and range
// filters work on the jsonb values directly.
//
//	store, err := pgstore.NewStore(pgstore.Config{
//		Connection: pgstore.Connection{Host: "localhost", Port: "5432", User: "app", Password: "secret", DbName: "catalog"},
//	})
//	if err != nil {
//		return err
//	}
//	if err := store.Migrate(ctx, pgstore.Collections(registry.Default())...); err != nil {
//		return err
//	}
//	compiler := docstore.NewCompiler(registry.Default(), store, docstore.Config{})
package pgstore
