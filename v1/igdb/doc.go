// Package igdb compiles normalized filter requests into the text query
// language of the IGDB game database and executes them over HTTP.
//
// The Compiler renders a filter.Request as a Query:
//
//	fields id,name,slug; where slug = ("zelda","zelda--1") & version_parent = null; limit 10; offset 0; sort id desc;
//
// Titles are matched through their slug with numbered disambiguation
// variants, platform IDs are translated through a Platforms table, and
// requests without a platform filter are scoped to an allow-list. Filters
// the service cannot express (relations, nin, local-only fields) fail with
// queryerr.ErrUnsupportedFilter.
//
// The Client authenticates with the OAuth2 client-credentials grant and
// posts queries; the Searcher ties both together and maps result records
// back onto local field names:
//
//	platforms, _ := igdb.LoadPlatformTable(ctx, reg, store)
//	client, err := igdb.NewClient(cfg)
//	searcher := igdb.NewSearcher(igdb.NewCompiler(platforms, cfg), client, platforms)
//	docs, err := searcher.Search(ctx, req, igdb.PageWindow(req))
package igdb
