// Package redis caches external catalog responses in Redis.
//
// The external search service is rate limited and slow compared to the
// local store, while the same compiled queries recur often (popular titles,
// padding pages of local-first requests). CachedExecutor sits between the
// igdb.Searcher and the HTTP client and stores each response under a key
// derived from the endpoint and a SHA-256 of the query text:
//
//	querykit:igdb:games:3f0a...
//
// Entries expire after Config.TTL. Errors from the service are never
// cached, and a failing Redis is logged and bypassed.
//
// Basic usage:
//
//	client, err := redis.NewClient(redis.Config{Host: "localhost", TTL: 5 * time.Minute})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	executor := redis.NewCachedExecutor(igdbClient, client)
//	searcher := igdb.NewSearcher(compiler, executor, platforms)
//
// With fx, provide a redis.Config and register the decorator at the top
// level of the application:
//
//	app := fx.New(
//	    igdb.FXModule,
//	    redis.FXModule,
//	    fx.Decorate(redis.DecorateExecutor),
//	    fx.Supply(igdbConfig, redisConfig),
//	)
//
// Cache reads and writes are reported to the observability.Observer with
// Component "redis", Operation "get" or "set" and a "hit" metadata entry.
package redis
