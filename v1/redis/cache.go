package redis

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Aleph-Alpha/querykit/v1/igdb"
	"github.com/Aleph-Alpha/querykit/v1/observability"
)

// kv is the part of the go-redis API the cache needs.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedExecutor is an igdb.Executor that answers repeated external queries
// from Redis. Failed requests are not cached. A cache that cannot be read or
// written is bypassed, so Redis outages only cost latency.
type CachedExecutor struct {
	next     igdb.Executor
	store    kv
	prefix   string
	ttl      time.Duration
	logger   Logger
	observer observability.Observer
}

// NewCachedExecutor wraps next with the cache of c.
func NewCachedExecutor(next igdb.Executor, c *Client) *CachedExecutor {
	e := newCachedExecutor(next, c.client, c.cfg)
	e.logger, e.observer = c.logger, c.observer
	return e
}

func newCachedExecutor(next igdb.Executor, store kv, cfg Config) *CachedExecutor {
	cfg = cfg.withDefaults()
	return &CachedExecutor{next: next, store: store, prefix: cfg.KeyPrefix, ttl: cfg.TTL}
}

// Execute returns the cached records of (endpoint, query) or runs the query
// and caches its records.
func (e *CachedExecutor) Execute(ctx context.Context, endpoint, query string) ([]igdb.Record, error) {
	key := cacheKey(e.prefix, endpoint, query)

	start := time.Now()
	raw, err := e.store.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		records, decErr := decodeRecords(raw)
		if decErr == nil {
			e.observeOperation("get", endpoint, time.Since(start), nil, int64(len(records)), true)
			return records, nil
		}
		e.warn("dropping undecodable cache entry", decErr, key)
	case errors.Is(err, redis.Nil):
		e.observeOperation("get", endpoint, time.Since(start), nil, 0, false)
	default:
		e.observeOperation("get", endpoint, time.Since(start), err, 0, false)
		e.warn("cache read failed", err, key)
	}

	records, err := e.next.Execute(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}
	e.put(ctx, key, endpoint, records)
	return records, nil
}

func (e *CachedExecutor) put(ctx context.Context, key, endpoint string, records []igdb.Record) {
	data, err := json.Marshal(records)
	if err != nil {
		e.warn("cannot encode records for the cache", err, key)
		return
	}

	start := time.Now()
	err = e.store.Set(ctx, key, data, e.ttl).Err()
	e.observeOperation("set", endpoint, time.Since(start), err, int64(len(records)), false)
	if err != nil {
		e.warn("cache write failed", err, key)
	} else if e.logger != nil {
		e.logger.Debug("cached external response", nil, map[string]interface{}{
			"key":     key,
			"records": len(records),
			"ttl":     e.ttl.String(),
		})
	}
}

// cacheKey hashes the query so keys stay short and free of spaces.
func cacheKey(prefix, endpoint, query string) string {
	sum := sha256.Sum256([]byte(query))
	return prefix + endpoint + ":" + hex.EncodeToString(sum[:])
}

// decodeRecords keeps numbers as json.Number, like the HTTP client does.
func decodeRecords(raw []byte) ([]igdb.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var records []igdb.Record
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

func (e *CachedExecutor) warn(msg string, err error, key string) {
	if e.logger != nil {
		e.logger.Warn(msg, err, map[string]interface{}{"key": key})
	}
}

func (e *CachedExecutor) observeOperation(operation, endpoint string, duration time.Duration, err error, size int64, hit bool) {
	if e.observer == nil {
		return
	}
	e.observer.ObserveOperation(observability.OperationContext{
		Component: "redis",
		Operation: operation,
		Resource:  endpoint,
		Duration:  duration,
		Error:     err,
		Size:      size,
		Metadata:  map[string]string{"hit": strconv.FormatBool(hit)},
	})
}
