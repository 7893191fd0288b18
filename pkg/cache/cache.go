// Package cache stores frame snapshots and other opaque blobs.
//
// [Cache] is a small byte-oriented key/value interface with TTLs. Backends:
//
//   - [FileCache]: one JSON file per key under a directory (CLI default)
//   - [RedisCache]: a Redis server, for sharing snapshots between processes
//   - [MongoCache]: a MongoDB collection with expiry timestamps
//   - [NullCache]: stores nothing
//
// Keys are produced by a [Keyer] so every backend sees the same layout, and
// a [ScopedKeyer] can prefix them per tenant or per scene set.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. A zero ttl means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NullCache stores nothing; every Get misses. It backs `--store null`.
type NullCache struct{}

var _ Cache = (*NullCache)(nil)

// NewNullCache returns a cache that discards writes.
func NewNullCache() Cache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error                     { return nil }
func (*NullCache) Close() error                                             { return nil }
