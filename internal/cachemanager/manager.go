// Package cachemanager provides the in-process caches used in front of the
// repository store.
package cachemanager

import (
	"context"
	"time"
)

// DefaultExpiration is the TTL applied when a caller passes zero.
const DefaultExpiration = 10 * time.Minute

// DefaultCleanupInterval is how often expired entries are purged.
const DefaultCleanupInterval = 30 * time.Minute

// CacheManager is a keyed cache with per-entry TTLs.
type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}
