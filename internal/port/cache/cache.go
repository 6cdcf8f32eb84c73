// Package cache defines the port interface for caching.
package cache

import (
	"context"
	"time"
)

// Cache is the port interface for key-value caching.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Stats counts lookups by the level that answered them.
type Stats struct {
	L1Hits int64
	L2Hits int64
	Misses int64
}

// StatsSource is implemented by caches that count their lookups.
type StatsSource interface {
	Stats() Stats
}
