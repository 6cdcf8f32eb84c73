// Package tiered caches run records at two levels: an in-process L1 and a
// remote L2 shared by every replica.
package tiered

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Strob0t/TripCrew/internal/port/cache"
)

// Cache reads L1 first and falls through to L2, copying L2 hits into L1.
// L2 is advisory: its failures are logged and treated as misses, because a
// missed run page is served from the run store instead.
type Cache struct {
	l1          cache.Cache
	l2          cache.Cache
	backfillTTL time.Duration

	l1Hits, l2Hits, misses atomic.Int64
}

var _ cache.StatsSource = (*Cache)(nil)

// New creates a tiered cache. backfillTTL bounds how long an entry copied
// from L2 stays in L1.
func New(l1, l2 cache.Cache, backfillTTL time.Duration) *Cache {
	return &Cache{l1: l1, l2: l2, backfillTTL: backfillTTL}
}

func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	val, found, err := c.l1.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if found {
		c.l1Hits.Add(1)
		return val, true, nil
	}

	val, found, err = c.l2.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "l2 cache get failed", "key", key, "error", err)
		found = false
	}
	if !found {
		c.misses.Add(1)
		return nil, false, nil
	}
	c.l2Hits.Add(1)
	_ = c.l1.Set(ctx, key, val, c.backfillTTL)
	return val, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.l1.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if err := c.l2.Set(ctx, key, value, ttl); err != nil {
		slog.WarnContext(ctx, "l2 cache set failed", "key", key, "error", err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.l1.Delete(ctx, key); err != nil {
		return err
	}
	if err := c.l2.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "l2 cache delete failed", "key", key, "error", err)
	}
	return nil
}

// Stats returns the lookup counts since New.
func (c *Cache) Stats() cache.Stats {
	return cache.Stats{L1Hits: c.l1Hits.Load(), L2Hits: c.l2Hits.Load(), Misses: c.misses.Load()}
}
