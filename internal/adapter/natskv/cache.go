// Package natskv keeps run records in a NATS JetStream KV bucket, the L2
// level of the run cache, so a result page resolves on any replica sharing
// the NATS server.
package natskv

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Cache stores run records under their KV key. Records never change once
// written, so the first write wins and later ones are no-ops. Expiry is the
// bucket's TTL.
type Cache struct {
	kv jetstream.KeyValue
}

// New wraps a bucket opened with nats.Queue.KeyValue.
func New(kv jetstream.KeyValue) *Cache {
	return &Cache{kv: kv}
}

func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	entry, err := c.kv.Get(ctx, kvKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entry.Value(), true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	_, err := c.kv.Create(ctx, kvKey(key), value)
	if errors.Is(err, jetstream.ErrKeyExists) {
		return nil
	}
	return err
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, kvKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}

// kvKey maps "run:<id>" onto the KV key alphabet, which has no ':'.
func kvKey(key string) string {
	return strings.ReplaceAll(key, ":", ".")
}
