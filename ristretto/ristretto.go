// Package ristretto provides a bounded in-memory netkit.ResponseCache backed
// by the Ristretto cache library.
package ristretto

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/byte4ever/netkit"
)

// Cache stores responses in a Ristretto cache. Every entry costs 1, so
// MaxSize bounds the entry count.
type Cache struct {
	cache *ristretto.Cache[string, netkit.CachedResponse]
}

var _ netkit.ResponseCache = (*Cache)(nil)

// New returns a cache holding roughly cfg.MaxSize responses.
// Ristretto recommends NumCounters = 10 * MaxSize.
func New(cfg netkit.CacheConfig) (*Cache, error) {
	//nolint:mnd // ristretto's recommended counters ratio and buffer size
	cache, err := ristretto.NewCache(&ristretto.Config[string, netkit.CachedResponse]{
		NumCounters: int64(cfg.MaxSize) * 10,
		MaxCost:     int64(cfg.MaxSize),
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &Cache{cache: cache}, nil
}

// MustNew is [New] that panics if the cache cannot be built.
func MustNew(cfg netkit.CacheConfig) *Cache {
	c, err := New(cfg)
	if err != nil {
		panic("netkit/ristretto: failed to build cache: " + err.Error())
	}

	return c
}

// Get implements [netkit.ResponseCache].
func (c *Cache) Get(_ context.Context, key string) (netkit.CachedResponse, bool, error) {
	entry, ok := c.cache.Get(key)
	return entry, ok, nil
}

// Set implements [netkit.ResponseCache]. The write is flushed before Set
// returns, so a following Get observes it unless admission rejected it.
func (c *Cache) Set(_ context.Context, key string, entry netkit.CachedResponse, ttl time.Duration) error {
	c.cache.SetWithTTL(key, entry, 1, ttl)
	c.cache.Wait()

	return nil
}

// Delete implements [netkit.ResponseCache].
func (c *Cache) Delete(_ context.Context, key string) error {
	c.cache.Del(key)
	return nil
}

// Close stops the cache's background goroutines.
func (c *Cache) Close() error {
	c.cache.Close()
	return nil
}
