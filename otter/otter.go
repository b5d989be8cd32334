// Package otter provides a bounded in-memory netkit.ResponseCache backed by
// the Otter cache library.
package otter

import (
	"context"
	"errors"
	"time"

	"github.com/maypok86/otter"

	"github.com/byte4ever/netkit"
)

// Cache stores responses in an Otter cache with per-entry TTL.
type Cache struct {
	cache otter.CacheWithVariableTTL[string, netkit.CachedResponse]
}

var _ netkit.ResponseCache = (*Cache)(nil)

// ErrInvalidMaxSize is returned by [New] when MaxSize is not positive.
var ErrInvalidMaxSize = errors.New("netkit/otter: max size must be positive")

// New returns a cache holding at most cfg.MaxSize responses.
func New(cfg netkit.CacheConfig) (*Cache, error) {
	if cfg.MaxSize <= 0 {
		return nil, ErrInvalidMaxSize
	}

	cache, err := otter.MustBuilder[string, netkit.CachedResponse](cfg.MaxSize).
		WithVariableTTL().
		Build()
	if err != nil {
		return nil, err
	}

	return &Cache{cache: cache}, nil
}

// MustNew is [New] that panics if the cache cannot be built.
func MustNew(cfg netkit.CacheConfig) *Cache {
	c, err := New(cfg)
	if err != nil {
		panic("netkit/otter: failed to build cache: " + err.Error())
	}

	return c
}

// Get implements [netkit.ResponseCache].
func (c *Cache) Get(_ context.Context, key string) (netkit.CachedResponse, bool, error) {
	entry, ok := c.cache.Get(key)
	return entry, ok, nil
}

// Set implements [netkit.ResponseCache].
func (c *Cache) Set(_ context.Context, key string, entry netkit.CachedResponse, ttl time.Duration) error {
	c.cache.Set(key, entry, ttl)
	return nil
}

// Delete implements [netkit.ResponseCache].
func (c *Cache) Delete(_ context.Context, key string) error {
	c.cache.Delete(key)
	return nil
}

// Close releases the cache's background resources.
func (c *Cache) Close() error {
	c.cache.Close()
	return nil
}
