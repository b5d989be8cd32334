// Package redis provides a shared netkit.ResponseCache backed by Redis, for
// deployments where several processes should reuse each other's responses.
//
// Entries are stored as JSON under "<prefix><cache key>" with the TTL
// handed to Set, so expiry is enforced by Redis itself.
//
//	c, err := redis.New(ctx, redis.Config{Addr: "localhost:6379"})
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	tr := netkit.NewCachingTransport(httpx.NewTransport(nil), c, 5*time.Minute)
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"

	"github.com/byte4ever/netkit"
)

// DefaultPrefix namespaces keys written by [Cache].
const DefaultPrefix = "netkit:response:"

// Config configures the Redis connection.
type Config struct {
	Addr     string
	Password string
	Prefix   string
	DB       int
}

// ConfigFromCacheConfig reads the "addr", "password", "db" and "prefix"
// options of cfg.
func ConfigFromCacheConfig(cfg netkit.CacheConfig) (Config, error) {
	var out Config

	for key, raw := range cfg.Options {
		switch key {
		case "addr", "password", "prefix":
			s, ok := raw.(string)
			if !ok {
				return Config{}, fmt.Errorf("netkit/redis: option %q: want string, got %T", key, raw)
			}

			switch key {
			case "addr":
				out.Addr = s
			case "password":
				out.Password = s
			default:
				out.Prefix = s
			}
		case "db":
			n, ok := raw.(float64)
			if !ok {
				return Config{}, fmt.Errorf("netkit/redis: option %q: want number, got %T", key, raw)
			}

			out.DB = int(n)
		}
	}

	return out, nil
}

// Cache is a [netkit.ResponseCache] stored in Redis.
type Cache struct {
	client goredis.UniversalClient
	prefix string
	owned  bool
}

var _ netkit.ResponseCache = (*Cache)(nil)

// New connects to Redis and verifies the connection with a PING.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("netkit/redis: ping %s: %w", cfg.Addr, err)
	}

	c := NewFromClient(client, cfg.Prefix)
	c.owned = true

	return c, nil
}

// NewFromClient wraps an existing client. The caller keeps ownership of the
// client; Close does not close it. An empty prefix means [DefaultPrefix].
func NewFromClient(client goredis.UniversalClient, prefix string) *Cache {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return &Cache{client: client, prefix: prefix}
}

// Get implements [netkit.ResponseCache].
func (c *Cache) Get(ctx context.Context, key string) (netkit.CachedResponse, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return netkit.CachedResponse{}, false, nil
	}

	if err != nil {
		return netkit.CachedResponse{}, false, fmt.Errorf("netkit/redis: get: %w", err)
	}

	var entry netkit.CachedResponse
	if err = json.Unmarshal(data, &entry); err != nil {
		return netkit.CachedResponse{}, false, fmt.Errorf("netkit/redis: decode entry: %w", err)
	}

	return entry, true, nil
}

// Set implements [netkit.ResponseCache]. A non-positive ttl stores the
// entry without expiry.
func (c *Cache) Set(ctx context.Context, key string, entry netkit.CachedResponse, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("netkit/redis: encode entry: %w", err)
	}

	if err = c.client.Set(ctx, c.prefix+key, data, max(ttl, 0)).Err(); err != nil {
		return fmt.Errorf("netkit/redis: set: %w", err)
	}

	return nil
}

// Delete implements [netkit.ResponseCache].
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("netkit/redis: delete: %w", err)
	}

	return nil
}

// Close closes the connection when it was opened by [New].
func (c *Cache) Close() error {
	if !c.owned {
		return nil
	}

	return c.client.Close()
}
