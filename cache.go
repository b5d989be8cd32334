package netkit

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"slices"
	"time"

	json "github.com/goccy/go-json"
)

type (
	// ResponseCache stores raw responses keyed by [WireRequest.CacheKey].
	// Adapters expire entries after the TTL passed to Set.
	ResponseCache interface {
		// Get returns the entry for key and whether it was found.
		Get(ctx context.Context, key string) (CachedResponse, bool, error)
		// Set stores entry under key for ttl.
		Set(ctx context.Context, key string, entry CachedResponse, ttl time.Duration) error
		// Delete removes the entry for key. Deleting a missing key is not an
		// error.
		Delete(ctx context.Context, key string) error
	}

	// CachedResponse is a stored 2xx response together with the validators
	// used to revalidate it.
	CachedResponse struct {
		StoredAt     time.Time   `json:"stored_at"`
		Header       http.Header `json:"header,omitempty"`
		ETag         string      `json:"etag,omitempty"`
		LastModified string      `json:"last_modified,omitempty"`
		Body         []byte      `json:"body"`
		StatusCode   int         `json:"status_code"`
	}

	// CacheConfig holds configuration for a response cache instance.
	CacheConfig struct {
		// Options holds adapter-specific settings (e.g. "addr" for redis).
		Options map[string]any
		// TTL is the time-to-live for cached responses.
		TTL time.Duration
		// MaxSize is the maximum number of entries for in-memory adapters.
		MaxSize int
	}

	cacheConfigFile struct {
		Caches map[string]cacheConfigJSON `json:"caches"`
	}

	cacheConfigJSON struct {
		Options map[string]any `json:"options,omitempty"`
		TTL     string         `json:"ttl"`
		MaxSize int            `json:"max_size"`
	}
)

// NewCachedResponse captures resp at now.
func NewCachedResponse(resp *Response, now time.Time) CachedResponse {
	return CachedResponse{
		StatusCode:   resp.StatusCode,
		Header:       resp.Header.Clone(),
		Body:         slices.Clone(resp.Body),
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		StoredAt:     now,
	}
}

// Response rebuilds the transport response from the entry. The body is a
// copy; in-memory adapters hand out the stored slice.
func (c CachedResponse) Response() *Response {
	return &Response{
		StatusCode: c.StatusCode,
		Header:     c.Header.Clone(),
		Body:       slices.Clone(c.Body),
	}
}

// HasValidators reports whether the entry can be revalidated with a
// conditional request.
func (c CachedResponse) HasValidators() bool {
	return c.ETag != "" || c.LastModified != ""
}

// NoCache is a [ResponseCache] that stores nothing.
type NoCache struct{}

// Get always misses.
func (NoCache) Get(context.Context, string) (CachedResponse, bool, error) {
	return CachedResponse{}, false, nil
}

// Set discards the entry.
func (NoCache) Set(context.Context, string, CachedResponse, time.Duration) error {
	return nil
}

// Delete does nothing.
func (NoCache) Delete(context.Context, string) error { return nil }

// LoadCacheConfig reads a JSON configuration file and returns the
// CacheConfig for the named cache entry:
//
//	{"caches": {"tmdb": {"ttl": "5m", "max_size": 1000}}}
func LoadCacheConfig(path, name string) (CacheConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CacheConfig{}, fmt.Errorf("netkit: read cache config: %w", err)
	}

	var cfg cacheConfigFile

	if err = json.Unmarshal(data, &cfg); err != nil {
		return CacheConfig{}, fmt.Errorf("netkit: parse cache config: %w", err)
	}

	raw, ok := cfg.Caches[name]
	if !ok {
		return CacheConfig{}, fmt.Errorf(
			"netkit: cache %q not found in config",
			name,
		)
	}

	cc := CacheConfig{
		Options: raw.Options,
		MaxSize: raw.MaxSize,
	}

	if raw.TTL != "" {
		ttl, ttlErr := time.ParseDuration(raw.TTL)
		if ttlErr != nil {
			return CacheConfig{}, fmt.Errorf(
				"netkit: cache %q: ttl: %w",
				name,
				ttlErr,
			)
		}

		cc.TTL = ttl
	}

	return cc, nil
}
