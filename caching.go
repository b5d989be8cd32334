package netkit

import (
	"context"
	"net/http"
	"time"
)

// CachingTransport decorates a [Transport] with a [ResponseCache]. Only GET
// requests are cached. The request's [CachePolicy] selects the behaviour:
//
//   - UseProtocolCachePolicy serves a cached entry without contacting the
//     origin.
//   - ReloadRevalidatingCache sends a conditional request built from the
//     entry's validators and serves the cached body on 304 Not Modified.
//   - ReloadIgnoringLocalCache always goes to the origin.
//
// Every 2xx GET response is stored. Cache failures degrade to a plain
// network call.
type CachingTransport struct {
	next       Transport
	cache      ResponseCache
	clock      Clock
	hooks      *Hooks
	ttl        time.Duration
	serveStale bool
}

var _ Transport = (*CachingTransport)(nil)

// CachingOption configures a [CachingTransport].
type CachingOption func(*CachingTransport)

// WithCacheClock sets the clock used to stamp and age entries.
func WithCacheClock(clk Clock) CachingOption {
	return func(t *CachingTransport) {
		t.clock = clk
	}
}

// WithCacheHooks registers cache lifecycle callbacks.
func WithCacheHooks(h *Hooks) CachingOption {
	return func(t *CachingTransport) {
		t.hooks = h
	}
}

// WithServeStaleOnError answers a failed GET from the cache when an entry
// exists. The failure is hidden from the caller, so the retry loop never
// sees it.
func WithServeStaleOnError() CachingOption {
	return func(t *CachingTransport) {
		t.serveStale = true
	}
}

// NewCachingTransport wraps next. Entries live for ttl.
func NewCachingTransport(
	next Transport,
	cache ResponseCache,
	ttl time.Duration,
	opts ...CachingOption,
) *CachingTransport {
	t := &CachingTransport{
		next:  next,
		cache: cache,
		ttl:   ttl,
		clock: RealClock{},
		hooks: &Hooks{},
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.cache == nil {
		t.cache = NoCache{}
	}

	if t.hooks == nil {
		t.hooks = &Hooks{}
	}

	return t
}

// Execute implements [Transport].
func (t *CachingTransport) Execute(ctx context.Context, req *WireRequest) (*Response, error) {
	key := req.CacheKey()

	if req.Method != MethodGet || req.CachePolicy == ReloadIgnoringLocalCache {
		t.hooks.emitCacheBypass(key, req.CachePolicy)

		return t.fetch(ctx, key, req)
	}

	entry, ok, err := t.cache.Get(ctx, key)
	if err != nil || !ok {
		t.hooks.emitCacheMiss(key)

		return t.fetch(ctx, key, req)
	}

	if req.CachePolicy == UseProtocolCachePolicy {
		t.hooks.emitCacheHit(key, t.clock.Since(entry.StoredAt))

		return entry.Response(), nil
	}

	return t.revalidate(ctx, key, req, entry)
}

// InvalidateCachedResponse implements [Transport]. It removes exactly req's
// entry and forwards the call to the wrapped transport.
func (t *CachingTransport) InvalidateCachedResponse(ctx context.Context, req *WireRequest) error {
	if err := t.cache.Delete(ctx, req.CacheKey()); err != nil {
		return err
	}

	return t.next.InvalidateCachedResponse(ctx, req)
}

func (t *CachingTransport) fetch(ctx context.Context, key string, req *WireRequest) (*Response, error) {
	resp, err := t.next.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	t.store(ctx, key, req, resp)

	return resp, nil
}

func (t *CachingTransport) revalidate(
	ctx context.Context,
	key string,
	req *WireRequest,
	entry CachedResponse,
) (*Response, error) {
	cond := req.clone()

	if entry.ETag != "" {
		cond.Header.Set("If-None-Match", entry.ETag)
	}

	if entry.LastModified != "" {
		cond.Header.Set("If-Modified-Since", entry.LastModified)
	}

	resp, err := t.next.Execute(ctx, cond)
	if err != nil {
		if t.serveStale && ctx.Err() == nil {
			t.hooks.emitStaleServed(key, t.clock.Since(entry.StoredAt))

			return entry.Response(), nil
		}

		return nil, err
	}

	if resp.StatusCode == http.StatusNotModified {
		t.hooks.emitRevalidated(key)

		entry.StoredAt = t.clock.Now()
		_ = t.cache.Set(ctx, key, entry, t.ttl)

		return entry.Response(), nil
	}

	t.store(ctx, key, req, resp)

	return resp, nil
}

func (t *CachingTransport) store(ctx context.Context, key string, req *WireRequest, resp *Response) {
	if req.Method != MethodGet || resp.StatusCode < 200 || resp.StatusCode > 299 {
		return
	}

	_ = t.cache.Set(ctx, key, NewCachedResponse(resp, t.clock.Now()), t.ttl)
}
