package netkit

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"
)

// memCache is a map-backed ResponseCache that ignores TTLs.
type memCache struct {
	entries map[string]CachedResponse
	getErr  error
	mu      sync.Mutex
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]CachedResponse)}
}

func (m *memCache) Get(_ context.Context, key string) (CachedResponse, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return CachedResponse{}, false, m.getErr
	}

	e, ok := m.entries[key]

	return e, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, e CachedResponse, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = e

	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)

	return nil
}

func (m *memCache) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}

func withETag(code int, body, etag string) outcome {
	h := http.Header{}
	h.Set("ETag", etag)

	return outcome{resp: &Response{StatusCode: code, Body: []byte(body), Header: h}}
}

func mustBuild(t *testing.T, e Endpoint) *WireRequest {
	t.Helper()

	req, err := BuildRequest(e)
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}

	return req
}

func TestCachingTransportProtocolHit(t *testing.T) {
	clk := newImmediateTestClock()
	origin := &scriptedTransport{script: []outcome{withETag(200, `{"v":1}`, `"1"`)}}

	var hitAge time.Duration

	hooks := &Hooks{OnCacheHit: func(_ string, age time.Duration) { hitAge = age }}
	ct := NewCachingTransport(origin, newMemCache(), time.Minute, WithCacheClock(clk), WithCacheHooks(hooks))
	req := mustBuild(t, testRoute)

	if _, err := ct.Execute(context.Background(), req); err != nil {
		t.Fatalf("first Execute: %v", err)
	}

	clk.advance(10 * time.Second)

	resp, err := ct.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}

	if string(resp.Body) != `{"v":1}` {
		t.Fatalf("body = %s", resp.Body)
	}
	if origin.calls() != 1 {
		t.Fatalf("origin calls = %d, want 1", origin.calls())
	}
	if hitAge != 10*time.Second {
		t.Fatalf("hit age = %v, want 10s", hitAge)
	}
}

func TestCachingTransportRevalidateNotModified(t *testing.T) {
	clk := newImmediateTestClock()
	origin := &scriptedTransport{script: []outcome{
		withETag(200, `{"v":1}`, `"1"`),
		status(http.StatusNotModified, ""),
	}}
	cache := newMemCache()

	revalidated := 0
	hooks := &Hooks{OnRevalidated: func(string) { revalidated++ }}

	ct := NewCachingTransport(origin, cache, time.Minute, WithCacheClock(clk), WithCacheHooks(hooks))

	route := testRoute
	route.Cache = ReloadRevalidatingCache
	req := mustBuild(t, route)

	if _, err := ct.Execute(context.Background(), req); err != nil {
		t.Fatalf("first Execute: %v", err)
	}

	clk.advance(time.Minute)

	resp, err := ct.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}

	if resp.StatusCode != 200 || string(resp.Body) != `{"v":1}` {
		t.Fatalf("resp = %d %s, want cached 200", resp.StatusCode, resp.Body)
	}
	if revalidated != 1 {
		t.Fatalf("revalidated = %d, want 1", revalidated)
	}

	cond := origin.requests[1]
	if cond.Header.Get("If-None-Match") != `"1"` {
		t.Fatalf("If-None-Match = %q", cond.Header.Get("If-None-Match"))
	}
	if req.Header.Get("If-None-Match") != "" {
		t.Fatal("conditional header leaked into the caller's request")
	}

	entry, _, _ := cache.Get(context.Background(), req.CacheKey())
	if !entry.StoredAt.Equal(clk.Now()) {
		t.Fatalf("StoredAt = %v, want refreshed", entry.StoredAt)
	}
}

func TestCachingTransportRevalidateChanged(t *testing.T) {
	origin := &scriptedTransport{script: []outcome{
		withETag(200, `{"v":1}`, `"1"`),
		withETag(200, `{"v":2}`, `"2"`),
		status(http.StatusNotModified, ""),
	}}

	ct := NewCachingTransport(origin, newMemCache(), time.Minute)

	route := testRoute
	route.Cache = ReloadRevalidatingCache
	req := mustBuild(t, route)

	for _, want := range []string{`{"v":1}`, `{"v":2}`, `{"v":2}`} {
		resp, err := ct.Execute(context.Background(), req)
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}

		if string(resp.Body) != want {
			t.Fatalf("body = %s, want %s", resp.Body, want)
		}
	}

	if got := origin.requests[2].Header.Get("If-None-Match"); got != `"2"` {
		t.Fatalf("If-None-Match = %q, want the newer tag", got)
	}
}

func TestCachingTransportIgnoreLocalBypasses(t *testing.T) {
	origin := &scriptedTransport{script: []outcome{status(200, `{"v":1}`), status(200, `{"v":2}`)}}
	cache := newMemCache()

	var bypassed []CachePolicy

	hooks := &Hooks{OnCacheBypass: func(_ string, p CachePolicy) { bypassed = append(bypassed, p) }}
	ct := NewCachingTransport(origin, cache, time.Minute, WithCacheHooks(hooks))

	route := testRoute
	route.Cache = ReloadIgnoringLocalCache
	req := mustBuild(t, route)

	for range 2 {
		if _, err := ct.Execute(context.Background(), req); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	}

	if origin.calls() != 2 {
		t.Fatalf("origin calls = %d, want 2", origin.calls())
	}
	if len(bypassed) != 2 || bypassed[0] != ReloadIgnoringLocalCache {
		t.Fatalf("bypassed = %v", bypassed)
	}

	entry, ok, _ := cache.Get(context.Background(), req.CacheKey())
	if !ok || string(entry.Body) != `{"v":2}` {
		t.Fatal("fresh response was not stored")
	}
}

func TestCachingTransportNonGETNotCached(t *testing.T) {
	origin := &scriptedTransport{script: []outcome{status(201, `{}`)}}
	cache := newMemCache()
	ct := NewCachingTransport(origin, cache, time.Minute)

	req := mustBuild(t, Route{Base: testRoute.Base, Target: "/lists", Verb: MethodPost, Params: map[string]int{"a": 1}})

	for range 2 {
		if _, err := ct.Execute(context.Background(), req); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	}

	if origin.calls() != 2 || cache.len() != 0 {
		t.Fatalf("calls = %d, entries = %d", origin.calls(), cache.len())
	}
}

func TestCachingTransportErrorStatusNotStored(t *testing.T) {
	origin := &scriptedTransport{script: []outcome{status(503, ""), status(200, `{}`)}}
	cache := newMemCache()
	ct := NewCachingTransport(origin, cache, time.Minute)
	req := mustBuild(t, testRoute)

	resp, err := ct.Execute(context.Background(), req)
	if err != nil || resp.StatusCode != 503 {
		t.Fatalf("Execute = %v, %v", resp, err)
	}

	if cache.len() != 0 {
		t.Fatal("503 was stored")
	}

	if _, err = ct.Execute(context.Background(), req); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if origin.calls() != 2 || cache.len() != 1 {
		t.Fatalf("calls = %d, entries = %d", origin.calls(), cache.len())
	}
}

func TestCachingTransportCacheErrorDegrades(t *testing.T) {
	origin := &scriptedTransport{script: []outcome{status(200, `{}`)}}
	cache := newMemCache()
	cache.getErr = errors.New("backend down")

	missed := 0
	hooks := &Hooks{OnCacheMiss: func(string) { missed++ }}
	ct := NewCachingTransport(origin, cache, time.Minute, WithCacheHooks(hooks))

	if _, err := ct.Execute(context.Background(), mustBuild(t, testRoute)); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if origin.calls() != 1 || missed != 1 {
		t.Fatalf("calls = %d, missed = %d", origin.calls(), missed)
	}
}

func TestCachingTransportServeStaleOnError(t *testing.T) {
	clk := newImmediateTestClock()
	lost := &TransportError{Kind: TransportConnectionLost}
	origin := &scriptedTransport{script: []outcome{withETag(200, `{"v":1}`, `"1"`), failure(lost)}}

	var staleAge time.Duration

	hooks := &Hooks{OnStaleServed: func(_ string, age time.Duration) { staleAge = age }}

	route := testRoute
	route.Cache = ReloadRevalidatingCache
	req := mustBuild(t, route)

	stale := NewCachingTransport(origin, newMemCache(), time.Minute,
		WithCacheClock(clk), WithCacheHooks(hooks), WithServeStaleOnError())

	if _, err := stale.Execute(context.Background(), req); err != nil {
		t.Fatalf("first Execute: %v", err)
	}

	clk.advance(3 * time.Second)

	resp, err := stale.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("stale Execute: %v", err)
	}

	if string(resp.Body) != `{"v":1}` || staleAge != 3*time.Second {
		t.Fatalf("body = %s, age = %v", resp.Body, staleAge)
	}

	strict := &scriptedTransport{script: []outcome{withETag(200, `{"v":1}`, `"1"`), failure(lost)}}
	ct := NewCachingTransport(strict, newMemCache(), time.Minute)

	_, _ = ct.Execute(context.Background(), req)

	if _, err = ct.Execute(context.Background(), req); !errors.Is(err, lost) {
		t.Fatalf("err = %v, want transport error", err)
	}
}

func TestCachingTransportInvalidate(t *testing.T) {
	origin := &scriptedTransport{script: []outcome{status(200, `{}`)}}
	cache := newMemCache()
	ct := NewCachingTransport(origin, cache, time.Minute)

	a := mustBuild(t, testRoute)
	b := mustBuild(t, Route{Base: testRoute.Base, Target: "/other"})

	_, _ = ct.Execute(context.Background(), a)
	_, _ = ct.Execute(context.Background(), b)

	if err := ct.InvalidateCachedResponse(context.Background(), a); err != nil {
		t.Fatalf("InvalidateCachedResponse: %v", err)
	}

	if _, ok, _ := cache.Get(context.Background(), a.CacheKey()); ok {
		t.Fatal("entry for a survived invalidation")
	}
	if _, ok, _ := cache.Get(context.Background(), b.CacheKey()); !ok {
		t.Fatal("entry for b was dropped")
	}
	if origin.invalidated != 1 {
		t.Fatalf("forwarded invalidations = %d, want 1", origin.invalidated)
	}
}

func TestClientThroughCachingTransport(t *testing.T) {
	origin := &scriptedTransport{script: []outcome{status(200, `{"title":"Alien"}`)}}
	c := NewClient(NewCachingTransport(origin, newMemCache(), time.Minute))

	for range 3 {
		got, err := Fetch[film](context.Background(), c, testRoute)
		if err != nil || got.Title != "Alien" {
			t.Fatalf("Fetch = %+v, %v", got, err)
		}
	}

	if origin.calls() != 1 {
		t.Fatalf("origin calls = %d, want 1", origin.calls())
	}

	forced := testRoute
	forced.Cache = ReloadIgnoringLocalCache

	if _, err := Fetch[film](context.Background(), c, forced); err != nil {
		t.Fatalf("forced Fetch: %v", err)
	}

	if origin.calls() != 2 || origin.invalidated != 1 {
		t.Fatalf("calls = %d, invalidated = %d", origin.calls(), origin.invalidated)
	}
}

func TestNewCachingTransportNilCache(t *testing.T) {
	origin := &scriptedTransport{script: []outcome{status(200, `{}`)}}
	ct := NewCachingTransport(origin, nil, time.Minute, WithCacheHooks(nil))
	req := mustBuild(t, testRoute)

	for range 2 {
		if _, err := ct.Execute(context.Background(), req); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	}

	if origin.calls() != 2 {
		t.Fatalf("origin calls = %d, want 2", origin.calls())
	}
}

func TestCachingTransportServedBodyDoesNotAliasEntry(t *testing.T) {
	origin := &scriptedTransport{script: []outcome{status(200, `{"v":1}`)}}
	ct := NewCachingTransport(origin, newMemCache(), time.Minute)
	req := mustBuild(t, testRoute)

	first, err := ct.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}

	first.Body[5] = '9'

	hit, err := ct.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}

	hit.Body[5] = '8'

	again, err := ct.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("third Execute: %v", err)
	}

	if string(again.Body) != `{"v":1}` {
		t.Fatalf("cached body = %s, want untouched", again.Body)
	}
}

func TestCachingTransportKeysByCredentials(t *testing.T) {
	origin := &scriptedTransport{script: []outcome{status(200, `{"owner":"alice"}`), status(401, "")}}
	ct := NewCachingTransport(origin, newMemCache(), time.Minute)

	alice := testRoute
	alice.Header = map[string]string{"Authorization": "Bearer alice"}

	mallory := testRoute
	mallory.Header = map[string]string{"Authorization": "Bearer mallory"}

	if _, err := ct.Execute(context.Background(), mustBuild(t, alice)); err != nil {
		t.Fatalf("alice Execute: %v", err)
	}

	resp, err := ct.Execute(context.Background(), mustBuild(t, mallory))
	if err != nil {
		t.Fatalf("mallory Execute: %v", err)
	}

	if resp.StatusCode != 401 || origin.calls() != 2 {
		t.Fatalf("status = %d, calls = %d, want 401 from the origin", resp.StatusCode, origin.calls())
	}
}
