package netkit

import "time"

// Hooks holds optional callbacks for request lifecycle events. All fields are
// nil by default; set only the ones you need. A Hooks value must not be
// mutated after it is handed to a [Client] or [CachingTransport].
type Hooks struct {
	// OnAttempt fires before every transport call. attempt is 0-indexed.
	OnAttempt func(attempt int, req *WireRequest)
	// OnRetry fires when a failed attempt will be retried after delay.
	OnRetry func(attempt int, err error, delay time.Duration)
	// OnCacheBypass fires when a request skips the cache because of its
	// cache policy or method.
	OnCacheBypass func(key string, policy CachePolicy)
	OnCacheHit    func(key string, age time.Duration)
	OnCacheMiss   func(key string)
	// OnRevalidated fires when the server answered 304 and the cached body
	// was served.
	OnRevalidated func(key string)
	// OnStaleServed fires when a failed fetch was answered from the cache.
	OnStaleServed func(key string, age time.Duration)
}

func (h *Hooks) emitAttempt(attempt int, req *WireRequest) {
	if h.OnAttempt != nil {
		h.OnAttempt(attempt, req)
	}
}

func (h *Hooks) emitRetry(attempt int, err error, delay time.Duration) {
	if h.OnRetry != nil {
		h.OnRetry(attempt, err, delay)
	}
}

func (h *Hooks) emitCacheBypass(key string, policy CachePolicy) {
	if h.OnCacheBypass != nil {
		h.OnCacheBypass(key, policy)
	}
}

func (h *Hooks) emitCacheHit(key string, age time.Duration) {
	if h.OnCacheHit != nil {
		h.OnCacheHit(key, age)
	}
}

func (h *Hooks) emitCacheMiss(key string) {
	if h.OnCacheMiss != nil {
		h.OnCacheMiss(key)
	}
}

func (h *Hooks) emitRevalidated(key string) {
	if h.OnRevalidated != nil {
		h.OnRevalidated(key)
	}
}

func (h *Hooks) emitStaleServed(key string, age time.Duration) {
	if h.OnStaleServed != nil {
		h.OnStaleServed(key, age)
	}
}
