package netkit

import (
	"maps"
	"slices"
	"sync"
	"sync/atomic"
)

// PolicyRegistry maps names to retry policies. It starts with the presets
// registered under [PresetNone], [PresetDefault] and [PresetAggressive].
// Lookups are lock-free; Register is meant for start-up.
type PolicyRegistry struct {
	policies atomic.Pointer[map[string]RetryPolicy]
	mu       sync.Mutex
}

//nolint:gochecknoglobals // singleton via sync.OnceValue
var defaultPolicyRegistry = sync.OnceValue(NewPolicyRegistry)

// NewPolicyRegistry returns a registry holding the presets.
func NewPolicyRegistry() *PolicyRegistry {
	r := &PolicyRegistry{}

	presets := map[string]RetryPolicy{
		PresetNone:       NoRetry(),
		PresetDefault:    DefaultRetry(),
		PresetAggressive: AggressiveRetry(),
	}

	r.policies.Store(&presets)

	return r
}

// DefaultPolicyRegistry returns the package-level registry, creating it on
// first call.
func DefaultPolicyRegistry() *PolicyRegistry {
	return defaultPolicyRegistry()
}

// Register stores p under name, replacing any previous entry.
func (r *PolicyRegistry) Register(name string, p RetryPolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.policies.Load()

	// Copy-on-write so concurrent readers keep a consistent map.
	updated := maps.Clone(old)
	updated[name] = p
	r.policies.Store(&updated)
}

// Lookup returns the policy registered under name.
func (r *PolicyRegistry) Lookup(name string) (RetryPolicy, bool) {
	p, ok := (*r.policies.Load())[name]
	return p, ok
}

// Names returns the registered names in ascending order.
func (r *PolicyRegistry) Names() []string {
	policies := *r.policies.Load()

	names := make([]string, 0, len(policies))
	for name := range policies {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}
