package netkit

import (
	"testing"
	"time"
)

func TestPresets(t *testing.T) {
	tests := []struct {
		policy  RetryPolicy
		name    string
		retries int
		base    time.Duration
	}{
		{name: PresetNone, policy: NoRetry(), retries: 0, base: time.Second},
		{name: PresetDefault, policy: DefaultRetry(), retries: 3, base: time.Second},
		{name: PresetAggressive, policy: AggressiveRetry(), retries: 5, base: 500 * time.Millisecond},
	}

	for _, tt := range tests {
		if tt.policy.MaxRetries() != tt.retries {
			t.Fatalf("%s: MaxRetries() = %d, want %d", tt.name, tt.policy.MaxRetries(), tt.retries)
		}
		if tt.policy.BaseDelay() != tt.base {
			t.Fatalf("%s: BaseDelay() = %v, want %v", tt.name, tt.policy.BaseDelay(), tt.base)
		}
		if tt.policy.Strategy() != ConstantBackoff() {
			t.Fatalf("%s: Strategy() = %v, want constant", tt.name, tt.policy.Strategy())
		}
	}
}
