package netkit

import "time"

// Preset names understood by [PolicyRegistry] and the CLI.
const (
	PresetNone       = "none"
	PresetDefault    = "default"
	PresetAggressive = "aggressive"
)

// NoRetry returns a policy that never retries.
func NoRetry() RetryPolicy {
	return NewRetryPolicy(WithMaxRetries(0))
}

// DefaultRetry returns the general-purpose policy: 3 retries, 1s constant
// backoff, default retryable statuses.
func DefaultRetry() RetryPolicy {
	return NewRetryPolicy()
}

// AggressiveRetry returns a policy for calls that should try harder: 5
// retries with a 500ms constant backoff.
func AggressiveRetry() RetryPolicy {
	return NewRetryPolicy(
		WithMaxRetries(5),
		WithBaseDelay(500*time.Millisecond),
	)
}
