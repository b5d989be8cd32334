package netkit

import (
	"errors"
	"slices"
	"time"
)

// Defaults applied by [NewRetryPolicy].
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
)

// DefaultRetryableStatusCodes returns the HTTP statuses retried by default:
// 408, 429, 500, 502, 503 and 504.
func DefaultRetryableStatusCodes() []int {
	return []int{408, 429, 500, 502, 503, 504}
}

// RetryPolicy decides whether a failed call is retried and how long to wait
// first. It is an immutable value: build it with [NewRetryPolicy] or one of
// the presets, and share it freely between goroutines.
type RetryPolicy struct {
	codes      map[int]struct{}
	strategy   Strategy
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// RetryPolicyOption configures a [RetryPolicy].
type RetryPolicyOption func(*RetryPolicy)

// WithMaxRetries sets how many retries follow the initial attempt. Negative
// values are treated as zero.
func WithMaxRetries(n int) RetryPolicyOption {
	return func(p *RetryPolicy) {
		p.maxRetries = max(n, 0)
	}
}

// WithBaseDelay sets the base delay fed to the backoff strategy.
func WithBaseDelay(d time.Duration) RetryPolicyOption {
	return func(p *RetryPolicy) {
		p.baseDelay = d
	}
}

// WithStrategy sets the backoff strategy.
func WithStrategy(s Strategy) RetryPolicyOption {
	return func(p *RetryPolicy) {
		p.strategy = s
	}
}

// WithRetryableStatusCodes replaces the set of HTTP statuses that are
// retried.
func WithRetryableStatusCodes(codes ...int) RetryPolicyOption {
	return func(p *RetryPolicy) {
		p.codes = codeSet(codes)
	}
}

// WithMaxDelay caps every computed delay. Zero means no cap.
func WithMaxDelay(d time.Duration) RetryPolicyOption {
	return func(p *RetryPolicy) {
		p.maxDelay = d
	}
}

// NewRetryPolicy returns a policy with 3 retries, a 1s base delay, constant
// backoff and [DefaultRetryableStatusCodes], adjusted by opts.
func NewRetryPolicy(opts ...RetryPolicyOption) RetryPolicy {
	p := RetryPolicy{
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		strategy:   ConstantBackoff(),
		codes:      codeSet(DefaultRetryableStatusCodes()),
	}

	for _, opt := range opts {
		opt(&p)
	}

	return p
}

func codeSet(codes []int) map[int]struct{} {
	set := make(map[int]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}

	return set
}

// MaxRetries returns the number of retries after the initial attempt.
func (p RetryPolicy) MaxRetries() int { return p.maxRetries }

// BaseDelay returns the base delay.
func (p RetryPolicy) BaseDelay() time.Duration { return p.baseDelay }

// Strategy returns the backoff strategy.
func (p RetryPolicy) Strategy() Strategy { return p.strategy }

// MaxDelay returns the delay cap, zero when uncapped.
func (p RetryPolicy) MaxDelay() time.Duration { return p.maxDelay }

// RetryableStatusCodes returns the retried HTTP statuses in ascending order.
func (p RetryPolicy) RetryableStatusCodes() []int {
	codes := make([]int, 0, len(p.codes))
	for c := range p.codes {
		codes = append(codes, c)
	}

	slices.Sort(codes)

	return codes
}

// Delay returns the wait before the retry that follows the given 0-indexed
// attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.strategy.Delay(p.baseDelay, attempt)
	if p.maxDelay > 0 && d > p.maxDelay {
		return p.maxDelay
	}

	return d
}

// ShouldRetry reports whether err, observed on the given 0-indexed attempt,
// warrants another attempt. It is always false once attempt reaches
// MaxRetries; below that it defers to [RetryPolicy.Retryable].
func (p RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if attempt >= p.maxRetries {
		return false
	}

	return p.Retryable(err)
}

// Retryable classifies err regardless of the retry budget. Network errors
// are retryable for no-data, unknown and configured server statuses;
// transport errors for timeouts and connectivity failures. Anything else,
// including cancellation, is final.
func (p RetryPolicy) Retryable(err error) bool {
	if err == nil {
		return false
	}

	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.IsRetryable(p.codes)
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.IsRetryable()
	}

	return false
}

// Schedule lists the delays a call would wait through if every attempt
// failed with a retryable error.
func (p RetryPolicy) Schedule() []time.Duration {
	delays := make([]time.Duration, p.maxRetries)
	for attempt := range p.maxRetries {
		delays[attempt] = p.Delay(attempt)
	}

	return delays
}
