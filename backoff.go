package netkit

import (
	"math"
	"strconv"
	"time"
)

// strategyKind tags the variant of a [Strategy].
type strategyKind int

const (
	strategyConstant strategyKind = iota
	strategyLinear
	strategyExponential
)

// Strategy maps an attempt number to the wait before the next attempt. It is
// a closed set of variants: [ConstantBackoff], [LinearBackoff] and
// [ExponentialBackoff]. The zero value is constant backoff.
type Strategy struct {
	increment  time.Duration
	multiplier float64
	kind       strategyKind
}

// ConstantBackoff waits the policy's base delay before every retry.
func ConstantBackoff() Strategy {
	return Strategy{kind: strategyConstant}
}

// LinearBackoff waits base + attempt*increment.
func LinearBackoff(increment time.Duration) Strategy {
	return Strategy{kind: strategyLinear, increment: increment}
}

// ExponentialBackoff waits base * multiplier^attempt.
func ExponentialBackoff(multiplier float64) Strategy {
	return Strategy{kind: strategyExponential, multiplier: multiplier}
}

// Delay returns the wait for the given 0-indexed attempt. Results that would
// overflow [time.Duration] saturate at its maximum; negative results are
// reported as zero.
func (s Strategy) Delay(base time.Duration, attempt int) time.Duration {
	attempt = max(attempt, 0)

	var d float64

	switch s.kind {
	case strategyLinear:
		d = float64(base) + float64(attempt)*float64(s.increment)
	case strategyExponential:
		d = float64(base) * math.Pow(s.multiplier, float64(attempt))
	default:
		d = float64(base)
	}

	switch {
	case math.IsNaN(d) || d <= 0:
		return 0
	case d >= math.MaxInt64:
		return time.Duration(math.MaxInt64)
	default:
		return time.Duration(d)
	}
}

// String describes the strategy, e.g. "exponential(x2)".
func (s Strategy) String() string {
	switch s.kind {
	case strategyLinear:
		return "linear(+" + s.increment.String() + ")"
	case strategyExponential:
		return "exponential(x" + strconv.FormatFloat(s.multiplier, 'g', -1, 64) + ")"
	default:
		return "constant"
	}
}
