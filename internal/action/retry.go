package action

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// BackoffKind selects how the delay between attempts grows.
type BackoffKind string

const (
	// BackoffLinear waits base*n after the n-th failed attempt.
	BackoffLinear BackoffKind = "linear"
	// BackoffExponential waits base*2^n after the n-th failed attempt.
	BackoffExponential BackoffKind = "exponential"
)

// ParseBackoffKind converts a configuration string into a BackoffKind.
// An empty string selects BackoffLinear.
func ParseBackoffKind(s string) (BackoffKind, error) {
	switch BackoffKind(s) {
	case "", BackoffLinear:
		return BackoffLinear, nil
	case BackoffExponential:
		return BackoffExponential, nil
	default:
		return "", fmt.Errorf("unknown backoff kind %q: must be 'linear' or 'exponential'", s)
	}
}

// RetryPolicy controls how often a failing handler is re-invoked.
type RetryPolicy struct {
	// MaxAttempts is the total number of invocations, including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int
	Backoff     BackoffKind
	BaseDelay   time.Duration
}

// Attempts returns the effective attempt budget.
func (p *RetryPolicy) Attempts() int {
	if p == nil || p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// maxDelay is where Delay saturates instead of overflowing.
const maxDelay = time.Duration(math.MaxInt64)

// Delay returns the wait before the attempt following failed attempt n
// (1-based).
func (p *RetryPolicy) Delay(n int) time.Duration {
	if p == nil || p.BaseDelay <= 0 || n < 1 {
		return 0
	}
	factor := int64(n)
	if p.Backoff == BackoffExponential {
		if n >= 62 {
			return maxDelay
		}
		factor = int64(1) << n
	}
	if int64(p.BaseDelay) > int64(maxDelay)/factor {
		return maxDelay
	}
	return p.BaseDelay * time.Duration(factor)
}

// Permanent marks err as not worth retrying. The engine records it after the
// current attempt regardless of the remaining attempt budget.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var perm *backoff.PermanentError
	return errors.As(err, &perm)
}
