package executor

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/specialistvlad/actionflow/internal/action"
)

// policyBackOff adapts an action.RetryPolicy to backoff.BackOff. The attempt
// budget is enforced separately with backoff.WithMaxRetries.
type policyBackOff struct {
	policy *action.RetryPolicy
	failed int
}

func (b *policyBackOff) NextBackOff() time.Duration {
	b.failed++
	return b.policy.Delay(b.failed)
}

func (b *policyBackOff) Reset() { b.failed = 0 }

// newBackOff builds the retry schedule for one call.
func newBackOff(policy *action.RetryPolicy) backoff.BackOff {
	retries := uint64(policy.Attempts() - 1)
	return backoff.WithMaxRetries(&policyBackOff{policy: policy}, retries)
}

// retryPolicy picks the policy for def: its own, then the engine default,
// then a single attempt.
func (e *Engine) retryPolicy(def *action.Definition) *action.RetryPolicy {
	if e.opts.DisableRetry {
		return nil
	}
	if def.Retry != nil {
		return def.Retry
	}
	return e.opts.DefaultRetry
}
