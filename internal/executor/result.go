package executor

import (
	"sort"

	"github.com/specialistvlad/actionflow/internal/action"
)

// Result summarizes one execution. It is created fresh for every Execute
// call and the engine keeps no reference to it.
type Result struct {
	ExecutionID string
	Succeeded   int
	Failed      int
	// Outcomes holds every call that ran, keyed by call id.
	Outcomes map[string]action.Outcome
	// Skipped lists calls never started because an earlier batch failed or
	// the context was cancelled, in batch order.
	Skipped []string
	// Compensated lists call ids whose compensator ran, in invocation order.
	Compensated []string
	// CompensationErrors holds failed compensations keyed by call id.
	CompensationErrors map[string]error
}

// OK reports whether every call of the plan ran and succeeded.
func (r *Result) OK() bool {
	return r.Failed == 0 && len(r.Skipped) == 0
}

// FailedCalls returns the ids of failed calls, sorted.
func (r *Result) FailedCalls() []string {
	var ids []string
	for id, o := range r.Outcomes {
		if !o.OK() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func newResult(executionID string, outcomes map[string]action.Outcome) *Result {
	r := &Result{
		ExecutionID:        executionID,
		Outcomes:           outcomes,
		CompensationErrors: make(map[string]error),
	}
	for _, o := range outcomes {
		if o.OK() {
			r.Succeeded++
		} else {
			r.Failed++
		}
	}
	return r
}
