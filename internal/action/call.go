package action

import (
	"github.com/zclconf/go-cty/cty"
)

// Call is one requested invocation of an action within a single execution.
type Call struct {
	// ID is unique within the execution. Callers generate it.
	ID string
	// ActionID names the registered action to invoke.
	ActionID string
	// Args are the already-validated arguments.
	Args cty.Value
	// DependsOn lists call ids that must succeed before this call starts.
	// It disambiguates ordering when several calls invoke the same action.
	DependsOn []string
}

// Plan is the ordered list of calls for one execution.
type Plan struct {
	Calls []Call
}

// NewPlan is a convenience constructor.
func NewPlan(calls ...Call) *Plan {
	return &Plan{Calls: calls}
}

// Len returns the number of calls in the plan; a nil plan has none.
func (p *Plan) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Calls)
}
