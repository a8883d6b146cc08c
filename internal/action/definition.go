package action

import (
	"time"

	"github.com/zclconf/go-cty/cty"
)

// Definition describes a registered action. Definitions are immutable once
// they have been handed to a registry.
type Definition struct {
	// ID is unique within a registry.
	ID string
	// Description is a human-readable summary. Required.
	Description string
	// Arguments is the shape of the arguments the action accepts. The core
	// never inspects it beyond requiring it to be set; argument validation
	// happens upstream.
	Arguments cty.Type
	// Dependencies lists action ids that must fully succeed before any call
	// to this action runs. Every dependency must already be registered.
	Dependencies []string
	// Tags are free-form labels indexed by the registry.
	Tags []string
	// Handler runs the action. A nil handler is allowed at registration time
	// and surfaces as NoHandlerError when a call reaches it.
	Handler Executable
	// Retry overrides the engine's default retry policy for this action.
	Retry *RetryPolicy
	// Timeout bounds each individual attempt. Zero means no timeout.
	Timeout time.Duration
}

// Compensator returns the handler's compensation capability, if it has one.
func (d *Definition) Compensator() (Compensatable, bool) {
	if d == nil || d.Handler == nil {
		return nil, false
	}
	c, ok := d.Handler.(Compensatable)
	return c, ok
}

// Clone returns a copy whose slices do not alias the caller's.
func (d *Definition) Clone() *Definition {
	cp := *d
	cp.Dependencies = append([]string(nil), d.Dependencies...)
	cp.Tags = append([]string(nil), d.Tags...)
	if d.Retry != nil {
		r := *d.Retry
		cp.Retry = &r
	}
	return &cp
}
