package action

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Executable is the capability every runnable action handler provides.
type Executable interface {
	Run(ctx context.Context, args cty.Value, ec *ExecContext) (any, error)
}

// Compensatable is implemented by handlers that can undo a previous
// successful Run. result is the value that Run returned.
type Compensatable interface {
	Compensate(ctx context.Context, args cty.Value, result any, ec *ExecContext) error
}

// HandlerFunc adapts a plain function to Executable.
type HandlerFunc func(ctx context.Context, args cty.Value, ec *ExecContext) (any, error)

// Run calls f.
func (f HandlerFunc) Run(ctx context.Context, args cty.Value, ec *ExecContext) (any, error) {
	return f(ctx, args, ec)
}

// CompensatorFunc is the function form of Compensatable.
type CompensatorFunc func(ctx context.Context, args cty.Value, result any, ec *ExecContext) error

// reversible pairs a forward handler with its compensation.
type reversible struct {
	do   HandlerFunc
	undo CompensatorFunc
}

// Reversible builds a handler that implements both Executable and
// Compensatable from a pair of functions. It panics if either is nil.
func Reversible(do HandlerFunc, undo CompensatorFunc) Executable {
	if do == nil || undo == nil {
		panic("action: Reversible requires both a handler and a compensator")
	}
	return &reversible{do: do, undo: undo}
}

func (r *reversible) Run(ctx context.Context, args cty.Value, ec *ExecContext) (any, error) {
	return r.do(ctx, args, ec)
}

func (r *reversible) Compensate(ctx context.Context, args cty.Value, result any, ec *ExecContext) error {
	return r.undo(ctx, args, result, ec)
}
