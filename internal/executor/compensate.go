package executor

import (
	"context"
	"fmt"

	"github.com/specialistvlad/actionflow/internal/action"
	"github.com/specialistvlad/actionflow/internal/ctxlog"
)

// compensate undoes succeeded calls in strict reverse completion order.
// Failures are recorded in result and never stop the walk. The walk ignores
// cancellation of ctx so that a cancelled execution is still rolled back.
func (e *Engine) compensate(ctx context.Context, x *execution, result *Result) {
	ctx = context.WithoutCancel(ctx)
	succeeded := x.store.Succeeded()
	x.logger.Info("↩️ Starting compensation.", "candidates", len(succeeded))

	for i := len(succeeded) - 1; i >= 0; i-- {
		o := succeeded[i]
		def, ok := e.defs.Get(o.ActionID)
		if !ok {
			continue
		}
		compensator, ok := def.Compensator()
		if !ok {
			x.logger.Debug("Call has no compensator, skipping.", "callID", o.CallID, "actionID", o.ActionID)
			continue
		}

		callCtx := action.WithCallID(ctxlog.With(ctx, "callID", o.CallID, "actionID", o.ActionID), o.CallID)
		logger := ctxlog.FromContext(callCtx)
		logger.Info("↩️ Compensating call.")

		err := runCompensator(callCtx, compensator, x.calls[o.CallID], o, x.ec)
		result.Compensated = append(result.Compensated, o.CallID)
		if err != nil {
			cerr := &CompensationError{CallID: o.CallID, ActionID: o.ActionID, Err: err}
			result.CompensationErrors[o.CallID] = cerr
			logger.Error("Compensation failed.", "error", cerr)
		}
		e.opts.Observer.CompensationCompleted(x.id, o.ActionID, err)
	}

	x.logger.Info("Finished compensation.", "compensated", len(result.Compensated), "errors", len(result.CompensationErrors))
}

func runCompensator(ctx context.Context, c action.Compensatable, call action.Call, o action.Outcome, ec *action.ExecContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compensator panicked: %v", r)
		}
	}()
	return c.Compensate(ctx, call.Args, o.Value, ec)
}
