package executor

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/specialistvlad/actionflow/internal/action"
	"github.com/specialistvlad/actionflow/internal/ctyconv"
	"github.com/specialistvlad/actionflow/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

// runBatch runs every call of batch concurrently and waits for all of them.
// A failing call never interrupts its siblings. It returns the number of
// failed calls.
func (e *Engine) runBatch(ctx context.Context, x *execution, index int, batch []string) int {
	started := time.Now()
	x.logger.Debug("Starting batch.", "batch", index, "calls", batch)

	// Plain group: the derived context of errgroup.WithContext would cancel
	// siblings on the first failure.
	var g errgroup.Group
	if e.opts.MaxConcurrency > 0 {
		g.SetLimit(e.opts.MaxConcurrency)
	}

	outcomes := make([]action.Outcome, len(batch))
	for i, id := range batch {
		call := x.calls[id]
		g.Go(func() error {
			outcomes[i] = e.runCall(ctx, x, call)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, o := range outcomes {
		if !o.OK() {
			failed++
		}
	}

	elapsed := time.Since(started)
	e.opts.Observer.BatchCompleted(x.id, index, len(batch), elapsed)
	x.logger.Debug("Finished batch.", "batch", index, "failed", failed, "duration", elapsed)
	return failed
}

// runCall resolves, invokes and records a single call.
func (e *Engine) runCall(ctx context.Context, x *execution, call action.Call) action.Outcome {
	ctx = action.WithCallID(ctxlog.With(ctx, "callID", call.ID, "actionID", call.ActionID), call.ID)
	logger := ctxlog.FromContext(ctx)
	started := time.Now()

	outcome := action.Outcome{CallID: call.ID, ActionID: call.ActionID}
	def, ok := e.defs.Get(call.ActionID)
	switch {
	case !ok:
		outcome.Err = &ActionNotFoundError{CallID: call.ID, ActionID: call.ActionID}
	case def.Handler == nil:
		outcome.Err = &NoHandlerError{CallID: call.ID, ActionID: call.ActionID}
	default:
		logger.Debug("Starting call.", "args", ctyconv.ForLogs(call.Args))
		outcome.Value, outcome.Attempts, outcome.Err = e.invoke(ctx, x, def, call)
	}
	outcome.CompletedAt = time.Now()

	if outcome.Err != nil {
		logger.Error("Call failed.", "attempts", outcome.Attempts, "error", outcome.Err)
	} else {
		logger.Info("✅ Finished call.", "attempts", outcome.Attempts)
	}

	if err := x.store.Record(outcome); err != nil {
		// Plan validation rejects duplicate ids, so this is a bug.
		logger.Error("Failed to record outcome.", "error", err)
	}
	e.opts.Observer.CallCompleted(x.id, outcome, time.Since(started))
	return outcome
}

// invoke runs the handler under its retry policy and returns the value,
// the number of attempts made and the final error.
func (e *Engine) invoke(ctx context.Context, x *execution, def *action.Definition, call action.Call) (any, int, error) {
	logger := ctxlog.FromContext(ctx)
	policy := e.retryPolicy(def)

	var (
		value    any
		attempts int
		lastErr  error
	)
	operation := func() error {
		attempts++
		v, err := runHandler(ctx, def, call, x.ec)
		if err != nil {
			lastErr = err
			return err
		}
		value = v
		return nil
	}
	notify := func(err error, delay time.Duration) {
		logger.Warn("Attempt failed, retrying.", "attempt", attempts, "delay", delay, "error", err)
		e.opts.Observer.RetryScheduled(x.id, call.ActionID, attempts, delay, err)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(newBackOff(policy), ctx), notify)
	if err == nil {
		return value, attempts, nil
	}
	// RetryNotify unwraps permanent errors and reports a cancelled wait as
	// the context error. Record what the handler returned instead, so text
	// wrapped around an action.Permanent marker survives.
	if lastErr != nil {
		err = lastErr
	}
	if perm, ok := err.(*backoff.PermanentError); ok {
		err = perm.Err
	}
	return nil, attempts, &HandlerError{CallID: call.ID, ActionID: call.ActionID, Attempts: attempts, Err: err}
}

// runHandler makes one attempt, bounded by the action timeout. A panic is
// turned into a permanent error.
func runHandler(ctx context.Context, def *action.Definition, call action.Call, ec *action.ExecContext) (value any, err error) {
	if def.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, def.Timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = backoff.Permanent(&panicError{value: r})
		}
	}()
	return def.Handler.Run(ctx, call.Args, ec)
}
