package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/actionflow/internal/action"
	"github.com/specialistvlad/actionflow/internal/ctxlog"
	"github.com/specialistvlad/actionflow/internal/dag"
	"github.com/specialistvlad/actionflow/internal/resultstore"
	"github.com/specialistvlad/actionflow/internal/scheduler"
)

// Options tunes an Engine. The zero value runs batches without a
// concurrency limit, one attempt per call unless the action declares a
// retry policy, and compensation enabled.
type Options struct {
	// MaxConcurrency caps concurrent calls inside a batch. Zero or less
	// means unlimited.
	MaxConcurrency int
	// DefaultRetry applies to actions without their own policy.
	DefaultRetry *action.RetryPolicy
	// DisableRetry forces a single attempt for every call.
	DisableRetry bool
	// DisableCompensation keeps the short-circuit but never compensates.
	DisableCompensation bool
	// Observer receives execution events. Nil means none.
	Observer Observer
}

// Engine executes plans against a set of action definitions. An Engine
// holds no per-execution state and may run several plans concurrently.
type Engine struct {
	defs dag.Definitions
	opts Options
}

// New creates an engine. defs is usually a locked *registry.Registry.
func New(defs dag.Definitions, opts Options) *Engine {
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}
	return &Engine{defs: defs, opts: opts}
}

// execution is the state of one Execute call.
type execution struct {
	id     string
	calls  map[string]action.Call
	store  *resultstore.Store
	ec     *action.ExecContext
	logger *slog.Logger
}

// Execute runs plan. app is passed to every handler untouched.
//
// A malformed plan (unknown or duplicate call ids, a dependency cycle) is
// returned as an error with a nil Result and nothing runs. Per-call failures
// are reported in the Result. If ctx is cancelled, Execute stops scheduling,
// compensates what already succeeded and returns the Result together with
// ctx.Err().
func (e *Engine) Execute(ctx context.Context, plan *action.Plan, app any) (*Result, error) {
	started := time.Now()
	x := &execution{
		id:    uuid.NewString(),
		store: resultstore.New(),
	}
	x.logger = ctxlog.FromContext(ctx).With("executionID", x.id)
	ctx = ctxlog.WithLogger(ctx, x.logger)

	if plan.Len() == 0 {
		x.logger.Debug("Empty plan, nothing to execute.")
		return newResult(x.id, x.store.Snapshot()), nil
	}

	batches, err := scheduler.Schedule(ctx, plan, e.defs)
	if err != nil {
		x.logger.Error("Plan rejected.", "error", err)
		return nil, err
	}

	x.calls = make(map[string]action.Call, len(plan.Calls))
	for _, c := range plan.Calls {
		x.calls[c.ID] = c
	}
	x.ec = action.NewExecContext(x.id, app, x.store)

	e.opts.Observer.ExecutionStarted(x.id, len(plan.Calls))
	x.logger.Info("▶️ Starting execution.", "calls", len(plan.Calls), "batches", len(batches))

	var skipped []string
	var stopErr error
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			stopErr = err
			skipped = flatten(batches[i:])
			x.logger.Warn("Execution cancelled, skipping remaining batches.", "batch", i, "error", err)
			break
		}

		if failed := e.runBatch(ctx, x, i, batch); failed > 0 {
			skipped = flatten(batches[i+1:])
			x.logger.Error("Batch failed, stopping execution.", "batch", i, "failed", failed, "skipped", len(skipped))
			break
		}
	}

	result := newResult(x.id, x.store.Snapshot())
	result.Skipped = skipped

	if result.Failed > 0 || stopErr != nil {
		if e.opts.DisableCompensation {
			x.logger.Warn("Compensation disabled, leaving succeeded calls in place.", "succeeded", result.Succeeded)
		} else {
			e.compensate(ctx, x, result)
		}
	}

	elapsed := time.Since(started)
	e.opts.Observer.ExecutionCompleted(x.id, result, elapsed)
	x.logger.Info("✅ Finished execution.",
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"skipped", len(result.Skipped),
		"compensated", len(result.Compensated),
		"duration", elapsed,
	)
	return result, stopErr
}

func flatten(batches [][]string) []string {
	var out []string
	for _, b := range batches {
		out = append(out, b...)
	}
	return out
}
