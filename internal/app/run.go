package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/specialistvlad/actionflow/internal/ctxlog"
	"github.com/specialistvlad/actionflow/internal/executor"
	"github.com/specialistvlad/actionflow/internal/planfile"
	"github.com/specialistvlad/actionflow/internal/scheduler"
	"github.com/specialistvlad/actionflow/modules/http_client"
)

// ErrCallsFailed is returned by Run when the plan executed but at least one
// call failed.
var ErrCallsFailed = errors.New("one or more calls failed")

// Run loads the configured plan, executes it and writes a summary to the
// app's writer. In dry-run mode it prints the batch partition instead and
// returns a nil result.
func (a *App) Run(ctx context.Context) (*executor.Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")
	defer http_client.Close(a.httpClient)

	a.startHealthcheckServer()
	defer func() { _ = a.closeHealthcheckServer() }()

	file, err := planfile.NewLoader(a.registry).Load(ctx, a.config.PlanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	a.logger.Info("Plan loaded.", "name", file.Name, "calls", file.Plan.Len(), "actions", a.registry.IDs())

	if a.config.DryRun {
		batches, err := scheduler.Schedule(ctx, file.Plan, a.registry)
		if err != nil {
			return nil, fmt.Errorf("failed to schedule plan: %w", err)
		}
		printBatches(a.outW, batches)
		return nil, nil
	}

	engine := executor.New(a.registry, executor.Options{
		MaxConcurrency:      a.config.MaxConcurrency,
		DefaultRetry:        a.config.retryPolicy(),
		DisableRetry:        a.config.DisableRetry,
		DisableCompensation: a.config.DisableCompensation,
		Observer:            a.collector,
	})

	a.logger.Info("🚀 Starting execution...")
	res, err := engine.Execute(ctx, file.Plan, file)
	if res != nil {
		printSummary(a.outW, res)
	}
	if err != nil {
		return res, fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.", "executionID", res.ExecutionID, "ok", res.OK())
	if !res.OK() {
		return res, ErrCallsFailed
	}

	a.logger.Debug("App.Run method finished.")
	return res, nil
}

func printBatches(w io.Writer, batches [][]string) {
	for i, b := range batches {
		fmt.Fprintf(w, "batch %d: %s\n", i+1, strings.Join(b, ", "))
	}
}

// printSummary writes one summary line, then one line per failed call and
// per failed compensation.
func printSummary(w io.Writer, res *executor.Result) {
	fmt.Fprintf(w, "succeeded=%d failed=%d skipped=%d compensated=[%s]\n",
		res.Succeeded, res.Failed, len(res.Skipped), strings.Join(res.Compensated, " "))
	for _, id := range res.FailedCalls() {
		fmt.Fprintf(w, "failed %s: %v\n", id, res.Outcomes[id].Err)
	}
	for _, id := range res.Compensated {
		if err, ok := res.CompensationErrors[id]; ok {
			fmt.Fprintf(w, "compensation failed %s: %v\n", id, err)
		}
	}
}
