package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/actionflow/internal/action"
	"github.com/specialistvlad/actionflow/internal/dag"
	"github.com/specialistvlad/actionflow/internal/registry"
	"github.com/specialistvlad/actionflow/internal/scheduler"
	"github.com/specialistvlad/actionflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func newEngine(t *testing.T, opts Options, defs ...*action.Definition) *Engine {
	t.Helper()
	r := registry.New()
	for _, d := range defs {
		require.NoError(t, r.Register(d))
	}
	r.Lock()
	return New(r, opts)
}

func def(id string, h action.Executable, deps ...string) *action.Definition {
	return &action.Definition{
		ID:           id,
		Description:  "test action " + id,
		Arguments:    cty.DynamicPseudoType,
		Dependencies: deps,
		Handler:      h,
	}
}

func call(id, actionID string, dependsOn ...string) action.Call {
	return action.Call{ID: id, ActionID: actionID, Args: cty.EmptyObjectVal, DependsOn: dependsOn}
}

func retry(attempts int) *action.RetryPolicy {
	return &action.RetryPolicy{MaxAttempts: attempts, Backoff: action.BackoffLinear, BaseDelay: time.Millisecond}
}

func TestExecute_EmptyPlan(t *testing.T) {
	e := newEngine(t, Options{})

	res, err := e.Execute(context.Background(), action.NewPlan(), nil)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.ExecutionID)
	assert.Zero(t, res.Succeeded)
	assert.Zero(t, res.Failed)
	assert.Empty(t, res.Outcomes)
	assert.True(t, res.OK())

	res, err = e.Execute(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Outcomes)
}

func TestExecute_DependenciesRunFirst(t *testing.T) {
	rec := testutil.NewRecorder()
	sleeper := &testutil.Sleeper{Rec: rec, Delay: 10 * time.Millisecond}
	e := newEngine(t, Options{},
		def("a", sleeper),
		def("b", sleeper, "a"),
		def("c", sleeper, "b"),
	)

	res, err := e.Execute(context.Background(), action.NewPlan(call("c1", "c"), call("b1", "b"), call("a1", "a")), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Succeeded)
	assert.True(t, res.OK())

	a, ok := rec.Run("a1")
	require.True(t, ok)
	b, ok := rec.Run("b1")
	require.True(t, ok)
	c, ok := rec.Run("c1")
	require.True(t, ok)

	assert.False(t, b.Start.Before(a.End), "b started before a finished")
	assert.False(t, c.Start.Before(b.End), "c started before b finished")
}

func TestExecute_IndependentCallsRunConcurrently(t *testing.T) {
	rec := testutil.NewRecorder()
	const delay = 100 * time.Millisecond
	e := newEngine(t, Options{}, def("sleep", &testutil.Sleeper{Rec: rec, Delay: delay}))

	start := time.Now()
	res, err := e.Execute(context.Background(), action.NewPlan(call("x", "sleep"), call("y", "sleep")), nil)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
	assert.Less(t, elapsed, 2*delay-20*time.Millisecond, "calls appear to have run sequentially")

	x, _ := rec.Run("x")
	y, _ := rec.Run("y")
	assert.True(t, x.Overlaps(y))
}

func TestExecute_MaxConcurrencyLimitsBatch(t *testing.T) {
	rec := testutil.NewRecorder()
	e := newEngine(t, Options{MaxConcurrency: 1}, def("sleep", &testutil.Sleeper{Rec: rec, Delay: 20 * time.Millisecond}))

	res, err := e.Execute(context.Background(), action.NewPlan(call("x", "sleep"), call("y", "sleep")), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)

	x, _ := rec.Run("x")
	y, _ := rec.Run("y")
	assert.False(t, x.Overlaps(y))
}

func TestExecute_Retry(t *testing.T) {
	t.Run("succeeds on the last attempt", func(t *testing.T) {
		rec := testutil.NewRecorder()
		d := def("flaky", &testutil.Flaky{Rec: rec, Failures: 2})
		d.Retry = retry(3)
		e := newEngine(t, Options{}, d)

		res, err := e.Execute(context.Background(), action.NewPlan(call("f", "flaky")), nil)
		require.NoError(t, err)
		assert.Equal(t, 3, rec.Attempts("f"))
		assert.Equal(t, 1, res.Succeeded)
		assert.Equal(t, 3, res.Outcomes["f"].Attempts)
		assert.Equal(t, 3, res.Outcomes["f"].Value)
	})

	t.Run("exhausts the budget", func(t *testing.T) {
		rec := testutil.NewRecorder()
		d := def("broken", &testutil.Failing{Rec: rec})
		d.Retry = retry(3)
		e := newEngine(t, Options{}, d)

		res, err := e.Execute(context.Background(), action.NewPlan(call("b", "broken")), nil)
		require.NoError(t, err)
		assert.Equal(t, 3, rec.Attempts("b"))
		assert.Equal(t, 1, res.Failed)

		outcome := res.Outcomes["b"]
		var handlerErr *HandlerError
		require.True(t, errors.As(outcome.Err, &handlerErr))
		assert.Equal(t, 3, handlerErr.Attempts)
		assert.Equal(t, "b", handlerErr.CallID)
		assert.ErrorIs(t, outcome.Err, ErrHandlerFailed)
		assert.ErrorIs(t, outcome.Err, testutil.ErrInjected)
	})

	t.Run("permanent error stops early", func(t *testing.T) {
		rec := testutil.NewRecorder()
		d := def("broken", &testutil.Failing{Rec: rec, Err: action.Permanent(testutil.ErrInjected)})
		d.Retry = retry(5)
		e := newEngine(t, Options{}, d)

		res, err := e.Execute(context.Background(), action.NewPlan(call("b", "broken")), nil)
		require.NoError(t, err)
		assert.Equal(t, 1, rec.Attempts("b"))
		assert.ErrorIs(t, res.Outcomes["b"].Err, testutil.ErrInjected)
		assert.False(t, action.IsPermanent(res.Outcomes["b"].Err))
	})

	t.Run("disabled retry", func(t *testing.T) {
		rec := testutil.NewRecorder()
		d := def("broken", &testutil.Failing{Rec: rec})
		d.Retry = retry(3)
		e := newEngine(t, Options{DisableRetry: true}, d)

		_, err := e.Execute(context.Background(), action.NewPlan(call("b", "broken")), nil)
		require.NoError(t, err)
		assert.Equal(t, 1, rec.Attempts("b"))
	})

	t.Run("engine default policy", func(t *testing.T) {
		rec := testutil.NewRecorder()
		e := newEngine(t, Options{DefaultRetry: retry(2)}, def("flaky", &testutil.Flaky{Rec: rec, Failures: 1}))

		res, err := e.Execute(context.Background(), action.NewPlan(call("f", "flaky")), nil)
		require.NoError(t, err)
		assert.Equal(t, 2, rec.Attempts("f"))
		assert.Equal(t, 1, res.Succeeded)
	})

	t.Run("no policy means one attempt", func(t *testing.T) {
		rec := testutil.NewRecorder()
		e := newEngine(t, Options{}, def("flaky", &testutil.Flaky{Rec: rec, Failures: 1}))

		res, err := e.Execute(context.Background(), action.NewPlan(call("f", "flaky")), nil)
		require.NoError(t, err)
		assert.Equal(t, 1, rec.Attempts("f"))
		assert.Equal(t, 1, res.Failed)
	})
}

func TestExecute_CompensatesInReverseOrder(t *testing.T) {
	rec := testutil.NewRecorder()
	ok := &testutil.Sleeper{Rec: rec}
	e := newEngine(t, Options{},
		def("a", ok),
		def("b", ok, "a"),
		// c is compensatable but never succeeds, so it must not be undone.
		def("c", &testutil.Flaky{Rec: rec, Failures: 99}, "b"),
	)

	res, err := e.Execute(context.Background(), action.NewPlan(call("a1", "a"), call("b1", "b"), call("c1", "c")), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{"b1", "a1"}, rec.Compensations())
	assert.Equal(t, []string{"b1", "a1"}, res.Compensated)
	assert.Empty(t, res.CompensationErrors)
	assert.Equal(t, []string{"c1"}, res.FailedCalls())
	assert.Equal(t, []string{
		"run:a1", "run:b1", "run:c1", "compensate:b1", "compensate:a1",
	}, rec.Events())
}

func TestExecute_ReserveAndCharge(t *testing.T) {
	var mu sync.Mutex
	var released []string

	reserve := action.Reversible(
		func(ctx context.Context, args cty.Value, ec *action.ExecContext) (any, error) {
			return "hold-1", nil
		},
		func(ctx context.Context, args cty.Value, result any, ec *action.ExecContext) error {
			mu.Lock()
			defer mu.Unlock()
			released = append(released, result.(string))
			return nil
		},
	)
	charge := action.Reversible(
		func(ctx context.Context, args cty.Value, ec *action.ExecContext) (any, error) {
			return nil, errors.New("card declined")
		},
		func(ctx context.Context, args cty.Value, result any, ec *action.ExecContext) error {
			mu.Lock()
			defer mu.Unlock()
			released = append(released, "refund")
			return nil
		},
	)

	e := newEngine(t, Options{}, def("reserve", reserve), def("charge", charge, "reserve"))
	res, err := e.Execute(context.Background(), action.NewPlan(call("charge-1", "charge"), call("reserve-1", "reserve")), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{"reserve-1"}, res.Compensated)
	assert.Equal(t, []string{"hold-1"}, released)
	assert.ErrorContains(t, res.Outcomes["charge-1"].Err, "card declined")
}

func TestExecute_PermanentErrorKeepsHandlerContext(t *testing.T) {
	declined := errors.New("card declined")
	calls := 0
	d := def("charge", action.HandlerFunc(func(ctx context.Context, args cty.Value, ec *action.ExecContext) (any, error) {
		calls++
		return nil, fmt.Errorf("charge order 42: %w", action.Permanent(declined))
	}))
	d.Retry = retry(3)
	e := newEngine(t, Options{}, d)

	res, err := e.Execute(context.Background(), action.NewPlan(call("c1", "charge")), nil)
	require.NoError(t, err)

	got := res.Outcomes["c1"].Err
	assert.Equal(t, 1, calls, "permanent errors must not be retried")
	assert.EqualError(t, got, `call "c1" (action "charge") failed after 1 attempt(s): charge order 42: card declined`)
	assert.ErrorIs(t, got, declined)
	assert.ErrorIs(t, got, ErrHandlerFailed)
	assert.True(t, action.IsPermanent(got))
}

func TestExecute_SiblingsAreNotInterrupted(t *testing.T) {
	rec := testutil.NewRecorder()
	e := newEngine(t, Options{},
		def("slow", &testutil.Sleeper{Rec: rec, Delay: 30 * time.Millisecond}),
	)

	// The unknown action fails immediately; its sibling still completes and
	// is then compensated.
	res, err := e.Execute(context.Background(), action.NewPlan(call("s", "slow"), call("g", "ghost")), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 1, res.Failed)

	var notFound *ActionNotFoundError
	require.True(t, errors.As(res.Outcomes["g"].Err, &notFound))
	assert.Equal(t, "ghost", notFound.ActionID)
	assert.ErrorIs(t, res.Outcomes["g"].Err, ErrActionNotFound)
	assert.Zero(t, res.Outcomes["g"].Attempts)

	assert.Equal(t, []string{"s"}, rec.Compensations())
}

func TestExecute_NoHandler(t *testing.T) {
	e := newEngine(t, Options{}, def("bare", nil))

	res, err := e.Execute(context.Background(), action.NewPlan(call("b", "bare")), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.ErrorIs(t, res.Outcomes["b"].Err, ErrNoHandler)
}

func TestExecute_FailureSkipsLaterBatches(t *testing.T) {
	rec := testutil.NewRecorder()
	e := newEngine(t, Options{},
		def("a", &testutil.Failing{Rec: rec}),
		def("b", &testutil.Sleeper{Rec: rec}, "a"),
	)

	res, err := e.Execute(context.Background(), action.NewPlan(call("a1", "a"), call("b1", "b"), call("b2", "b")), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.Succeeded)
	assert.Equal(t, []string{"b1", "b2"}, res.Skipped)
	assert.NotContains(t, res.Outcomes, "b1")
	assert.Zero(t, rec.Attempts("b1"))
	assert.False(t, res.OK())
}

func TestExecute_CompensationDisabled(t *testing.T) {
	rec := testutil.NewRecorder()
	e := newEngine(t, Options{DisableCompensation: true},
		def("a", &testutil.Sleeper{Rec: rec}),
		def("b", &testutil.Failing{Rec: rec}, "a"),
	)

	res, err := e.Execute(context.Background(), action.NewPlan(call("a1", "a"), call("b1", "b")), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Empty(t, rec.Compensations())
	assert.Empty(t, res.Compensated)
}

func TestExecute_CompensationErrorsDoNotStopTheWalk(t *testing.T) {
	rec := testutil.NewRecorder()
	undoErr := errors.New("undo failed")
	e := newEngine(t, Options{},
		def("a", &testutil.Sleeper{Rec: rec}),
		def("b", &testutil.Sleeper{Rec: rec, CompensateErr: undoErr}, "a"),
		def("c", &testutil.Failing{Rec: rec}, "b"),
	)

	res, err := e.Execute(context.Background(), action.NewPlan(call("a1", "a"), call("b1", "b"), call("c1", "c")), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"b1", "a1"}, res.Compensated)
	require.Contains(t, res.CompensationErrors, "b1")
	cerr := res.CompensationErrors["b1"]
	assert.ErrorIs(t, cerr, ErrCompensationFailed)
	assert.ErrorIs(t, cerr, undoErr)
	assert.NotContains(t, res.CompensationErrors, "a1")
}

func TestExecute_FatalPlanErrors(t *testing.T) {
	rec := testutil.NewRecorder()
	e := newEngine(t, Options{}, def("a", &testutil.Sleeper{Rec: rec}))

	testCases := []struct {
		name string
		plan *action.Plan
		want error
	}{
		{name: "duplicate id", plan: action.NewPlan(call("x", "a"), call("x", "a")), want: dag.ErrDuplicateCall},
		{name: "unknown explicit dependency", plan: action.NewPlan(call("x", "a", "ghost")), want: dag.ErrUnknownCall},
		{name: "cycle", plan: action.NewPlan(call("x", "a", "y"), call("y", "a", "x")), want: scheduler.ErrCycleDetected},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := e.Execute(context.Background(), tc.plan, nil)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, rec.Events(), "nothing may run for a rejected plan")
		})
	}
}

func TestExecute_HandlersSeeEarlierResultsAndApp(t *testing.T) {
	type appState struct{ prefix string }

	produce := action.HandlerFunc(func(ctx context.Context, args cty.Value, ec *action.ExecContext) (any, error) {
		return 21, nil
	})
	consume := action.HandlerFunc(func(ctx context.Context, args cty.Value, ec *action.ExecContext) (any, error) {
		v, ok := ec.Value("p")
		if !ok {
			return nil, errors.New("producer result missing")
		}
		app := ec.App.(*appState)
		id, _ := action.CallIDFromContext(ctx)
		return map[string]any{"value": v.(int) * 2, "prefix": app.prefix, "call": id, "execution": ec.ExecutionID}, nil
	})

	e := newEngine(t, Options{}, def("produce", produce), def("consume", consume, "produce"))
	res, err := e.Execute(context.Background(), action.NewPlan(call("p", "produce"), call("c", "consume")), &appState{prefix: "order"})
	require.NoError(t, err)
	require.True(t, res.OK())

	got := res.Outcomes["c"].Value.(map[string]any)
	assert.Equal(t, 42, got["value"])
	assert.Equal(t, "order", got["prefix"])
	assert.Equal(t, "c", got["call"])
	assert.Equal(t, res.ExecutionID, got["execution"])
}

func TestExecute_PanicIsAFailure(t *testing.T) {
	calls := 0
	d := def("boom", action.HandlerFunc(func(ctx context.Context, args cty.Value, ec *action.ExecContext) (any, error) {
		calls++
		panic("kaboom")
	}))
	d.Retry = retry(3)
	e := newEngine(t, Options{}, d)

	res, err := e.Execute(context.Background(), action.NewPlan(call("b", "boom")), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorContains(t, res.Outcomes["b"].Err, "kaboom")
}

func TestExecute_Timeout(t *testing.T) {
	rec := testutil.NewRecorder()
	d := def("slow", &testutil.Sleeper{Rec: rec, Delay: time.Second})
	d.Timeout = 10 * time.Millisecond
	e := newEngine(t, Options{}, d)

	res, err := e.Execute(context.Background(), action.NewPlan(call("s", "slow")), nil)
	require.NoError(t, err)
	assert.ErrorIs(t, res.Outcomes["s"].Err, context.DeadlineExceeded)
}

func TestExecute_CancelledContext(t *testing.T) {
	rec := testutil.NewRecorder()
	e := newEngine(t, Options{}, def("a", &testutil.Sleeper{Rec: rec}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := e.Execute(ctx, action.NewPlan(call("a1", "a"), call("a2", "a")), nil)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Equal(t, []string{"a1", "a2"}, res.Skipped)
	assert.Empty(t, rec.Events())
}

type countingObserver struct {
	NopObserver
	mu            sync.Mutex
	started       int
	calls         int
	retries       int
	compensations int
	batches       int
	finished      *Result
}

func (o *countingObserver) ExecutionStarted(string, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *countingObserver) BatchCompleted(string, int, int, time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.batches++
}

func (o *countingObserver) CallCompleted(string, action.Outcome, time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
}

func (o *countingObserver) RetryScheduled(string, string, int, time.Duration, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.retries++
}

func (o *countingObserver) CompensationCompleted(string, string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.compensations++
}

func (o *countingObserver) ExecutionCompleted(_ string, r *Result, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = r
}

func TestExecute_Observer(t *testing.T) {
	rec := testutil.NewRecorder()
	obs := &countingObserver{}
	failing := def("c", &testutil.Failing{Rec: rec}, "a")
	failing.Retry = retry(2)
	e := newEngine(t, Options{Observer: obs},
		def("a", &testutil.Sleeper{Rec: rec}),
		failing,
	)

	res, err := e.Execute(context.Background(), action.NewPlan(call("a1", "a"), call("c1", "c")), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, obs.started)
	assert.Equal(t, 2, obs.batches)
	assert.Equal(t, 2, obs.calls)
	assert.Equal(t, 1, obs.retries)
	assert.Equal(t, 1, obs.compensations)
	assert.Same(t, res, obs.finished)
}
