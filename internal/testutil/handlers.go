package testutil

import (
	"context"
	"errors"
	"time"

	"github.com/specialistvlad/actionflow/internal/action"
	"github.com/zclconf/go-cty/cty"
)

// ErrInjected is the default failure of the instrumented handlers.
var ErrInjected = errors.New("injected failure")

func callID(ctx context.Context) string {
	id, _ := action.CallIDFromContext(ctx)
	return id
}

// Sleeper waits for Delay, then succeeds with its call id. It is
// compensatable; CompensateErr makes the compensation fail.
type Sleeper struct {
	Rec           *Recorder
	Delay         time.Duration
	CompensateErr error
}

func (s *Sleeper) Run(ctx context.Context, _ cty.Value, _ *action.ExecContext) (any, error) {
	id := callID(ctx)
	s.Rec.attempt(id)
	start := time.Now()

	select {
	case <-time.After(s.Delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.Rec.finish(id, start, time.Now())
	return id, nil
}

func (s *Sleeper) Compensate(ctx context.Context, _ cty.Value, _ any, _ *action.ExecContext) error {
	s.Rec.compensated(callID(ctx))
	return s.CompensateErr
}

// Flaky fails its first Failures invocations of every call, then succeeds
// with the attempt number. It is compensatable.
type Flaky struct {
	Rec      *Recorder
	Failures int
	// Err overrides ErrInjected.
	Err error
}

func (f *Flaky) Run(ctx context.Context, _ cty.Value, _ *action.ExecContext) (any, error) {
	id := callID(ctx)
	n := f.Rec.attempt(id)
	if n <= f.Failures {
		if f.Err != nil {
			return nil, f.Err
		}
		return nil, ErrInjected
	}
	now := time.Now()
	f.Rec.finish(id, now, now)
	return n, nil
}

func (f *Flaky) Compensate(ctx context.Context, _ cty.Value, _ any, _ *action.ExecContext) error {
	f.Rec.compensated(callID(ctx))
	return nil
}

// Failing always fails. It has no compensator.
type Failing struct {
	Rec *Recorder
	// Err overrides ErrInjected.
	Err error
}

func (f *Failing) Run(ctx context.Context, _ cty.Value, _ *action.ExecContext) (any, error) {
	f.Rec.attempt(callID(ctx))
	if f.Err != nil {
		return nil, f.Err
	}
	return nil, ErrInjected
}
