package action

import "time"

// Outcome is the terminal result of one call. It is written once, after the
// handler and all its retries have returned, and never modified afterwards.
type Outcome struct {
	CallID   string
	ActionID string
	// Value is the handler's result when Err is nil.
	Value any
	// Err is the recorded failure, if any.
	Err error
	// Attempts is the number of handler invocations made.
	Attempts    int
	CompletedAt time.Time
}

// OK reports whether the call succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// ResultReader gives read access to the outcomes recorded so far in an
// execution.
type ResultReader interface {
	Get(callID string) (Outcome, bool)
}

// ExecContext is handed to every handler invocation of one execution.
type ExecContext struct {
	// ExecutionID identifies the execution in logs and metrics.
	ExecutionID string
	// App is the caller-supplied payload, passed through untouched.
	App any

	results ResultReader
}

// NewExecContext builds the per-execution context.
func NewExecContext(executionID string, app any, results ResultReader) *ExecContext {
	return &ExecContext{ExecutionID: executionID, App: app, results: results}
}

// Result returns the outcome of a call that has already finished.
func (ec *ExecContext) Result(callID string) (Outcome, bool) {
	if ec == nil || ec.results == nil {
		return Outcome{}, false
	}
	return ec.results.Get(callID)
}

// Value returns the result value of a call that finished successfully.
func (ec *ExecContext) Value(callID string) (any, bool) {
	o, ok := ec.Result(callID)
	if !ok || !o.OK() {
		return nil, false
	}
	return o.Value, true
}
