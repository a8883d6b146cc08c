package executor

import (
	"time"

	"github.com/specialistvlad/actionflow/internal/action"
)

// Observer receives execution events. Implementations must be safe for
// concurrent use; calls of one batch report concurrently.
type Observer interface {
	ExecutionStarted(executionID string, calls int)
	BatchCompleted(executionID string, batch, size int, elapsed time.Duration)
	CallCompleted(executionID string, o action.Outcome, elapsed time.Duration)
	RetryScheduled(executionID string, actionID string, attempt int, delay time.Duration, err error)
	CompensationCompleted(executionID string, actionID string, err error)
	ExecutionCompleted(executionID string, r *Result, elapsed time.Duration)
}

// NopObserver ignores every event. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) ExecutionStarted(string, int) {}
func (NopObserver) BatchCompleted(string, int, int, time.Duration) {}
func (NopObserver) CallCompleted(string, action.Outcome, time.Duration) {}
func (NopObserver) RetryScheduled(string, string, int, time.Duration, error) {}
func (NopObserver) CompensationCompleted(string, string, error) {}
func (NopObserver) ExecutionCompleted(string, *Result, time.Duration) {}

var _ Observer = NopObserver{}
