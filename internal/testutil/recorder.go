package testutil

import (
	"sync"
	"time"
)

// Recorder collects what instrumented handlers observed during an
// execution. It is safe for concurrent use.
type Recorder struct {
	mu            sync.Mutex
	attempts      map[string]int
	runs          map[string]ExecutionRecord
	events        []string
	compensations []string
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		attempts: make(map[string]int),
		runs:     make(map[string]ExecutionRecord),
	}
}

// attempt counts one invocation of callID and returns the running total.
func (r *Recorder) attempt(callID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[callID]++
	r.events = append(r.events, "run:"+callID)
	return r.attempts[callID]
}

func (r *Recorder) finish(callID string, start, end time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[callID] = ExecutionRecord{Start: start, End: end}
}

func (r *Recorder) compensated(callID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compensations = append(r.compensations, callID)
	r.events = append(r.events, "compensate:"+callID)
}

// Attempts returns how many times callID was invoked.
func (r *Recorder) Attempts(callID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts[callID]
}

// Run returns the timing of the last completed attempt of callID.
func (r *Recorder) Run(callID string) (ExecutionRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.runs[callID]
	return rec, ok
}

// Compensations returns compensated call ids in invocation order.
func (r *Recorder) Compensations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.compensations...)
}

// Events returns "run:<id>" and "compensate:<id>" entries in the order
// they happened.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}
