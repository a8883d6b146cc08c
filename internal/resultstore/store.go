// Package resultstore holds the outcomes of one execution.
//
// The store is append-only: each call's outcome is written exactly once,
// after its handler and all retries have returned. Reads may happen
// concurrently with writes. The store also remembers the order in which
// outcomes arrived, which drives reverse-order compensation.
//
// Outcomes live in a sync.Map because every call writes its own key once
// while sibling handlers read other keys. The completion order is a plain
// slice behind a mutex.
package resultstore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/actionflow/internal/action"
)

// ErrAlreadyRecorded is returned when an outcome is written twice.
var ErrAlreadyRecorded = errors.New("outcome already recorded")

// Store is an in-memory, write-once outcome map. The zero value is ready to
// use. It implements action.ResultReader.
type Store struct {
	outcomes sync.Map // Key: call id, Value: action.Outcome

	mu    sync.Mutex
	order []string
}

// New creates a new, empty store.
func New() *Store {
	return &Store{}
}

// Record stores o under o.CallID. A second write for the same call fails
// with ErrAlreadyRecorded and leaves the first outcome in place.
func (s *Store) Record(o action.Outcome) error {
	if _, loaded := s.outcomes.LoadOrStore(o.CallID, o); loaded {
		return fmt.Errorf("call %q: %w", o.CallID, ErrAlreadyRecorded)
	}

	s.mu.Lock()
	s.order = append(s.order, o.CallID)
	s.mu.Unlock()
	return nil
}

// Get returns the outcome recorded for callID.
func (s *Store) Get(callID string) (action.Outcome, bool) {
	v, ok := s.outcomes.Load(callID)
	if !ok {
		return action.Outcome{}, false
	}
	return v.(action.Outcome), true
}

// Len returns the number of recorded outcomes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// CompletionOrder returns call ids in the order their outcomes were
// recorded.
func (s *Store) CompletionOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Succeeded returns the successful outcomes in completion order.
func (s *Store) Succeeded() []action.Outcome {
	var out []action.Outcome
	for _, id := range s.CompletionOrder() {
		if o, ok := s.Get(id); ok && o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Snapshot copies every recorded outcome into a fresh map.
func (s *Store) Snapshot() map[string]action.Outcome {
	out := make(map[string]action.Outcome)
	s.outcomes.Range(func(key, value any) bool {
		out[key.(string)] = value.(action.Outcome)
		return true
	})
	return out
}

var _ action.ResultReader = (*Store)(nil)
