package executor

import (
	"errors"
	"fmt"
)

var (
	ErrActionNotFound     = errors.New("action not found")
	ErrNoHandler          = errors.New("action has no handler")
	ErrHandlerFailed      = errors.New("handler failed")
	ErrCompensationFailed = errors.New("compensation failed")
)

// ActionNotFoundError is recorded for a call whose action is not registered.
type ActionNotFoundError struct {
	CallID   string
	ActionID string
}

func (e *ActionNotFoundError) Error() string {
	return fmt.Sprintf("call %q: action %q not found", e.CallID, e.ActionID)
}

func (e *ActionNotFoundError) Is(target error) bool { return target == ErrActionNotFound }

// NoHandlerError is recorded for a call whose action has no handler.
type NoHandlerError struct {
	CallID   string
	ActionID string
}

func (e *NoHandlerError) Error() string {
	return fmt.Sprintf("call %q: action %q has no handler", e.CallID, e.ActionID)
}

func (e *NoHandlerError) Is(target error) bool { return target == ErrNoHandler }

// HandlerError wraps the final error of a handler after its retries.
type HandlerError struct {
	CallID   string
	ActionID string
	Attempts int
	Err      error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("call %q (action %q) failed after %d attempt(s): %v", e.CallID, e.ActionID, e.Attempts, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

func (e *HandlerError) Is(target error) bool { return target == ErrHandlerFailed }

// CompensationError wraps a failed compensation. It is logged and recorded,
// never returned from Execute.
type CompensationError struct {
	CallID   string
	ActionID string
	Err      error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("compensation of call %q (action %q) failed: %v", e.CallID, e.ActionID, e.Err)
}

func (e *CompensationError) Unwrap() error { return e.Err }

func (e *CompensationError) Is(target error) bool { return target == ErrCompensationFailed }

// panicError carries a recovered handler panic.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("handler panicked: %v", e.value)
}
