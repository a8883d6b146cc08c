package dag

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCall   = errors.New("unknown call")
	ErrDuplicateCall = errors.New("duplicate call")
	ErrInvalidCall   = errors.New("invalid call")
)

// UnknownCallError reports an explicit dependency on a call id that is not
// part of the plan.
type UnknownCallError struct {
	CallID    string
	DependsOn string
}

func (e *UnknownCallError) Error() string {
	return fmt.Sprintf("call %q depends on unknown call %q", e.CallID, e.DependsOn)
}

func (e *UnknownCallError) Is(target error) bool { return target == ErrUnknownCall }

// DuplicateCallError reports two calls sharing an id.
type DuplicateCallError struct {
	CallID string
}

func (e *DuplicateCallError) Error() string {
	return fmt.Sprintf("duplicate call id %q", e.CallID)
}

func (e *DuplicateCallError) Is(target error) bool { return target == ErrDuplicateCall }

// InvalidCallError reports a call that cannot be placed in the graph at all.
type InvalidCallError struct {
	Index  int
	Reason string
}

func (e *InvalidCallError) Error() string {
	return fmt.Sprintf("invalid call at position %d: %s", e.Index, e.Reason)
}

func (e *InvalidCallError) Is(target error) bool { return target == ErrInvalidCall }
