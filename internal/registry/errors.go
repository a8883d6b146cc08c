package registry

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for registration failures. The typed errors below match
// them through errors.Is.
var (
	ErrAlreadyLocked      = errors.New("registry is locked")
	ErrInvalidDefinition  = errors.New("invalid action definition")
	ErrUnknownDependency  = errors.New("unknown dependency")
	ErrCircularDependency = errors.New("circular dependency")
)

// InvalidDefinitionError reports a structurally invalid definition.
type InvalidDefinitionError struct {
	ActionID string
	Reason   string
}

func (e *InvalidDefinitionError) Error() string {
	if e.ActionID == "" {
		return fmt.Sprintf("invalid action definition: %s", e.Reason)
	}
	return fmt.Sprintf("invalid action definition %q: %s", e.ActionID, e.Reason)
}

func (e *InvalidDefinitionError) Is(target error) bool {
	return target == ErrInvalidDefinition
}

// UnknownDependencyError reports a dependency that is not registered yet.
type UnknownDependencyError struct {
	ActionID   string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("action %q depends on %q which is not registered", e.ActionID, e.Dependency)
}

func (e *UnknownDependencyError) Is(target error) bool {
	return target == ErrUnknownDependency
}

// CircularDependencyError carries the detected cycle. The path starts and
// ends with the action being registered.
type CircularDependencyError struct {
	Path []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency: %s", strings.Join(e.Path, " -> "))
}

func (e *CircularDependencyError) Is(target error) bool {
	return target == ErrCircularDependency
}
