package registry

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/specialistvlad/actionflow/internal/action"
	"github.com/zclconf/go-cty/cty"
)

// Module is the interface that all action modules implement to be registered.
type Module interface {
	Register(r *Registry) error
}

// Registry holds the action definitions for a single application instance.
// All methods are safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	defs map[string]*action.Definition
	// order keeps registration order for IDs.
	order []string
	// dependents maps a dependency id to the set of actions declaring it.
	dependents map[string]map[string]struct{}
	// tags maps a tag to the set of actions carrying it.
	tags map[string]map[string]struct{}

	locked bool
}

// New creates and initializes a new, empty Registry.
func New() *Registry {
	return &Registry{
		defs:       make(map[string]*action.Definition),
		dependents: make(map[string]map[string]struct{}),
		tags:       make(map[string]map[string]struct{}),
	}
}

// Register validates def and adds it to the catalog. The registry keeps its
// own copy of the definition; later changes to def have no effect.
func (r *Registry) Register(def *action.Definition) error {
	if def == nil {
		return &InvalidDefinitionError{Reason: "definition is nil"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locked {
		return fmt.Errorf("register %q: %w", def.ID, ErrAlreadyLocked)
	}
	if err := r.validate(def); err != nil {
		return err
	}

	stored := def.Clone()
	r.defs[stored.ID] = stored
	r.order = append(r.order, stored.ID)

	for _, dep := range stored.Dependencies {
		set, ok := r.dependents[dep]
		if !ok {
			set = make(map[string]struct{})
			r.dependents[dep] = set
		}
		set[stored.ID] = struct{}{}
	}
	for _, tag := range stored.Tags {
		set, ok := r.tags[tag]
		if !ok {
			set = make(map[string]struct{})
			r.tags[tag] = set
		}
		set[stored.ID] = struct{}{}
	}

	_, compensatable := stored.Compensator()
	slog.Debug("Registered action.",
		"actionID", stored.ID,
		"dependencies", stored.Dependencies,
		"compensatable", compensatable,
	)
	return nil
}

// MustRegister registers each definition and panics on the first failure.
// It is meant for built-in modules, where a failure is a programmer error.
func (r *Registry) MustRegister(defs ...*action.Definition) {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
}

// validate runs the structural checks. The caller must hold the write lock.
func (r *Registry) validate(def *action.Definition) error {
	if def.ID == "" {
		return &InvalidDefinitionError{Reason: "identifier is empty"}
	}
	if _, exists := r.defs[def.ID]; exists {
		return &InvalidDefinitionError{ActionID: def.ID, Reason: "identifier already registered"}
	}
	if strings.TrimSpace(def.Description) == "" {
		return &InvalidDefinitionError{ActionID: def.ID, Reason: "description is empty"}
	}
	if def.Arguments == cty.NilType {
		return &InvalidDefinitionError{ActionID: def.ID, Reason: "argument shape is missing"}
	}
	if path := r.findCycle(def.ID, def.Dependencies); path != nil {
		return &CircularDependencyError{Path: path}
	}
	for _, dep := range def.Dependencies {
		if _, ok := r.defs[dep]; !ok {
			return &UnknownDependencyError{ActionID: def.ID, Dependency: dep}
		}
	}
	return nil
}

// Get returns the definition registered under id. The returned definition
// is shared and must not be modified.
func (r *Registry) Get(id string) (*action.Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[id]
	return def, ok
}

// Len returns the number of registered actions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// IDs returns all registered identifiers in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Lock forbids any further registration. It cannot be undone.
func (r *Registry) Lock() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = true
}

// IsLocked reports whether Lock has been called.
func (r *Registry) IsLocked() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.locked
}
