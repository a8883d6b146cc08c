package testutil

import (
	"github.com/specialistvlad/actionflow/internal/action"
	"github.com/specialistvlad/actionflow/internal/registry"
)

// Module registers a fixed list of definitions, in order. It lets tests hand
// instrumented handlers to anything that accepts registry.Module.
type Module struct {
	Defs []*action.Definition
}

// Register implements registry.Module.
func (m *Module) Register(r *registry.Registry) error {
	for _, def := range m.Defs {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}
