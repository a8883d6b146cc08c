// Package env_vars provides the `env_vars` action, which returns the process
// environment as a map.
package env_vars

import (
	"context"
	"os"
	"strings"

	"github.com/specialistvlad/actionflow/internal/action"
	"github.com/specialistvlad/actionflow/internal/ctyconv"
	"github.com/specialistvlad/actionflow/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// ActionID is the id under which the action is registered.
const ActionID = "env_vars"

// Shape is the argument shape of the action.
var Shape = cty.ObjectWithOptionalAttrs(map[string]cty.Type{
	"prefix": cty.String,
}, []string{"prefix"})

// Input defines the arguments of an env_vars call.
type Input struct {
	// Prefix keeps only variables whose name starts with it.
	Prefix *string `cty:"prefix"`
}

// Module implements the registry.Module interface for this package.
type Module struct {
	// Environ returns the environment. Defaults to os.Environ.
	Environ func() []string
}

// Register registers the action.
func (m *Module) Register(r *registry.Registry) error {
	return r.Register(&action.Definition{
		ID:          ActionID,
		Description: "Returns the process environment as a map of strings.",
		Arguments:   Shape,
		Tags:        []string{"builtin"},
		Handler:     action.HandlerFunc(m.run),
	})
}

func (m *Module) run(ctx context.Context, args cty.Value, ec *action.ExecContext) (any, error) {
	var in Input
	if err := ctyconv.Decode(args, Shape, &in); err != nil {
		return nil, action.Permanent(err)
	}

	environ := m.Environ
	if environ == nil {
		environ = os.Environ
	}

	envMap := make(map[string]string)
	for _, e := range environ() {
		k, v, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if in.Prefix != nil && !strings.HasPrefix(k, *in.Prefix) {
			continue
		}
		envMap[k] = v
	}
	return envMap, nil
}
