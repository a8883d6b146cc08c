// Package print provides the `print` action, which writes a message and an
// optional set of values to an output stream.
package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/specialistvlad/actionflow/internal/action"
	"github.com/specialistvlad/actionflow/internal/ctxlog"
	"github.com/specialistvlad/actionflow/internal/ctyconv"
	"github.com/specialistvlad/actionflow/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// ActionID is the id under which the action is registered.
const ActionID = "print"

// Shape is the argument shape of the action.
var Shape = cty.ObjectWithOptionalAttrs(map[string]cty.Type{
	"message": cty.String,
	"values":  cty.Map(cty.String),
}, []string{"message", "values"})

// Input defines the arguments of a print call.
type Input struct {
	Message *string           `cty:"message"`
	Values  map[string]string `cty:"values"`
}

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out receives the printed lines. Defaults to os.Stdout.
	Out io.Writer

	mu sync.Mutex
}

// Register registers the action.
func (m *Module) Register(r *registry.Registry) error {
	return r.Register(&action.Definition{
		ID:          ActionID,
		Description: "Writes a message and sorted key/value pairs to the output.",
		Arguments:   Shape,
		Tags:        []string{"builtin", "io"},
		Handler:     action.Reversible(m.run, m.compensate),
	})
}

func (m *Module) run(ctx context.Context, args cty.Value, ec *action.ExecContext) (any, error) {
	var in Input
	if err := ctyconv.Decode(args, Shape, &in); err != nil {
		return nil, action.Permanent(err)
	}

	callID, _ := action.CallIDFromContext(ctx)
	ctxlog.FromContext(ctx).Info("🖨️ Printing input.", "callID", callID)

	lines := []string{fmt.Sprintf("[%s]", callID)}
	if in.Message != nil {
		lines = append(lines, "      "+*in.Message)
	}
	keys := make([]string, 0, len(in.Values))
	for k := range in.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("      %s = %q", k, in.Values[k]))
	}
	if in.Message == nil && len(keys) == 0 {
		lines = append(lines, "      (null)")
	}

	if err := m.write(lines...); err != nil {
		return nil, err
	}
	if in.Message != nil {
		return *in.Message, nil
	}
	return "", nil
}

func (m *Module) compensate(ctx context.Context, args cty.Value, result any, ec *action.ExecContext) error {
	callID, _ := action.CallIDFromContext(ctx)
	ctxlog.FromContext(ctx).Info("↩️ Rolling back print.", "callID", callID)
	return m.write(fmt.Sprintf("[%s] rollback: %v", callID, result))
}

func (m *Module) write(lines ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(out, l); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
