// Package sleep provides the `sleep` action. It is mostly useful for demos
// and for exercising concurrency and retry settings.
package sleep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/actionflow/internal/action"
	"github.com/specialistvlad/actionflow/internal/ctxlog"
	"github.com/specialistvlad/actionflow/internal/ctyconv"
	"github.com/specialistvlad/actionflow/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// ActionID is the id under which the action is registered.
const ActionID = "sleep"

// ErrRequestedFailure is returned after sleeping when `fail = true`.
var ErrRequestedFailure = errors.New("sleep: failure requested by arguments")

// Shape is the argument shape of the action.
var Shape = cty.ObjectWithOptionalAttrs(map[string]cty.Type{
	"duration": cty.String,
	"fail":     cty.Bool,
}, []string{"fail"})

// Input defines the arguments of a sleep call.
type Input struct {
	Duration string `cty:"duration"`
	Fail     *bool  `cty:"fail"`
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the action.
func (m *Module) Register(r *registry.Registry) error {
	return r.Register(&action.Definition{
		ID:          ActionID,
		Description: "Waits for the given duration, optionally failing afterwards.",
		Arguments:   Shape,
		Tags:        []string{"builtin", "demo"},
		Handler:     action.HandlerFunc(run),
	})
}

func run(ctx context.Context, args cty.Value, ec *action.ExecContext) (any, error) {
	var in Input
	if err := ctyconv.Decode(args, Shape, &in); err != nil {
		return nil, action.Permanent(err)
	}
	d, err := time.ParseDuration(in.Duration)
	if err != nil {
		return nil, action.Permanent(fmt.Errorf("invalid duration %q: %w", in.Duration, err))
	}

	ctxlog.FromContext(ctx).Debug("Sleeping.", "duration", d)

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	if in.Fail != nil && *in.Fail {
		return nil, ErrRequestedFailure
	}
	return d.String(), nil
}
