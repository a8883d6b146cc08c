package dag

import (
	"context"

	"github.com/specialistvlad/actionflow/internal/action"
	"github.com/specialistvlad/actionflow/internal/ctxlog"
)

// Definitions looks up action definitions by id. *registry.Registry
// satisfies it.
type Definitions interface {
	Get(id string) (*action.Definition, bool)
}

// Build constructs the call graph of plan. Calls whose action is unknown get
// no action-level edges; the engine reports them when they run.
func Build(ctx context.Context, plan *action.Plan, defs Definitions) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	g := New()
	if plan == nil {
		return g, nil
	}

	// First pass: one node per call, and calls grouped by action.
	byAction := make(map[string][]string)
	for i, call := range plan.Calls {
		if call.ID == "" {
			return nil, &InvalidCallError{Index: i, Reason: "call id is empty"}
		}
		if !g.AddNode(call.ID) {
			return nil, &DuplicateCallError{CallID: call.ID}
		}
		byAction[call.ActionID] = append(byAction[call.ActionID], call.ID)
	}

	// Second pass: explicit edges, then action-level edges.
	for _, call := range plan.Calls {
		for _, dep := range call.DependsOn {
			if !g.Has(dep) {
				return nil, &UnknownCallError{CallID: call.ID, DependsOn: dep}
			}
			if err := g.AddEdge(dep, call.ID); err != nil {
				return nil, err
			}
		}

		def, ok := defs.Get(call.ActionID)
		if !ok {
			continue
		}
		for _, depAction := range def.Dependencies {
			for _, depCall := range byAction[depAction] {
				if depCall == call.ID {
					continue
				}
				if err := g.AddEdge(depCall, call.ID); err != nil {
					return nil, err
				}
			}
		}
	}

	logger.Debug("Call graph built.", "calls", g.Len())
	return g, nil
}
