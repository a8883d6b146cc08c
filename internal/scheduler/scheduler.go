package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/actionflow/internal/action"
	"github.com/specialistvlad/actionflow/internal/ctxlog"
	"github.com/specialistvlad/actionflow/internal/dag"
)

// ErrCycleDetected is matched by *CycleDetectedError.
var ErrCycleDetected = errors.New("dependency cycle detected")

// CycleDetectedError reports the calls that could never become ready.
type CycleDetectedError struct {
	// Remaining holds the unscheduled call ids in plan order.
	Remaining []string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("dependency cycle detected among calls: %s", strings.Join(e.Remaining, ", "))
}

func (e *CycleDetectedError) Is(target error) bool { return target == ErrCycleDetected }

// Batches partitions g into consecutive batches. It returns
// *CycleDetectedError when some calls can never become ready.
func Batches(g *dag.Graph) ([][]string, error) {
	inDegree := g.InDegrees()

	var ready []string
	for _, id := range g.IDs() {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	var batches [][]string
	scheduled := 0
	for len(ready) > 0 {
		batch := ready
		batches = append(batches, batch)
		scheduled += len(batch)

		ready = nil
		for _, id := range batch {
			dependents, err := g.Dependents(id)
			if err != nil {
				return nil, err
			}
			for _, next := range dependents {
				inDegree[next]--
				if inDegree[next] == 0 {
					ready = append(ready, next)
				}
			}
		}
		sort.Slice(ready, func(i, j int) bool { return g.Position(ready[i]) < g.Position(ready[j]) })
	}

	if scheduled < g.Len() {
		var remaining []string
		for _, id := range g.IDs() {
			if inDegree[id] > 0 {
				remaining = append(remaining, id)
			}
		}
		return nil, &CycleDetectedError{Remaining: remaining}
	}
	return batches, nil
}

// Schedule builds the call graph of plan and partitions it. It is a pure
// function of the plan and the definitions.
func Schedule(ctx context.Context, plan *action.Plan, defs dag.Definitions) ([][]string, error) {
	g, err := dag.Build(ctx, plan, defs)
	if err != nil {
		return nil, err
	}
	batches, err := Batches(g)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Plan scheduled.", "calls", g.Len(), "batches", len(batches))
	return batches, nil
}
