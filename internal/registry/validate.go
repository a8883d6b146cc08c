package registry

// cycleFrame is one pending step of the cycle search: the node to visit and
// the path that led to it.
type cycleFrame struct {
	node string
	path []string
}

// findCycle reports whether id is reachable from its own dependency list,
// following the dependency lists of already-registered actions. It returns
// the offending path (starting and ending with id) or nil.
// The caller must hold the registry lock.
func (r *Registry) findCycle(id string, deps []string) []string {
	stack := make([]cycleFrame, 0, len(deps))
	// Push in reverse so the first declared dependency is explored first.
	for i := len(deps) - 1; i >= 0; i-- {
		stack = append(stack, cycleFrame{node: deps[i], path: []string{id, deps[i]}})
	}

	visited := make(map[string]bool)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.node == id {
			return f.path
		}
		if visited[f.node] {
			continue
		}
		visited[f.node] = true

		def, ok := r.defs[f.node]
		if !ok {
			// Unknown dependencies are reported separately.
			continue
		}
		for i := len(def.Dependencies) - 1; i >= 0; i-- {
			next := def.Dependencies[i]
			path := make([]string, len(f.path), len(f.path)+1)
			copy(path, f.path)
			stack = append(stack, cycleFrame{node: next, path: append(path, next)})
		}
	}
	return nil
}
