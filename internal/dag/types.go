package dag

import "sync"

// Graph is a set of calls and the dependencies between them. Nodes remember
// the order in which they were added, which the scheduler uses as plan
// position. All operations on the graph are concurrency-safe.
type Graph struct {
	// mutex protects nodes and order.
	mutex sync.RWMutex
	// nodes stores all nodes in the graph, keyed by call id.
	nodes map[string]*node
	// order holds node ids in insertion order.
	order []string
}

// node is a single vertex of the graph. It is un-exported so callers work
// with call ids only.
type node struct {
	id string
	// position is the insertion index of the node.
	position int
	// deps holds the nodes this node waits for.
	deps map[string]*node
	// dependents holds the nodes waiting for this one.
	dependents map[string]*node
}
