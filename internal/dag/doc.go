// Package dag builds the call graph of a single execution.
//
// Every call of a plan becomes a node. A call waits for the calls it names
// explicitly in DependsOn and, for each dependency declared by its action,
// for every call in the plan that invokes that dependency action. The graph
// keeps plan order so that batching stays deterministic.
package dag
