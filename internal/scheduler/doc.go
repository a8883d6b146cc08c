// Package scheduler splits a call graph into batches.
//
// A batch is a set of calls whose dependencies all belong to earlier
// batches, so every call inside a batch may run concurrently. Batches are
// produced with Kahn's algorithm, taking every ready call at once instead of
// one at a time. Calls inside a batch keep their plan order, so the same plan
// always yields the same partition.
package scheduler
