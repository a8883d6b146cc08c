// Package executor runs a plan of action calls against a registry.
//
// An execution schedules the plan into batches, runs every call of a batch
// concurrently, retries failing handlers according to their retry policy
// and, as soon as a batch ends with a failure, stops scheduling and
// compensates the calls that already succeeded in reverse completion order.
package executor
