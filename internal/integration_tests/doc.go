// Package integration_tests holds end-to-end scenarios that drive the full
// application, from plan file to summary, with instrumented modules. Each
// subdirectory groups one area of behavior.
package integration_tests
