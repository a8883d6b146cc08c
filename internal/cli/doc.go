// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates CLI flags and ACTIONFLOW_* environment variables into the
// application's configuration.
package cli
