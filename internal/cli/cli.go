package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/actionflow/internal/app"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments on top of the environment
// defaults. It returns a validated config, a boolean indicating if the
// program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	defaults, err := app.ConfigFromEnv()
	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	flagSet := flag.NewFlagSet("actionflow", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
ActionFlow - runs a plan of actions in dependency order and rolls back
completed work when a call fails.

Usage:
  actionflow [options] [PLAN_PATH]

Arguments:
  PLAN_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Every option can also be set with the ACTIONFLOW_* environment variable
named after it, e.g. ACTIONFLOW_MAX_CONCURRENCY.

Options:
`)
		flagSet.PrintDefaults()
	}

	planFlag := flagSet.String("plan", defaults.PlanPath, "Path to the plan file or directory.")
	pFlag := flagSet.String("p", "", "Path to the plan file or directory (shorthand).")
	healthPortFlag := flagSet.Int("healthcheck-port", defaults.HealthcheckPort, "Port for the /health and /metrics server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", defaults.LogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", defaults.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	concurrencyFlag := flagSet.Int("max-concurrency", defaults.MaxConcurrency, "Maximum calls running at once within a batch. 0 is unlimited.")
	attemptsFlag := flagSet.Int("retry-attempts", defaults.DefaultRetryAttempts, "Default attempts per call, including the first.")
	delayFlag := flagSet.Duration("retry-delay", defaults.DefaultRetryDelay, "Default base delay between attempts.")
	backoffFlag := flagSet.String("retry-backoff", defaults.DefaultRetryBackoff, "Default backoff. Options: 'linear' or 'exponential'.")
	noRetryFlag := flagSet.Bool("disable-retry", defaults.DisableRetry, "Run every call exactly once.")
	noCompFlag := flagSet.Bool("disable-compensation", defaults.DisableCompensation, "Do not roll back succeeded calls after a failure.")
	httpTimeoutFlag := flagSet.Duration("http-timeout", defaults.HTTPTimeout, "Timeout of the shared HTTP client used by network actions.")
	dryRunFlag := flagSet.Bool("dry-run", defaults.DryRun, "Print the batch partition without running anything.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := *planFlag
	if *pFlag != "" {
		path = *pFlag
	}
	if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Plan path determined.", "path", path)

	if path == "" {
		slog.Debug("No plan path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(app.Config{
		PlanPath:             path,
		LogFormat:            strings.ToLower(*logFormatFlag),
		LogLevel:             strings.ToLower(*logLevelFlag),
		HealthcheckPort:      *healthPortFlag,
		MaxConcurrency:       *concurrencyFlag,
		DisableRetry:         *noRetryFlag,
		DisableCompensation:  *noCompFlag,
		DefaultRetryAttempts: *attemptsFlag,
		DefaultRetryDelay:    *delayFlag,
		DefaultRetryBackoff:  strings.ToLower(*backoffFlag),
		HTTPTimeout:          *httpTimeoutFlag,
		DryRun:               *dryRunFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
