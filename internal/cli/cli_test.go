package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/specialistvlad/actionflow/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, exit, err := Parse([]string{"plans/"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, &app.Config{
		PlanPath:             "plans/",
		LogFormat:            "json",
		LogLevel:             "info",
		DefaultRetryAttempts: 1,
		DefaultRetryBackoff:  "linear",
		HTTPTimeout:          30 * time.Second,
	}, cfg)
}

func TestParse_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("ACTIONFLOW_PLAN", "from-env.hcl")
	t.Setenv("ACTIONFLOW_MAX_CONCURRENCY", "2")
	t.Setenv("ACTIONFLOW_LOG_LEVEL", "debug")

	cfg, _, err := Parse([]string{"--max-concurrency", "8", "--retry-attempts", "3", "--retry-delay", "1s", "--retry-backoff", "Exponential", "--dry-run"}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, "from-env.hcl", cfg.PlanPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8, cfg.MaxConcurrency)
	assert.Equal(t, 3, cfg.DefaultRetryAttempts)
	assert.Equal(t, time.Second, cfg.DefaultRetryDelay)
	assert.Equal(t, "exponential", cfg.DefaultRetryBackoff)
	assert.True(t, cfg.DryRun)
}

func TestParse_PathPrecedence(t *testing.T) {
	cfg, _, err := Parse([]string{"-plan", "a.hcl", "-p", "b.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "b.hcl", cfg.PlanPath)

	cfg, _, err = Parse([]string{"-p", "b.hcl", "c.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "c.hcl", cfg.PlanPath)
}

func TestParse_HelpAndMissingPath(t *testing.T) {
	for _, args := range [][]string{{"-h"}, {}} {
		out := &bytes.Buffer{}
		cfg, exit, err := Parse(args, out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	}
}

func TestParse_UsageErrors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown flag", args: []string{"--nope"}, want: "flag provided but not defined"},
		{name: "bad log format", args: []string{"--log-format", "xml", "p.hcl"}, want: "invalid log-format"},
		{name: "bad log level", args: []string{"--log-level", "loud", "p.hcl"}, want: "invalid log-level"},
		{name: "bad attempts", args: []string{"--retry-attempts", "0", "p.hcl"}, want: "retry-attempts"},
		{name: "bad backoff", args: []string{"--retry-backoff", "fib", "p.hcl"}, want: "unknown backoff kind"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})
			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr))
			assert.Equal(t, ExitUsage, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.want)
		})
	}
}

func TestParse_BadEnvironment(t *testing.T) {
	t.Setenv("ACTIONFLOW_RETRY_DELAY", "soon")

	_, _, err := Parse([]string{"p.hcl"}, &bytes.Buffer{})
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, ExitUsage, exitErr.Code)
}
