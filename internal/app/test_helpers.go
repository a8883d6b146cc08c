package app

import (
	"os"
	"testing"
	"time"

	"github.com/specialistvlad/actionflow/internal/registry"
	"github.com/specialistvlad/actionflow/internal/testutil"
	"github.com/stretchr/testify/require"
)

// SetupAppTest creates a new app instance for system testing. Logs are
// dumped when ACTIONFLOW_TEST_LOGS=true.
func SetupAppTest(t *testing.T, cfg Config, modules ...registry.Module) (*App, *testutil.SafeBuffer) {
	t.Helper()

	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	cfg.LogLevel = "debug"
	if cfg.DefaultRetryAttempts == 0 {
		cfg.DefaultRetryAttempts = 1
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = time.Second
	}
	validated, err := NewConfig(cfg)
	require.NoError(t, err)

	out := &testutil.SafeBuffer{}
	testApp := NewApp(out, validated, modules...)

	t.Cleanup(func() {
		if os.Getenv("ACTIONFLOW_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), out.String())
		}
	})

	return testApp, out
}
