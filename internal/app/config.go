package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/specialistvlad/actionflow/internal/action"
)

// Config holds all the necessary configuration for an App instance to run.
// Every field can be preset from an ACTIONFLOW_* environment variable.
type Config struct {
	PlanPath string `env:"ACTIONFLOW_PLAN"` // .hcl file or directory

	LogFormat       string `env:"ACTIONFLOW_LOG_FORMAT" envDefault:"json"`
	LogLevel        string `env:"ACTIONFLOW_LOG_LEVEL" envDefault:"info"`
	HealthcheckPort int    `env:"ACTIONFLOW_HEALTHCHECK_PORT" envDefault:"0"`

	MaxConcurrency       int           `env:"ACTIONFLOW_MAX_CONCURRENCY" envDefault:"0"`
	DisableRetry         bool          `env:"ACTIONFLOW_DISABLE_RETRY"`
	DisableCompensation  bool          `env:"ACTIONFLOW_DISABLE_COMPENSATION"`
	DefaultRetryAttempts int           `env:"ACTIONFLOW_RETRY_ATTEMPTS" envDefault:"1"`
	DefaultRetryDelay    time.Duration `env:"ACTIONFLOW_RETRY_DELAY" envDefault:"0s"`
	DefaultRetryBackoff  string        `env:"ACTIONFLOW_RETRY_BACKOFF" envDefault:"linear"`
	HTTPTimeout          time.Duration `env:"ACTIONFLOW_HTTP_TIMEOUT" envDefault:"30s"`

	DryRun bool `env:"ACTIONFLOW_DRY_RUN"`
}

// ConfigFromEnv returns a Config populated from the environment, with
// defaults for everything that is unset.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PlanPath == "" {
		return nil, errors.New("PlanPath is a required configuration field and cannot be empty")
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck-port %d", cfg.HealthcheckPort)
	}
	if cfg.MaxConcurrency < 0 {
		return nil, fmt.Errorf("max-concurrency must not be negative, got %d", cfg.MaxConcurrency)
	}
	if cfg.DefaultRetryAttempts < 1 {
		return nil, fmt.Errorf("retry-attempts must be at least 1, got %d", cfg.DefaultRetryAttempts)
	}
	if cfg.DefaultRetryDelay < 0 {
		return nil, fmt.Errorf("retry-delay must not be negative, got %v", cfg.DefaultRetryDelay)
	}
	if _, err := action.ParseBackoffKind(cfg.DefaultRetryBackoff); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// retryPolicy is the engine-wide default built from the config.
func (c *Config) retryPolicy() *action.RetryPolicy {
	kind, _ := action.ParseBackoffKind(c.DefaultRetryBackoff)
	return &action.RetryPolicy{
		MaxAttempts: c.DefaultRetryAttempts,
		Backoff:     kind,
		BaseDelay:   c.DefaultRetryDelay,
	}
}
