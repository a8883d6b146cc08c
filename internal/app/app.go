package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/specialistvlad/actionflow/internal/ctxlog"
	"github.com/specialistvlad/actionflow/internal/metrics"
	"github.com/specialistvlad/actionflow/internal/registry"
	"github.com/specialistvlad/actionflow/modules/http_client"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	ctx        context.Context
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	gatherer   prometheus.Gatherer
	collector  *metrics.Collector
	httpClient *http.Client
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger, metrics
// registry and locked action registry. When no modules are given the
// built-in ones are registered.
//
// A module that fails to register is a programmer error and panics.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	client := http_client.New(cfg.HTTPTimeout)

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules(outW, client)
	}
	for _, mod := range modules {
		if err := mod.Register(reg); err != nil {
			panic(fmt.Errorf("failed to register module %T: %w", mod, err))
		}
	}
	reg.Lock()
	logger.Debug("All Go modules registered.", "modules", len(modules), "actions", reg.Len())

	promReg := prometheus.NewRegistry()

	return &App{
		outW:       outW,
		ctx:        ctx,
		logger:     logger,
		config:     cfg,
		registry:   reg,
		gatherer:   promReg,
		collector:  metrics.New(promReg),
		httpClient: client,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
