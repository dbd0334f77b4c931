package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/simgridgo/internal/config"
	"github.com/vk/simgridgo/internal/ctxlog"
	"github.com/vk/simgridgo/internal/registry"
)

// App encapsulates the engine's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	appConfig *Config
	registry  *registry.Registry
	model     *config.Model
	converter config.Converter
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Configuration problems are treated as fatal startup errors and panic; the
// CLI entrypoint recovers them into a clean exit.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, converter, err := loader.Load(ctx, appConfig.ScenarioPath)
	if err != nil {
		panic(fmt.Errorf("failed to load scenario: %w", err))
	}
	logger.Debug("Scenario loaded and translated into unified model.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := reg.ValidateScenario(ctx, model); err != nil {
		panic(err)
	}
	logger.Debug("Scenario validation passed.")

	return &App{
		outW:      outW,
		logger:    logger,
		appConfig: appConfig,
		registry:  reg,
		model:     model,
		converter: converter,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded scenario model. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}
