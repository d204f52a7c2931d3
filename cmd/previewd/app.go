// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"previewd/internal/config"
	"previewd/internal/preview"
	"previewd/internal/runtime"
)

// App wires CLI services and shared dependencies. All Cobra command
// handlers receive an App reference and reach the orchestrator, container
// manager, and runtime manager through it.
type App struct {
	Config config.Provider
	stdout io.Writer
	stderr io.Writer
}

// Dependencies defines the injection points for building an App. Nil fields
// are replaced with production defaults by NewApp. Tests can supply mock
// implementations.
type Dependencies struct {
	Config config.Provider
	Stdout io.Writer
	Stderr io.Writer
}

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	return &App{
		Config: deps.Config,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
}

// loadConfig loads the previewd configuration, honoring the --config flag.
func (a *App) loadConfig(ctx context.Context) (*config.PreviewConfig, error) {
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: cfgFile})
}

// runtimeManager builds the engine locator for the configured preference.
func (a *App) runtimeManager(cfg *config.PreviewConfig) *runtime.Manager {
	return runtime.NewManager(cfg.Engine)
}

// containerManager returns a manager bound to a ready engine, starting the
// engine if it is installed but stopped.
func (a *App) containerManager(ctx context.Context) (*preview.ContainerManager, *config.PreviewConfig, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	engine, err := a.runtimeManager(cfg).Engine(ctx)
	if err != nil {
		return nil, nil, err
	}
	return preview.NewContainerManager(engine, cfg), cfg, nil
}

// orchestrator returns an orchestrator for the loaded configuration. It is
// not initialized; the first start request initializes it lazily.
func (a *App) orchestrator(ctx context.Context) (*preview.Orchestrator, *config.PreviewConfig, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	return preview.NewOrchestrator(cfg, preview.WithRuntimeManager(a.runtimeManager(cfg))), cfg, nil
}
