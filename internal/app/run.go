package app

import (
	"context"
	"fmt"

	"github.com/vk/simgridgo/internal/ctxlog"
	"github.com/vk/simgridgo/internal/manager"
)

// Run executes the loaded scenario: it builds the store and node tree, then
// drives the simulation for the configured number of frames. CLI flags win
// over the scenario's `simulation` block where both are set.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	store, err := a.buildStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to build store: %w", err)
	}

	workers := a.appConfig.Workers
	if workers <= 0 {
		workers = a.model.Settings.Workers
	}
	mgr := manager.New(manager.Options{Store: store, Workers: workers})
	defer mgr.Dispose()

	if err := a.buildTree(ctx, store, mgr); err != nil {
		return fmt.Errorf("failed to build node tree: %w", err)
	}

	frames := a.appConfig.Frames
	if frames == 0 {
		frames = a.model.Settings.Frames
	}

	a.logger.Info("Starting simulation.",
		"frames", frames, "workers", workers, "nodes", len(a.model.Nodes), "pages", len(a.model.Pages))
	if err := mgr.Run(ctx, frames); err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	for _, page := range store.Pages() {
		a.logger.Info("Page summary.",
			"page", page.Name(), "live", page.Count(), "chunks", page.ChunkCount())
	}
	a.logger.Info("Simulation finished.", "frames_run", mgr.FrameNumber())
	a.logger.Debug("App.Run method finished.")
	return nil
}
