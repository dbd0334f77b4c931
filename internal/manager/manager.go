// Package manager owns the long-lived simulation state: the node tree, the
// entity store, and the frame counter. It builds one frame per tick,
// threading each frame's obligation table into the next so resource claims
// are honored across the frame boundary.
package manager

import (
	"context"
	"fmt"

	"github.com/vk/simgridgo/internal/ctxlog"
	"github.com/vk/simgridgo/internal/frame"
	"github.com/vk/simgridgo/internal/sim"
	"github.com/vk/simgridgo/internal/storage"
	"github.com/vk/simgridgo/internal/task"
)

// Options configures a SimManager.
type Options struct {
	Store  *storage.Store
	Runner task.Runner
	// Workers bounds concurrent node updates per frame; zero defers to the
	// frame default.
	Workers int
}

// SimManager drives the simulation tick by tick.
type SimManager struct {
	root     *sim.Node
	store    *storage.Store
	runner   task.Runner
	workers  int
	frameNum uint64
	previous *frame.ObligationTable
}

// New builds a manager around an implicit root grouping node.
func New(opts Options) *SimManager {
	return &SimManager{
		root:    sim.MustNew(sim.NodeSpec{Name: "sim-root", NoOp: true}),
		store:   opts.Store,
		runner:  opts.Runner,
		workers: opts.Workers,
	}
}

// Root returns the implicit root node; registered trees hang off it.
func (m *SimManager) Root() *sim.Node { return m.root }

// Store returns the entity store shared by all nodes.
func (m *SimManager) Store() *storage.Store { return m.store }

// FrameNumber returns the number of the last completed frame.
func (m *SimManager) FrameNumber() uint64 { return m.frameNum }

// Register attaches a node (and its subtree) under the root. Registering
// after the first frame ran is a usage error.
func (m *SimManager) Register(n *sim.Node) error {
	if m.frameNum > 0 {
		return fmt.Errorf("cannot register node %q after frame %d already ran", n.Name(), m.frameNum)
	}
	return m.root.AddChild(n)
}

// Update runs exactly one frame. The returned frame exposes per-node
// timings and statuses for callers that want them.
func (m *SimManager) Update(ctx context.Context) (*frame.Frame, error) {
	m.frameNum++
	f := frame.New(frame.Options{
		Number:   m.frameNum,
		Store:    m.store,
		Runner:   m.runner,
		Workers:  m.workers,
		Previous: m.previous,
	})
	if err := f.InitializeNodeGraph(ctx, m.root); err != nil {
		return f, fmt.Errorf("initializing frame %d: %w", m.frameNum, err)
	}
	if err := f.ExecuteNodeGraph(ctx); err != nil {
		return f, err
	}
	m.previous = f.Obligations()
	return f, nil
}

// Run executes the given number of frames, stopping on the first error or
// on context cancellation. Zero frames runs until the context ends.
func (m *SimManager) Run(ctx context.Context, frames uint64) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Simulation run starting.", "frames", frames)
	for i := uint64(0); frames == 0 || i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := m.Update(ctx); err != nil {
			return err
		}
	}
	logger.Debug("Simulation run finished.", "last_frame", m.frameNum)
	return nil
}

// Dispose tears down the node tree and the store.
func (m *SimManager) Dispose() {
	m.root.Dispose()
	if m.store != nil {
		m.store.Dispose()
	}
}
