package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/simgridgo/internal/ctxlog"
	"github.com/vk/simgridgo/internal/manager"
	"github.com/vk/simgridgo/internal/registry"
	"github.com/vk/simgridgo/internal/sim"
	"github.com/vk/simgridgo/internal/storage"
)

// buildStore creates the entity store and one page per scenario `page`
// block. Pages are created in name order so page ids are stable across runs.
func (a *App) buildStore(ctx context.Context) (*storage.Store, error) {
	logger := ctxlog.FromContext(ctx)
	settings := a.model.Settings

	store := storage.NewStore(storage.StoreOptions{
		EntityCapacity: settings.EntityCapacity,
		Checked:        settings.Checked,
		Components:     a.registry.ComponentRegistry(),
	})

	names := make([]string, 0, len(a.model.Pages))
	for name := range a.model.Pages {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := a.model.Pages[name]
		comps, ok := a.registry.ComponentsFor(def.Components)
		if !ok {
			return nil, fmt.Errorf("page %q references an unregistered component", def.Name)
		}
		page, err := store.CreatePage(def.Name, storage.PageOptions{
			ChunkSize: def.ChunkSize,
			MaxChunks: def.MaxChunks,
			AutoPack:  def.AutoPack,
		}, comps...)
		if err != nil {
			return nil, fmt.Errorf("creating page %q: %w", def.Name, err)
		}
		logger.Debug("Page created.",
			"page", page.Name(), "chunk_size", page.ChunkSize(), "components", def.Components)
	}
	return store, nil
}

// buildTree instantiates every scenario node through its registered kind and
// wires the parent relationships, attaching parentless nodes to the manager
// root.
func (a *App) buildTree(ctx context.Context, store *storage.Store, mgr *manager.SimManager) error {
	logger := ctxlog.FromContext(ctx)
	built := make(map[string]*sim.Node, len(a.model.Nodes))

	for _, def := range a.model.Nodes {
		kind, ok := a.registry.Kind(def.Kind)
		if !ok {
			return fmt.Errorf("node %q: kind %q is not registered", def.Name, def.Kind)
		}

		var input any
		if kind.NewInput != nil {
			input = kind.NewInput()
			if err := a.converter.DecodeArguments(ctx, input, def.Arguments, nil); err != nil {
				return fmt.Errorf("node %q: %w", def.Name, err)
			}
		}

		var logic sim.Logic
		if kind.Build != nil {
			var err error
			logic, err = kind.Build(ctx, registry.BuildArgs{Def: def, Input: input, Store: store})
			if err != nil {
				return fmt.Errorf("building node %q: %w", def.Name, err)
			}
		}

		node, err := sim.New(sim.NodeSpec{
			Name:         def.Name,
			Priority:     def.Priority,
			NoOp:         kind.Build == nil,
			Reads:        def.Reads,
			Writes:       def.Writes,
			UpdateAfter:  def.UpdateAfter,
			UpdateBefore: def.UpdateBefore,
			Logic:        logic,
		})
		if err != nil {
			return fmt.Errorf("node %q: %w", def.Name, err)
		}
		if def.PaceEvery > 1 {
			node.SetPaceEvery(def.PaceEvery)
		}
		built[def.Name] = node
		logger.Debug("Node built.", "node", def.Name, "kind", def.Kind)
	}

	for _, def := range a.model.Nodes {
		node := built[def.Name]
		if def.Parent == "" {
			if err := mgr.Register(node); err != nil {
				return fmt.Errorf("registering node %q: %w", def.Name, err)
			}
			continue
		}
		parent, ok := built[def.Parent]
		if !ok {
			return fmt.Errorf("node %q: parent %q is not declared", def.Name, def.Parent)
		}
		if err := parent.AddChild(node); err != nil {
			return fmt.Errorf("attaching node %q under %q: %w", def.Name, def.Parent, err)
		}
	}
	return nil
}
