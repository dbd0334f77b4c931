package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/simgridgo/internal/config"
	"github.com/vk/simgridgo/internal/sim"
	"github.com/vk/simgridgo/internal/storage"
)

// BuildArgs carries everything a kind's Build function may need when a node
// is instantiated from a scenario.
type BuildArgs struct {
	// Def is the scenario block the node was declared by.
	Def *config.NodeDef
	// Input is the decoded arguments struct, the value NewInput returned.
	// Nil for kinds without NewInput.
	Input any
	// Store is the scenario's entity store.
	Store *storage.Store
}

// RegisteredKind holds the compiled Go parts of one node kind.
type RegisteredKind struct {
	// NewInput returns a fresh input struct for the Converter to decode a
	// node's arguments into. Nil for kinds without arguments.
	NewInput func() any
	// Build produces the node's Logic. Nil for grouping kinds; their nodes
	// become no-ops.
	Build func(ctx context.Context, args BuildArgs) (sim.Logic, error)
}

// RegisterKind registers a node kind under a unique name.
func (r *Registry) RegisterKind(name string, kind *RegisteredKind) {
	if _, exists := r.kinds[name]; exists {
		panic(fmt.Sprintf("node kind with name '%s' already registered", name))
	}
	slog.Debug("Registering node kind.", "name", name)
	r.kinds[name] = kind
}

// RegisterComponent registers a component type under a unique name and
// returns its typed handle for the module's own column access.
func RegisterComponent[T any](r *Registry, name string) storage.ComponentType[T] {
	if _, exists := r.components[name]; exists {
		panic(fmt.Sprintf("component with name '%s' already registered", name))
	}
	slog.Debug("Registering component type.", "name", name)
	ct := storage.RegisterComponent[T](r.types, name)
	r.components[name] = ct
	return ct
}
