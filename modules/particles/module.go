// Package particles provides the built-in node kinds for a simple 2D
// particle simulation: spawning entities into a page, integrating their
// motion, and reaping the ones that drift out of bounds. It doubles as the
// reference for writing custom modules.
package particles

import (
	"github.com/vk/simgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Position is a particle's location component.
type Position struct {
	X float64
	Y float64
}

// Velocity is a particle's motion component, in units per frame.
type Velocity struct {
	DX float64
	DY float64
}

// Register registers the components and node kinds with the engine. Kinds
// re-resolve their typed component handles from the store at build time, so
// one compiled module serves any number of app instances.
func (m *Module) Register(r *registry.Registry) {
	registry.RegisterComponent[Position](r, "position")
	registry.RegisterComponent[Velocity](r, "velocity")

	r.RegisterKind("particles_spawn", &registry.RegisteredKind{
		NewInput: func() any { return newSpawnInput() },
		Build:    buildSpawn,
	})
	r.RegisterKind("particles_integrate", &registry.RegisteredKind{
		NewInput: func() any { return newIntegrateInput() },
		Build:    buildIntegrate,
	})
	r.RegisterKind("particles_reap", &registry.RegisteredKind{
		NewInput: func() any { return newReapInput() },
		Build:    buildReap,
	})
}
