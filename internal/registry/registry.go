package registry

import (
	"github.com/vk/simgridgo/internal/storage"
)

// Module is the interface that all built-in modules implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds all the registered node kinds and component types for a
// single application instance.
type Registry struct {
	kinds      map[string]*RegisteredKind
	components map[string]storage.Component
	types      *storage.ComponentRegistry
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		kinds:      make(map[string]*RegisteredKind),
		components: make(map[string]storage.Component),
		types:      storage.NewComponentRegistry(),
	}
}

// ComponentRegistry returns the underlying component type registry, shared
// with the store built for a scenario.
func (r *Registry) ComponentRegistry() *storage.ComponentRegistry {
	return r.types
}

// Kind looks up a registered node kind by name.
func (r *Registry) Kind(name string) (*RegisteredKind, bool) {
	k, ok := r.kinds[name]
	return k, ok
}

// Component looks up a registered component by name.
func (r *Registry) Component(name string) (storage.Component, bool) {
	c, ok := r.components[name]
	return c, ok
}

// ComponentsFor resolves a list of component names into their type-erased
// handles; every name must be registered.
func (r *Registry) ComponentsFor(names []string) ([]storage.Component, bool) {
	comps := make([]storage.Component, 0, len(names))
	for _, name := range names {
		c, ok := r.components[name]
		if !ok {
			return nil, false
		}
		comps = append(comps, c)
	}
	return comps, true
}
