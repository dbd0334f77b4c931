package particles

import (
	"github.com/vk/simgridgo/internal/storage"
)

// handles bundles the typed component lookups every kind in this module
// needs, resolved once per built node.
type handles struct {
	pos storage.ComponentType[Position]
	vel storage.ComponentType[Velocity]
}

func resolveHandles(store *storage.Store) (handles, error) {
	pos, err := storage.LookupComponent[Position](store.Components(), "position")
	if err != nil {
		return handles{}, err
	}
	vel, err := storage.LookupComponent[Velocity](store.Components(), "velocity")
	if err != nil {
		return handles{}, err
	}
	return handles{pos: pos, vel: vel}, nil
}
