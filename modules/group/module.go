// Package group provides the built-in grouping kind: a node with no body of
// its own, used purely to parent other nodes so they can be ordered, paced,
// or disabled as one unit.
package group

import (
	"github.com/vk/simgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the kind with the engine. A nil Build makes every
// `group` node a no-op in the scheduler.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind("group", &registry.RegisteredKind{})
}
