package app

import (
	"github.com/vk/simgridgo/internal/registry"
	"github.com/vk/simgridgo/modules/group"
	"github.com/vk/simgridgo/modules/particles"
)

// coreModules is the definitive list of all modules that are compiled into
// the simgridgo binary.
var coreModules = []registry.Module{
	&particles.Module{},
	&group.Module{},
}
