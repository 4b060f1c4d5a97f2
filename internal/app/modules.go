package app

import (
	"github.com/vk/aether/internal/registry"
	"github.com/vk/aether/modules/axis"
	"github.com/vk/aether/modules/label"
	"github.com/vk/aether/modules/line"
	"github.com/vk/aether/modules/root"
)

// coreModules is the definitive list of all node type modules that are
// compiled into the aether binary.
var coreModules = []registry.Module{
	&root.Module{},
	&axis.Module{},
	&line.Module{},
	&label.Module{},
}

// CoreModules returns the compiled-in modules.
func CoreModules() []registry.Module {
	return append([]registry.Module(nil), coreModules...)
}
