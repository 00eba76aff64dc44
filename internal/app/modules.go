package app

import (
	"github.com/vk/hookbind/internal/registry"
	"github.com/vk/hookbind/modules/wordpress"
)

// coreModules is the definitive list of annotation kind modules compiled
// into the hookbind binary.
var coreModules = []registry.Module{
	&wordpress.Module{},
}

// NewRegistry registers modules, or the core modules when none are given.
func NewRegistry(modules ...registry.Module) *registry.Registry {
	if len(modules) == 0 {
		modules = coreModules
	}
	return registry.New(modules...)
}
