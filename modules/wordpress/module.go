// Package wordpress provides the annotation kinds that bind annotated
// instances to a WordPress-style hook and asset runtime.
package wordpress

import (
	"reflect"

	"github.com/vk/hookbind/internal/annotation"
	"github.com/vk/hookbind/internal/registry"
)

// Annotation kinds registered by Module.
const (
	KindFilter     = "filter"
	KindAction     = "action"
	KindScript     = "script"
	KindStylesheet = "stylesheet"
	KindPlugin     = "plugin"
	KindLifecycle  = "lifecycle"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers every annotation kind of the package.
func (m *Module) Register(r *registry.Registry) {
	for _, kind := range []string{KindFilter, KindAction} {
		r.RegisterAnnotation(kind, &registry.RegisteredAnnotation{
			Target:      annotation.TargetMethod,
			Config:      reflect.TypeOf(EventConfig{}),
			Description: "Binds the method as a listener of a host event.",
			New: func(attrs annotation.Attributes) (annotation.Annotation, error) {
				return NewEvent(kind, attrs)
			},
		})
	}
	r.RegisterAnnotation(KindScript, &registry.RegisteredAnnotation{
		Target:      annotation.TargetField,
		Config:      reflect.TypeOf(ScriptConfig{}),
		Description: "Registers the script the field points to on every render event.",
		New:         NewScript,
	})
	r.RegisterAnnotation(KindStylesheet, &registry.RegisteredAnnotation{
		Target:      annotation.TargetField,
		Config:      reflect.TypeOf(StylesheetConfig{}),
		Description: "Registers the stylesheet the field points to on every render event.",
		New:         NewStylesheet,
	})
	r.RegisterAnnotation(KindPlugin, &registry.RegisteredAnnotation{
		Target:      annotation.TargetType,
		Config:      reflect.TypeOf(PluginConfig{}),
		Description: "Names the plugin file later annotations of the type refer to.",
		New:         NewPlugin,
	})
	r.RegisterAnnotation(KindLifecycle, &registry.RegisteredAnnotation{
		Target:      annotation.TargetMethod,
		Config:      reflect.TypeOf(LifecycleConfig{}),
		Description: "Runs the method when the plugin is activated or deactivated.",
		New:         NewLifecycle,
	})
}
