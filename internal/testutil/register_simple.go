package testutil

import "github.com/vk/hookbind/internal/registry"

// SimpleModule is a test helper for easily creating a mock module that
// registers a single annotation kind.
type SimpleModule struct {
	Kind       string
	Annotation *registry.RegisteredAnnotation
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	if m.Kind != "" && m.Annotation != nil {
		r.RegisterAnnotation(m.Kind, m.Annotation)
	}
}
