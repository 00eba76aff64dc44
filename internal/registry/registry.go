package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/vk/hookbind/internal/annotation"
)

// ErrUnknownKind is returned when metadata names an unregistered kind.
var ErrUnknownKind = errors.New("unknown annotation kind")

// Module is the interface that all annotation modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// RegisteredAnnotation holds the compiled Go parts of one annotation kind.
type RegisteredAnnotation struct {
	Target annotation.Target
	// Config is the struct type the attributes decode into.
	Config      reflect.Type
	Description string
	New         func(attrs annotation.Attributes) (annotation.Annotation, error)
}

// Registry holds all the registered annotation kinds for a single
// application instance.
type Registry struct {
	kinds map[string]*RegisteredAnnotation
}

// New creates and initializes a new Registry instance.
func New(modules ...Module) *Registry {
	r := &Registry{kinds: make(map[string]*RegisteredAnnotation)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// RegisterAnnotation registers the constructor of an annotation kind.
func (r *Registry) RegisterAnnotation(kind string, ra *RegisteredAnnotation) {
	if _, exists := r.kinds[kind]; exists {
		panic(fmt.Sprintf("annotation kind '%s' already registered", kind))
	}
	if ra == nil || ra.New == nil {
		panic(fmt.Sprintf("annotation kind '%s' registered without a constructor", kind))
	}
	slog.Debug("Registering annotation kind.", "kind", kind, "target", ra.Target)
	r.kinds[kind] = ra
}

// Lookup returns the registration of kind.
func (r *Registry) Lookup(kind string) (*RegisteredAnnotation, bool) {
	ra, ok := r.kinds[kind]
	return ra, ok
}

// Kinds returns the registered kind names in sorted order.
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.kinds))
	for k := range r.kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build constructs an annotation of kind from its attributes. Attribute
// problems are reported as annotation.ConfigurationError.
func (r *Registry) Build(kind string, attrs annotation.Attributes) (annotation.Annotation, error) {
	ra, ok := r.kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if attrs == nil {
		attrs = annotation.Attributes{}
	}
	a, err := ra.New(attrs)
	if err != nil {
		var cfgErr *annotation.ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, err
		}
		return nil, &annotation.ConfigurationError{Kind: kind, Reason: err.Error()}
	}
	if a.Target() != ra.Target {
		return nil, fmt.Errorf("annotation kind %q built a %s annotation, registered for %s", kind, a.Target(), ra.Target)
	}
	return a, nil
}
