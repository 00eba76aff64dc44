package tags

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/vk/hookbind/internal/annotation"
	"github.com/vk/hookbind/internal/metadata"
	"github.com/vk/hookbind/internal/registry"
)

// Tag keys read from struct fields.
const (
	HookKey   = "hook"
	MethodKey = "method"
)

// Type marks a blank field whose hook tag holds type annotations.
type Type struct{}

// Method marks a blank field whose hook tag holds annotations for the method
// named by its method tag.
type Method struct{}

var (
	typeMarker   = reflect.TypeOf(Type{})
	methodMarker = reflect.TypeOf(Method{})
)

type parsed struct {
	types   []annotation.Annotation
	fields  map[string][]annotation.Annotation
	methods map[string][]annotation.Annotation
}

// Source is a metadata.Source over struct tags. Tags of a type are parsed
// and built once, on first use, and cached.
type Source struct {
	registry *registry.Registry
	cache    sync.Map // reflect.Type -> *parsed
}

var _ metadata.Source = (*Source)(nil)

// NewSource creates a tag source that builds annotations through r.
func NewSource(r *registry.Registry) *Source {
	return &Source{registry: r}
}

// TypeAnnotations implements metadata.Source.
func (s *Source) TypeAnnotations(_ context.Context, t reflect.Type) ([]annotation.Annotation, error) {
	p, err := s.load(t)
	if err != nil {
		return nil, err
	}
	return p.types, nil
}

// FieldAnnotations implements metadata.Source.
func (s *Source) FieldAnnotations(_ context.Context, t reflect.Type, f reflect.StructField) ([]annotation.Annotation, error) {
	p, err := s.load(t)
	if err != nil {
		return nil, err
	}
	return p.fields[f.Name], nil
}

// MethodAnnotations implements metadata.Source.
func (s *Source) MethodAnnotations(_ context.Context, t reflect.Type, m reflect.Method) ([]annotation.Annotation, error) {
	p, err := s.load(t)
	if err != nil {
		return nil, err
	}
	return p.methods[m.Name], nil
}

func (s *Source) load(t reflect.Type) (*parsed, error) {
	st, err := metadata.StructType(t)
	if err != nil {
		return nil, err
	}
	if p, ok := s.cache.Load(st); ok {
		return p.(*parsed), nil
	}
	p, err := s.parse(st)
	if err != nil {
		return nil, fmt.Errorf("tags of %s: %w", metadata.ShortTypeName(st), err)
	}
	actual, _ := s.cache.LoadOrStore(st, p)
	return actual.(*parsed), nil
}

func (s *Source) parse(st reflect.Type) (*parsed, error) {
	p := &parsed{
		fields:  make(map[string][]annotation.Annotation),
		methods: make(map[string][]annotation.Annotation),
	}
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		tag, ok := f.Tag.Lookup(HookKey)
		if !ok {
			if f.Type == methodMarker {
				return nil, fmt.Errorf("field %d: method marker without a %s tag", i, HookKey)
			}
			continue
		}
		as, err := s.build(tag)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fieldLabel(f, i), err)
		}

		switch f.Type {
		case typeMarker:
			p.types = append(p.types, as...)
		case methodMarker:
			name := f.Tag.Get(MethodKey)
			if name == "" {
				return nil, fmt.Errorf("field %s: method marker without a %s tag", fieldLabel(f, i), MethodKey)
			}
			if _, ok := reflect.PointerTo(st).MethodByName(name); !ok {
				return nil, fmt.Errorf("field %s: %s has no method %q", fieldLabel(f, i), st, name)
			}
			p.methods[name] = append(p.methods[name], as...)
		default:
			p.fields[f.Name] = append(p.fields[f.Name], as...)
		}
	}
	return p, nil
}

func (s *Source) build(tag string) ([]annotation.Annotation, error) {
	ds, err := Parse(tag)
	if err != nil {
		return nil, err
	}
	out := make([]annotation.Annotation, 0, len(ds))
	for _, d := range ds {
		a, err := s.registry.Build(d.Kind, d.Attributes)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func fieldLabel(f reflect.StructField, i int) string {
	if f.Name == "_" {
		return fmt.Sprintf("#%d", i)
	}
	return f.Name
}
