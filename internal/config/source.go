package config

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/vk/hookbind/internal/annotation"
	"github.com/vk/hookbind/internal/metadata"
	"github.com/vk/hookbind/internal/registry"
)

type builtType struct {
	types   []annotation.Annotation
	fields  map[string][]annotation.Annotation
	methods map[string][]annotation.Annotation
}

// Source is a metadata.Source over a loaded model. Every annotation is built
// when the source is created, so a bad declaration fails early.
type Source struct {
	types map[string]*builtType
}

var _ metadata.Source = (*Source)(nil)

// NewSource builds every annotation of m through r. All build errors are
// reported together.
func NewSource(m *Model, r *registry.Registry) (*Source, error) {
	s := &Source{types: make(map[string]*builtType)}
	if m == nil {
		return s, nil
	}
	var errs []string
	build := func(owner string, specs []*AnnotationSpec) []annotation.Annotation {
		out := make([]annotation.Annotation, 0, len(specs))
		for _, spec := range specs {
			a, err := r.Build(spec.Kind, spec.Attributes)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %s: %v", owner, spec, err))
				continue
			}
			out = append(out, a)
		}
		return out
	}

	for _, name := range m.TypeNames() {
		ts := m.Types[name]
		bt := &builtType{
			types:   build(name, ts.Annotations),
			fields:  make(map[string][]annotation.Annotation),
			methods: make(map[string][]annotation.Annotation),
		}
		for _, f := range ts.Fields {
			bt.fields[f.Name] = build(name+" field "+f.Name, f.Annotations)
		}
		for _, mt := range ts.Methods {
			bt.methods[mt.Name] = build(name+" method "+mt.Name, mt.Annotations)
		}
		s.types[name] = bt
	}

	if len(errs) > 0 {
		return nil, errors.New("metadata build failed:\n- " + strings.Join(errs, "\n- "))
	}
	return s, nil
}

// Types returns the built type names in sorted order.
func (s *Source) Types() []string {
	out := make([]string, 0, len(s.types))
	for n := range s.types {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// lookup prefers the fully qualified type name over the short one.
func (s *Source) lookup(t reflect.Type) *builtType {
	if bt, ok := s.types[metadata.TypeName(t)]; ok {
		return bt
	}
	return s.types[metadata.ShortTypeName(t)]
}

// TypeAnnotations implements metadata.Source.
func (s *Source) TypeAnnotations(_ context.Context, t reflect.Type) ([]annotation.Annotation, error) {
	if bt := s.lookup(t); bt != nil {
		return bt.types, nil
	}
	return nil, nil
}

// FieldAnnotations implements metadata.Source.
func (s *Source) FieldAnnotations(_ context.Context, t reflect.Type, f reflect.StructField) ([]annotation.Annotation, error) {
	if bt := s.lookup(t); bt != nil {
		return bt.fields[f.Name], nil
	}
	return nil, nil
}

// MethodAnnotations implements metadata.Source.
func (s *Source) MethodAnnotations(_ context.Context, t reflect.Type, m reflect.Method) ([]annotation.Annotation, error) {
	if bt := s.lookup(t); bt != nil {
		return bt.methods[m.Name], nil
	}
	return nil, nil
}

type owned struct {
	owner string
	a     annotation.Annotation
}

func (s *Source) all() []owned {
	var out []owned
	for _, name := range s.Types() {
		bt := s.types[name]
		for _, a := range bt.types {
			out = append(out, owned{name, a})
		}
		for _, f := range sortedNames(bt.fields) {
			for _, a := range bt.fields[f] {
				out = append(out, owned{name + " field " + f, a})
			}
		}
		for _, m := range sortedNames(bt.methods) {
			for _, a := range bt.methods[m] {
				out = append(out, owned{name + " method " + m, a})
			}
		}
	}
	return out
}

func sortedNames(m map[string][]annotation.Annotation) []string {
	out := make([]string, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of built annotations.
func (s *Source) Count() int {
	return len(s.all())
}

// Validate runs the static checks of every built annotation that offers
// them. Problems that only show when applying, such as a lifecycle file
// that comes from a plugin annotation, are not reported.
func (s *Source) Validate() error {
	var errs []string
	for _, o := range s.all() {
		v, ok := o.a.(annotation.Validator)
		if !ok {
			continue
		}
		if err := v.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", o.owner, err))
		}
	}
	if len(errs) > 0 {
		return errors.New("metadata validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

// UnknownMembers returns the members the metadata declares for t that t
// does not have, as "field X" or "method Y". Fields must be declared on t
// itself; methods are looked up in the method set of a pointer to t.
func (s *Source) UnknownMembers(t reflect.Type) []string {
	st, err := metadata.StructType(t)
	if err != nil {
		return nil
	}
	bt := s.lookup(st)
	if bt == nil {
		return nil
	}
	declared := make(map[string]bool, st.NumField())
	for i := 0; i < st.NumField(); i++ {
		declared[st.Field(i).Name] = true
	}
	var out []string
	for _, f := range sortedNames(bt.fields) {
		if !declared[f] {
			out = append(out, "field "+f)
		}
	}
	pt := reflect.PointerTo(st)
	for _, m := range sortedNames(bt.methods) {
		if _, ok := pt.MethodByName(m); !ok {
			out = append(out, "method "+m)
		}
	}
	return out
}
