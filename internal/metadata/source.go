// Package metadata defines the capability the binding engine reads
// annotations through, independent of where they are declared.
//
// A Source answers "which annotations are attached here" for a type, one of
// its struct fields, or one of its methods, in declaration order. Struct
// tags, sidecar HCL or YAML files, and explicit registration tables all
// implement it, and Chain combines several of them.
package metadata

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/hookbind/internal/annotation"
)

// Source reports the ordered annotations attached to reflective targets.
// The type passed in is always the struct type, never a pointer to it.
type Source interface {
	TypeAnnotations(ctx context.Context, t reflect.Type) ([]annotation.Annotation, error)
	FieldAnnotations(ctx context.Context, t reflect.Type, f reflect.StructField) ([]annotation.Annotation, error)
	MethodAnnotations(ctx context.Context, t reflect.Type, m reflect.Method) ([]annotation.Annotation, error)
}

// chain concatenates the answers of several sources in order.
type chain []Source

// Chain returns a Source that reports the annotations of every source in
// turn: all of the first source's annotations for a target, then the
// second's, and so on.
func Chain(sources ...Source) Source {
	flat := make(chain, 0, len(sources))
	for _, s := range sources {
		if s == nil {
			continue
		}
		if c, ok := s.(chain); ok {
			flat = append(flat, c...)
			continue
		}
		flat = append(flat, s)
	}
	return flat
}

func (c chain) TypeAnnotations(ctx context.Context, t reflect.Type) ([]annotation.Annotation, error) {
	return c.collect(func(s Source) ([]annotation.Annotation, error) { return s.TypeAnnotations(ctx, t) })
}

func (c chain) FieldAnnotations(ctx context.Context, t reflect.Type, f reflect.StructField) ([]annotation.Annotation, error) {
	return c.collect(func(s Source) ([]annotation.Annotation, error) { return s.FieldAnnotations(ctx, t, f) })
}

func (c chain) MethodAnnotations(ctx context.Context, t reflect.Type, m reflect.Method) ([]annotation.Annotation, error) {
	return c.collect(func(s Source) ([]annotation.Annotation, error) { return s.MethodAnnotations(ctx, t, m) })
}

func (c chain) collect(get func(Source) ([]annotation.Annotation, error)) ([]annotation.Annotation, error) {
	var out []annotation.Annotation
	for _, s := range c {
		as, err := get(s)
		if err != nil {
			return nil, err
		}
		out = append(out, as...)
	}
	return out, nil
}

// StructType unwraps pointers and returns the struct type an instance's
// annotations are declared on.
func StructType(t reflect.Type) (reflect.Type, error) {
	if t == nil {
		return nil, fmt.Errorf("metadata: nil type")
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("metadata: %s is not a struct type", t)
	}
	return t, nil
}

// TypeName returns the fully qualified name of t, "import/path.Name", after
// unwrapping pointers. Unnamed types yield their String form.
func TypeName(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// ShortTypeName returns "pkg.Name" as printed by reflect.
func ShortTypeName(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.String()
}
