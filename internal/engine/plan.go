package engine

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/hookbind/internal/annotation"
	"github.com/vk/hookbind/internal/metadata"
)

// Step is one annotation application in attach order.
type Step struct {
	Target     annotation.Target
	Annotation annotation.Annotation
	// Member is the field or method name; empty for type annotations.
	Member string
	// Index is the field index in the struct type or the method index in
	// the instance's method set.
	Index  int
	Field  reflect.StructField
	Method reflect.Method
}

func (s Step) describe() string {
	if s.Target == annotation.TargetType {
		return "type"
	}
	return s.Target.String() + " " + s.Member
}

// walk visits every annotation of the instance type dyn (whose struct type
// is st) in attach order: type annotations, then each field in declaration
// order, then each method of dyn's method set.
func (e *Engine) walk(ctx context.Context, dyn, st reflect.Type, visit func(Step) error) error {
	as, err := e.source.TypeAnnotations(ctx, st)
	if err != nil {
		return fmt.Errorf("read type annotations: %w", err)
	}
	for _, a := range as {
		if err := visit(Step{Target: annotation.TargetType, Annotation: a}); err != nil {
			return err
		}
	}

	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		as, err := e.source.FieldAnnotations(ctx, st, f)
		if err != nil {
			return fmt.Errorf("read annotations of field %s: %w", f.Name, err)
		}
		for _, a := range as {
			if err := visit(Step{Target: annotation.TargetField, Annotation: a, Member: f.Name, Index: i, Field: f}); err != nil {
				return err
			}
		}
	}

	for i := 0; i < dyn.NumMethod(); i++ {
		m := dyn.Method(i)
		as, err := e.source.MethodAnnotations(ctx, st, m)
		if err != nil {
			return fmt.Errorf("read annotations of method %s: %w", m.Name, err)
		}
		for _, a := range as {
			if err := visit(Step{Target: annotation.TargetMethod, Annotation: a, Member: m.Name, Index: i, Method: m}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Plan returns the annotations Attach would apply to an instance whose
// dynamic type is t, in order, without applying them. Methods come from the
// method set of t itself: pass reflect.PointerTo for instances attached by
// pointer.
func (e *Engine) Plan(ctx context.Context, t reflect.Type) ([]Step, error) {
	st, err := metadata.StructType(t)
	if err != nil {
		return nil, err
	}
	var steps []Step
	err = e.walk(ctx, t, st, func(s Step) error {
		steps = append(steps, s)
		return nil
	})
	return steps, err
}

// String renders a step as "target member kind".
func (s Step) String() string {
	return s.describe() + ": " + s.Annotation.Kind()
}
