package annotation

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/hookbind/internal/handles"
	"github.com/vk/hookbind/internal/hooks"
)

// Target is the kind of reflective target an annotation attaches to.
type Target int

const (
	TargetType Target = iota + 1
	TargetField
	TargetMethod
)

// String implements fmt.Stringer.
func (t Target) String() string {
	switch t {
	case TargetType:
		return "type"
	case TargetField:
		return "field"
	case TargetMethod:
		return "method"
	default:
		return fmt.Sprintf("target(%d)", int(t))
	}
}

// ParseTarget converts the textual name of a target kind.
func ParseTarget(s string) (Target, error) {
	switch s {
	case "type":
		return TargetType, nil
	case "field", "property":
		return TargetField, nil
	case "method":
		return TargetMethod, nil
	}
	return 0, fmt.Errorf("unknown annotation target %q", s)
}

// Annotation is the common contract of every directive kind.
type Annotation interface {
	// Kind is the registered name of the directive, e.g. "filter".
	Kind() string
	// Target is the single reflective target kind the directive supports.
	Target() Target
}

// TypeApplier is implemented by annotations that attach to a type.
type TypeApplier interface {
	Annotation
	ApplyToType(ctx context.Context, env Env, t TypeTarget, vars Vars) (Vars, error)
}

// FieldApplier is implemented by annotations that attach to a struct field.
type FieldApplier interface {
	Annotation
	ApplyToField(ctx context.Context, env Env, f FieldTarget, vars Vars) (Vars, error)
}

// MethodApplier is implemented by annotations that attach to a method.
type MethodApplier interface {
	Annotation
	ApplyToMethod(ctx context.Context, env Env, m MethodTarget, vars Vars) (Vars, error)
}

// Env carries the process-wide collaborators that apply calls register
// effects with. It is constructed once and passed explicitly.
type Env struct {
	Runtime hooks.Runtime
	Handles *handles.Table
}

// TypeTarget describes the type of the instance being attached.
type TypeTarget struct {
	Instance any
	Type     reflect.Type
}

// Name returns the type name used in errors and logs.
func (t TypeTarget) Name() string { return t.Type.String() }

// FieldTarget describes one struct field of the instance being attached.
// Value is the live field value; it is addressable when the instance was
// passed by pointer.
type FieldTarget struct {
	Instance any
	Type     reflect.Type
	Field    reflect.StructField
	Value    reflect.Value
}

// Name returns the field name.
func (f FieldTarget) Name() string { return f.Field.Name }

// StringValue returns the current value of a string field. Unexported fields
// are readable too since only the string form is needed.
func (f FieldTarget) StringValue() (string, bool) {
	if !f.Value.IsValid() {
		return "", false
	}
	v := f.Value
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.String {
		return "", false
	}
	return v.String(), true
}

// MethodTarget describes one method of the instance being attached. Func is
// the method value bound to Instance.
type MethodTarget struct {
	Instance any
	Type     reflect.Type
	Method   reflect.Method
	Func     reflect.Value
}

// Name returns the method name.
func (m MethodTarget) Name() string { return m.Method.Name }

// Callback binds the method to its receiver for the registration runtime.
func (m MethodTarget) Callback() hooks.Callback {
	return hooks.Callback{Receiver: m.Instance, Method: m.Method.Name, Func: m.Func}
}

// Validator is implemented by annotations that can check their configuration
// without being applied, e.g. for linting metadata files.
type Validator interface {
	Validate() error
}
