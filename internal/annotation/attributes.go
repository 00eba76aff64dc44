package annotation

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Attributes holds the named configuration values of one annotation as
// written in its metadata. Every metadata format converts into this shape so
// that annotation kinds decode their configuration in a single way.
type Attributes map[string]cty.Value

// Has reports whether name was given with a non-null value.
func (a Attributes) Has(name string) bool {
	v, ok := a[name]
	return ok && !v.IsNull()
}

// Names returns the attribute names in sorted order.
func (a Attributes) Names() []string {
	names := make([]string, 0, len(a))
	for n := range a {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Decode copies the attributes onto the `cty:"name"` tagged fields of the
// struct pointed to by target. Values are converted to the field type, so the
// string "20" from a struct tag decodes into an int field. A primitive given
// for a list field becomes a single-element list. Unknown attributes are an
// error.
func (a Attributes) Decode(target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("decode target must be a non-nil pointer to a struct, got %T", target)
	}
	rv = rv.Elem()
	rt := rv.Type()

	known := make(map[string]struct{}, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		name := strings.Split(field.Tag.Get("cty"), ",")[0]
		if name == "" || name == "-" || !field.IsExported() {
			continue
		}
		known[name] = struct{}{}

		val, ok := a[name]
		if !ok || val.IsNull() {
			continue
		}

		fieldVal := rv.Field(i)
		ty, err := gocty.ImpliedType(reflect.New(field.Type).Elem().Interface())
		if err != nil {
			return fmt.Errorf("attribute %q: field %s has no cty representation: %w", name, field.Name, err)
		}
		if (ty.IsListType() || ty.IsSetType()) && val.Type().IsPrimitiveType() {
			val = cty.TupleVal([]cty.Value{val})
		}
		converted, err := convert.Convert(val, ty)
		if err != nil {
			return fmt.Errorf("attribute %q: %w", name, err)
		}
		if err := gocty.FromCtyValue(converted, fieldVal.Addr().Interface()); err != nil {
			return fmt.Errorf("attribute %q: %w", name, err)
		}
	}

	for _, name := range a.Names() {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("attribute %q is not supported", name)
		}
	}
	return nil
}

// FromGo converts a plain Go value (as produced by YAML or JSON decoding)
// into a cty.Value. Nested slices become tuples and maps become objects.
func FromGo(v any) (cty.Value, error) {
	switch x := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return x, nil
	case string:
		return cty.StringVal(x), nil
	case bool:
		return cty.BoolVal(x), nil
	case int:
		return cty.NumberIntVal(int64(x)), nil
	case int64:
		return cty.NumberIntVal(x), nil
	case uint64:
		return cty.NumberUIntVal(x), nil
	case float64:
		return cty.NumberFloatVal(x), nil
	case []string:
		vals := make([]cty.Value, len(x))
		for i, s := range x {
			vals[i] = cty.StringVal(s)
		}
		if len(vals) == 0 {
			return cty.ListValEmpty(cty.String), nil
		}
		return cty.TupleVal(vals), nil
	case []any:
		vals := make([]cty.Value, 0, len(x))
		for _, item := range x {
			cv, err := FromGo(item)
			if err != nil {
				return cty.NilVal, err
			}
			vals = append(vals, cv)
		}
		if len(vals) == 0 {
			return cty.EmptyTupleVal, nil
		}
		return cty.TupleVal(vals), nil
	case map[string]any:
		attrs := make(map[string]cty.Value, len(x))
		for k, item := range x {
			cv, err := FromGo(item)
			if err != nil {
				return cty.NilVal, fmt.Errorf("%s: %w", k, err)
			}
			attrs[k] = cv
		}
		return cty.ObjectVal(attrs), nil
	}

	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type for %T: %w", v, err)
	}
	return gocty.ToCtyValue(v, ty)
}
