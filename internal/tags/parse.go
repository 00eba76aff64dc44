package tags

import (
	"fmt"
	"strings"

	"github.com/vk/hookbind/internal/annotation"
	"github.com/zclconf/go-cty/cty"
)

// Directive is one parsed annotation declaration.
type Directive struct {
	Kind       string
	Attributes annotation.Attributes
}

// Parse splits a hook tag value into its directives.
func Parse(tag string) ([]Directive, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, fmt.Errorf("empty hook tag")
	}
	var out []Directive
	for _, decl := range strings.Split(tag, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		d, err := parseDirective(decl)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("hook tag %q declares no annotation", tag)
	}
	return out, nil
}

func parseDirective(decl string) (Directive, error) {
	parts := strings.Split(decl, ",")
	kind := strings.TrimSpace(parts[0])
	if kind == "" || strings.Contains(kind, ":") {
		return Directive{}, fmt.Errorf("directive %q must start with an annotation kind", decl)
	}

	d := Directive{Kind: kind, Attributes: annotation.Attributes{}}
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, isPair := strings.Cut(part, ":")
		key = strings.TrimSpace(key)
		if key == "" {
			return Directive{}, fmt.Errorf("directive %q: empty attribute name in %q", kind, part)
		}
		if _, dup := d.Attributes[key]; dup {
			return Directive{}, fmt.Errorf("directive %q: attribute %q given twice", kind, key)
		}
		if !isPair {
			d.Attributes[key] = cty.True
			continue
		}
		d.Attributes[key] = parseValue(strings.TrimSpace(value))
	}
	return d, nil
}

// parseValue keeps scalars as strings; the annotation's decoder converts
// them to the type it expects.
func parseValue(v string) cty.Value {
	if !strings.Contains(v, "|") {
		return cty.StringVal(v)
	}
	items := strings.Split(v, "|")
	vals := make([]cty.Value, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		vals = append(vals, cty.StringVal(item))
	}
	if len(vals) == 0 {
		return cty.ListValEmpty(cty.String)
	}
	return cty.ListVal(vals)
}
