// This file contains the logic for translating HCL schema structs into the
// format-agnostic model defined in the config package.

package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/vk/hookbind/internal/config"
	"github.com/vk/hookbind/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// translateType merges one type block into the model.
func (l *Loader) translateType(ctx context.Context, model *config.Model, tb *typeBlock) error {
	logger := ctxlog.FromContext(ctx).With("type", tb.Name)
	logger.Debug("Translating HCL type block to internal config model.",
		"annotations", len(tb.Annotations), "fields", len(tb.Fields), "methods", len(tb.Methods))

	if tb.Name == "" {
		return fmt.Errorf("type block without a name")
	}
	ts := model.Type(tb.Name)

	as, err := translateAnnotations(tb.Annotations)
	if err != nil {
		return fmt.Errorf("type %q: %w", tb.Name, err)
	}
	ts.Annotations = append(ts.Annotations, as...)

	for _, f := range tb.Fields {
		as, err := translateAnnotations(f.Annotations)
		if err != nil {
			return fmt.Errorf("type %q field %q: %w", tb.Name, f.Name, err)
		}
		m := ts.Field(f.Name)
		m.Annotations = append(m.Annotations, as...)
	}
	for _, mb := range tb.Methods {
		as, err := translateAnnotations(mb.Annotations)
		if err != nil {
			return fmt.Errorf("type %q method %q: %w", tb.Name, mb.Name, err)
		}
		m := ts.Method(mb.Name)
		m.Annotations = append(m.Annotations, as...)
	}
	return nil
}

// translateAnnotations evaluates the attributes of each annotation block.
// Attribute expressions must be constant; there are no variables or
// functions in sidecar metadata.
func translateAnnotations(blocks []*annotationBlock) ([]*config.AnnotationSpec, error) {
	out := make([]*config.AnnotationSpec, 0, len(blocks))
	for _, b := range blocks {
		attrs, diags := b.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("annotation %q: %w", b.Kind, diags)
		}
		values := make(map[string]cty.Value, len(attrs))
		for name, attr := range attrs {
			val, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("annotation %q attribute %q: %w", b.Kind, name, diags)
			}
			values[name] = val
		}
		out = append(out, &config.AnnotationSpec{
			Kind:       b.Kind,
			Attributes: values,
			Origin:     b.DefRange.String(),
		})
	}
	return out, nil
}
