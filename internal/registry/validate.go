package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/hookbind/internal/annotation"
	"github.com/vk/hookbind/internal/ctxlog"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ValidateRegistry checks every registered kind for a valid target and an
// attribute struct whose `cty` tagged fields can all be decoded from
// metadata values.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, kind := range r.Kinds() {
		ra := r.kinds[kind]

		switch ra.Target {
		case annotation.TargetType, annotation.TargetField, annotation.TargetMethod:
		default:
			errs = append(errs, fmt.Sprintf("kind '%s': invalid target %s", kind, ra.Target))
		}

		if ra.Config == nil {
			logger.Warn("Annotation kind has no attribute struct, attributes are not checked.", "kind", kind)
			continue
		}
		ct := ra.Config
		if ct.Kind() == reflect.Pointer {
			ct = ct.Elem()
		}
		if ct.Kind() != reflect.Struct {
			errs = append(errs, fmt.Sprintf("kind '%s': attribute type %s is not a struct", kind, ct))
			continue
		}

		seen := make(map[string]string)
		for i := 0; i < ct.NumField(); i++ {
			field := ct.Field(i)
			name := strings.Split(field.Tag.Get("cty"), ",")[0]
			if name == "" || name == "-" {
				continue
			}
			if !field.IsExported() {
				errs = append(errs, fmt.Sprintf("kind '%s': attribute '%s' is bound to unexported field %s", kind, name, field.Name))
				continue
			}
			if prev, dup := seen[name]; dup {
				errs = append(errs, fmt.Sprintf("kind '%s': attribute '%s' is bound to both %s and %s", kind, name, prev, field.Name))
				continue
			}
			seen[name] = field.Name

			if _, err := gocty.ImpliedType(reflect.Zero(field.Type).Interface()); err != nil {
				errs = append(errs, fmt.Sprintf("kind '%s', attribute '%s': could not imply cty type from Go field type %s: %v", kind, name, field.Type, err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
