package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/vk/hookbind/internal/annotation"
	"github.com/vk/hookbind/internal/ctxlog"
	"github.com/vk/hookbind/internal/metadata"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNilInstance is returned when Attach is given a nil instance.
var ErrNilInstance = errors.New("engine: nil instance")

const tracerName = "github.com/vk/hookbind/internal/engine"

// Engine applies annotations to instances. It is safe to share between
// goroutines as long as callers serialise attaches that touch the same
// handle table entries, see package handles.
type Engine struct {
	source   metadata.Source
	env      annotation.Env
	observer Observer
	tracer   trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver reports applied annotations, skips and attach results.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithTracer replaces the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// New creates an engine reading metadata from src and handing env to every
// apply call.
func New(src metadata.Source, env annotation.Env, opts ...Option) *Engine {
	e := &Engine{
		source:   src,
		env:      env,
		observer: nopObserver{},
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Attach applies every annotation declared on instance and returns the same
// instance. Applying stops at the first error; effects of annotations
// applied before it are kept.
func (e *Engine) Attach(ctx context.Context, instance any) (any, error) {
	if instance == nil {
		return nil, ErrNilInstance
	}
	iv := reflect.ValueOf(instance)
	if iv.Kind() == reflect.Pointer && iv.IsNil() {
		return nil, ErrNilInstance
	}
	dyn := iv.Type()
	st, err := metadata.StructType(dyn)
	if err != nil {
		return nil, fmt.Errorf("attach %T: %w", instance, err)
	}
	sv := reflect.Indirect(iv)
	for sv.Kind() == reflect.Pointer {
		if sv.IsNil() {
			return nil, ErrNilInstance
		}
		sv = sv.Elem()
	}

	typeName := metadata.ShortTypeName(st)
	ctx, span := e.tracer.Start(ctx, "hookbind.Attach", trace.WithAttributes(attribute.String("hookbind.type", typeName)))
	defer span.End()
	ctx = ctxlog.With(ctx, "type", typeName)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Attaching instance.")

	start := time.Now()
	vars := annotation.Vars{}
	applied := 0

	err = e.walk(ctx, dyn, st, func(s Step) error {
		delta, err := e.apply(ctx, s, instance, iv, sv, st, vars.Clone())
		if err != nil {
			if errors.Is(err, annotation.ErrCapabilityMissing) {
				logger.Debug("Instance lacks a capability, annotation skipped.", "kind", s.Annotation.Kind(), "target", s.describe(), "reason", err)
				e.observer.CapabilitySkipped(s.Annotation.Kind())
				return nil
			}
			return fmt.Errorf("%s: %w", s.describe(), err)
		}
		applied++
		e.observer.AnnotationApplied(s.Annotation.Kind(), s.Target)
		if len(delta) > 0 {
			vars.Merge(delta)
		}
		return nil
	})

	span.SetAttributes(attribute.Int("hookbind.annotations", applied))
	e.observer.AttachFinished(typeName, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Debug("Attach failed.", "applied", applied, "error", err)
		return instance, fmt.Errorf("attach %s: %w", typeName, err)
	}
	logger.Debug("Instance attached.", "applied", applied)
	return instance, nil
}

// apply dispatches one annotation to the apply method of its target kind.
func (e *Engine) apply(ctx context.Context, s Step, instance any, iv, sv reflect.Value, st reflect.Type, vars annotation.Vars) (annotation.Vars, error) {
	a := s.Annotation
	if a.Target() != s.Target {
		return nil, annotation.Misplaced(a, s.Target, s.describe())
	}

	switch s.Target {
	case annotation.TargetType:
		ap, ok := a.(annotation.TypeApplier)
		if !ok {
			return nil, notApplicable(a, s)
		}
		return ap.ApplyToType(ctx, e.env, annotation.TypeTarget{Instance: instance, Type: st}, vars)

	case annotation.TargetField:
		ap, ok := a.(annotation.FieldApplier)
		if !ok {
			return nil, notApplicable(a, s)
		}
		return ap.ApplyToField(ctx, e.env, annotation.FieldTarget{
			Instance: instance,
			Type:     st,
			Field:    s.Field,
			Value:    sv.Field(s.Index),
		}, vars)

	case annotation.TargetMethod:
		ap, ok := a.(annotation.MethodApplier)
		if !ok {
			return nil, notApplicable(a, s)
		}
		return ap.ApplyToMethod(ctx, e.env, annotation.MethodTarget{
			Instance: instance,
			Type:     st,
			Method:   s.Method,
			Func:     iv.Method(s.Index),
		}, vars)
	}
	return nil, fmt.Errorf("unknown target kind %s", s.Target)
}

func notApplicable(a annotation.Annotation, s Step) error {
	return &annotation.ConfigurationError{
		Kind:   a.Kind(),
		Target: s.describe(),
		Reason: fmt.Sprintf("declares %s targets but cannot be applied to one", a.Target()),
	}
}
