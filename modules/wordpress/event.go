package wordpress

import (
	"context"

	"github.com/vk/hookbind/internal/annotation"
	"github.com/vk/hookbind/internal/ctxlog"
	"github.com/vk/hookbind/internal/hooks"
)

// EventConfig configures filter and action bindings.
type EventConfig struct {
	For      string `cty:"for"`
	Priority int    `cty:"priority"`
	Args     int    `cty:"args"`
}

// Event binds a method to a host event. Filters and actions share it; the
// host tells them apart by how it dispatches the event.
type Event struct {
	kind string
	cfg  EventConfig
}

// NewEvent builds a filter or action annotation.
func NewEvent(kind string, attrs annotation.Attributes) (*Event, error) {
	cfg := EventConfig{Priority: hooks.DefaultPriority, Args: 1}
	if err := attrs.Decode(&cfg); err != nil {
		return nil, err
	}
	if cfg.Args < 0 {
		return nil, &annotation.ConfigurationError{Kind: kind, Attribute: "args", Reason: "must not be negative"}
	}
	return &Event{kind: kind, cfg: cfg}, nil
}

// Config returns the decoded configuration.
func (e *Event) Config() EventConfig { return e.cfg }

func (e *Event) Kind() string              { return e.kind }
func (e *Event) Target() annotation.Target { return annotation.TargetMethod }

// Validate reports a missing event name.
func (e *Event) Validate() error {
	if e.cfg.For == "" {
		return annotation.Missing(e.kind, "", "for")
	}
	return nil
}

// ApplyToMethod registers the bound method with the runtime.
func (e *Event) ApplyToMethod(ctx context.Context, env annotation.Env, m annotation.MethodTarget, _ annotation.Vars) (annotation.Vars, error) {
	if e.cfg.For == "" {
		return nil, annotation.Missing(e.kind, "method "+m.Name(), "for")
	}
	if err := env.Runtime.RegisterEventListener(e.cfg.For, m.Callback(), e.cfg.Priority, e.cfg.Args); err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Bound event listener.",
		"kind", e.kind, "event", e.cfg.For, "method", m.Name(), "priority", e.cfg.Priority, "args", e.cfg.Args)
	return nil, nil
}
