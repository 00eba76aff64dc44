package wordpress

import (
	"context"
	"fmt"

	"github.com/vk/hookbind/internal/annotation"
	"github.com/vk/hookbind/internal/ctxlog"
	"github.com/vk/hookbind/internal/hooks"
)

// Lifecycle phases a method can be bound to.
const (
	Activation   = "activation"
	Deactivation = "deactivation"
)

// LifecycleConfig configures the lifecycle annotation. File defaults to the
// file named by a plugin annotation on the same type.
type LifecycleConfig struct {
	On   string `cty:"on"`
	File string `cty:"file"`
}

// Lifecycle binds a method to the activation or deactivation of a plugin.
type Lifecycle struct {
	cfg LifecycleConfig
}

// NewLifecycle builds a lifecycle annotation.
func NewLifecycle(attrs annotation.Attributes) (annotation.Annotation, error) {
	l := &Lifecycle{}
	if err := attrs.Decode(&l.cfg); err != nil {
		return nil, err
	}
	switch l.cfg.On {
	case Activation, Deactivation, "":
	default:
		return nil, &annotation.ConfigurationError{
			Kind:      KindLifecycle,
			Attribute: "on",
			Reason:    fmt.Sprintf("must be %q or %q, got %q", Activation, Deactivation, l.cfg.On),
		}
	}
	return l, nil
}

func (l *Lifecycle) Kind() string              { return KindLifecycle }
func (l *Lifecycle) Target() annotation.Target { return annotation.TargetMethod }

// Validate reports a missing phase.
func (l *Lifecycle) Validate() error {
	if l.cfg.On == "" {
		return annotation.Missing(KindLifecycle, "", "on")
	}
	return nil
}

// LifecycleEvent returns the host event fired for phase of the plugin file.
func LifecycleEvent(phase, file string) string {
	if phase == Activation {
		return "activate_" + file
	}
	return "deactivate_" + file
}

// ApplyToMethod registers the method on the lifecycle event of the plugin.
func (l *Lifecycle) ApplyToMethod(ctx context.Context, env annotation.Env, m annotation.MethodTarget, vars annotation.Vars) (annotation.Vars, error) {
	target := "method " + m.Name()
	if l.cfg.On == "" {
		return nil, annotation.Missing(KindLifecycle, target, "on")
	}
	file := l.cfg.File
	if file == "" {
		file, _ = vars.String(PluginFileVar)
	}
	if file == "" {
		return nil, &annotation.ConfigurationError{
			Kind:      KindLifecycle,
			Target:    target,
			Attribute: "file",
			Reason:    "not set and no plugin annotation precedes it",
		}
	}

	event := LifecycleEvent(l.cfg.On, file)
	if err := env.Runtime.RegisterEventListener(event, m.Callback(), hooks.DefaultPriority, 1); err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Bound lifecycle callback.", "event", event, "method", m.Name())
	return nil, nil
}
