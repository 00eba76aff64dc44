package testutil

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/vk/hookbind/internal/annotation"
	"github.com/vk/hookbind/internal/registry"
)

// Probe kinds registered by ProbeModule, one per target kind.
const (
	ProbeType   = "probe_type"
	ProbeField  = "probe_field"
	ProbeMethod = "probe_method"
)

// ProbeConfig is the attribute set of every probe kind.
type ProbeConfig struct {
	Name string `cty:"name"`
	// Set is a "key=value" pair returned as the context delta.
	Set string `cty:"set"`
	// Fail makes the apply call return an error with this text.
	Fail string `cty:"fail"`
	// Invalid makes Validate return an error with this text.
	Invalid string `cty:"invalid"`
}

// ApplyLog records probe applications in order.
type ApplyLog struct {
	mu      sync.Mutex
	entries []string
	vars    []annotation.Vars
}

// Entries returns the recorded "name@target" entries.
func (l *ApplyLog) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// Vars returns the context each probe saw, in application order.
func (l *ApplyLog) Vars() []annotation.Vars {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]annotation.Vars(nil), l.vars...)
}

func (l *ApplyLog) add(entry string, vars annotation.Vars) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	l.vars = append(l.vars, vars.Clone())
}

// Probe is an annotation that only records where it was applied.
type Probe struct {
	kind   string
	target annotation.Target
	Config ProbeConfig
	log    *ApplyLog
}

func (p *Probe) Kind() string              { return p.kind }
func (p *Probe) Target() annotation.Target { return p.target }

func (p *Probe) apply(where string, vars annotation.Vars) (annotation.Vars, error) {
	name := p.Config.Name
	if name == "" {
		name = p.kind
	}
	if p.log != nil {
		p.log.add(name+"@"+where, vars)
	}
	if p.Config.Fail != "" {
		return nil, errors.New(p.Config.Fail)
	}
	if k, v, ok := strings.Cut(p.Config.Set, "="); ok {
		return annotation.Vars{k: v}, nil
	}
	return nil, nil
}

// Validate implements annotation.Validator.
func (p *Probe) Validate() error {
	if p.Config.Invalid != "" {
		return errors.New(p.Config.Invalid)
	}
	return nil
}

func (p *Probe) ApplyToType(_ context.Context, _ annotation.Env, _ annotation.TypeTarget, vars annotation.Vars) (annotation.Vars, error) {
	return p.apply("type", vars)
}

func (p *Probe) ApplyToField(_ context.Context, _ annotation.Env, f annotation.FieldTarget, vars annotation.Vars) (annotation.Vars, error) {
	return p.apply("field:"+f.Name(), vars)
}

func (p *Probe) ApplyToMethod(_ context.Context, _ annotation.Env, m annotation.MethodTarget, vars annotation.Vars) (annotation.Vars, error) {
	return p.apply("method:"+m.Name(), vars)
}

// ProbeModule registers the three probe kinds, all logging into Log.
type ProbeModule struct {
	Log *ApplyLog
}

// Register implements the registry.Module interface.
func (m *ProbeModule) Register(r *registry.Registry) {
	for kind, target := range map[string]annotation.Target{
		ProbeType:   annotation.TargetType,
		ProbeField:  annotation.TargetField,
		ProbeMethod: annotation.TargetMethod,
	} {
		r.RegisterAnnotation(kind, &registry.RegisteredAnnotation{
			Target:      target,
			Config:      reflect.TypeOf(ProbeConfig{}),
			Description: "Records where it was applied.",
			New: func(attrs annotation.Attributes) (annotation.Annotation, error) {
				p := &Probe{kind: kind, target: target, log: m.Log}
				if err := attrs.Decode(&p.Config); err != nil {
					return nil, err
				}
				return p, nil
			},
		})
	}
}
