package wordpress

import (
	"context"

	"github.com/vk/hookbind/internal/annotation"
)

// PluginFileVar is the context key the plugin annotation sets.
const PluginFileVar = "plugin.file"

// PluginConfig configures the plugin annotation.
type PluginConfig struct {
	File string `cty:"file"`
}

// Plugin names the main plugin file of a type. Later annotations read it
// from the attach context.
type Plugin struct {
	cfg PluginConfig
}

// NewPlugin builds a plugin annotation.
func NewPlugin(attrs annotation.Attributes) (annotation.Annotation, error) {
	p := &Plugin{}
	if err := attrs.Decode(&p.cfg); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Plugin) Kind() string              { return KindPlugin }
func (p *Plugin) Target() annotation.Target { return annotation.TargetType }

// Validate reports a missing plugin file.
func (p *Plugin) Validate() error {
	if p.cfg.File == "" {
		return annotation.Missing(KindPlugin, "", "file")
	}
	return nil
}

// ApplyToType returns the plugin file as a context delta.
func (p *Plugin) ApplyToType(_ context.Context, _ annotation.Env, t annotation.TypeTarget, _ annotation.Vars) (annotation.Vars, error) {
	if p.cfg.File == "" {
		return nil, annotation.Missing(KindPlugin, "type "+t.Name(), "file")
	}
	return annotation.Vars{PluginFileVar: p.cfg.File}, nil
}
