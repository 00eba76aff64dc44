package wordpress

import (
	"context"
	"fmt"

	"github.com/vk/hookbind/internal/annotation"
	"github.com/vk/hookbind/internal/ctxlog"
	"github.com/vk/hookbind/internal/handles"
	"github.com/vk/hookbind/internal/hooks"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// ScriptConfig configures the script annotation.
type ScriptConfig struct {
	Deps   []string `cty:"deps"`
	Ver    string   `cty:"ver"`
	Footer bool     `cty:"footer"`
	Always bool     `cty:"always"`
	Handle string   `cty:"handle"`
}

// StylesheetConfig configures the stylesheet annotation.
type StylesheetConfig struct {
	Deps   []string `cty:"deps"`
	Ver    string   `cty:"ver"`
	Media  string   `cty:"media"`
	Always bool     `cty:"always"`
	Handle string   `cty:"handle"`
}

// Asset registers the file a string field points to as a script or
// stylesheet. Registration is deferred to the render lifecycle events.
type Asset struct {
	kind  string
	asset hooks.Asset
	// always activates the asset on every render event.
	always bool
}

// NewScript builds a script annotation.
func NewScript(attrs annotation.Attributes) (annotation.Annotation, error) {
	attrs, err := normalizeVersion(KindScript, attrs)
	if err != nil {
		return nil, err
	}
	var cfg ScriptConfig
	if err := attrs.Decode(&cfg); err != nil {
		return nil, err
	}
	return &Asset{
		kind:   KindScript,
		always: cfg.Always,
		asset: hooks.Asset{
			Kind:    hooks.Script,
			Handle:  cfg.Handle,
			Deps:    cfg.Deps,
			Version: cfg.Ver,
			Footer:  cfg.Footer,
		},
	}, nil
}

// NewStylesheet builds a stylesheet annotation. Media defaults to "all".
func NewStylesheet(attrs annotation.Attributes) (annotation.Annotation, error) {
	attrs, err := normalizeVersion(KindStylesheet, attrs)
	if err != nil {
		return nil, err
	}
	cfg := StylesheetConfig{Media: "all"}
	if err := attrs.Decode(&cfg); err != nil {
		return nil, err
	}
	return &Asset{
		kind:   KindStylesheet,
		always: cfg.Always,
		asset: hooks.Asset{
			Kind:    hooks.Stylesheet,
			Handle:  cfg.Handle,
			Deps:    cfg.Deps,
			Version: cfg.Ver,
			Media:   cfg.Media,
		},
	}, nil
}

// normalizeVersion maps ver = false to an unset version and numbers to
// their string form.
func normalizeVersion(kind string, attrs annotation.Attributes) (annotation.Attributes, error) {
	v, ok := attrs["ver"]
	if !ok || v.IsNull() {
		return attrs, nil
	}
	out := make(annotation.Attributes, len(attrs))
	for k, val := range attrs {
		out[k] = val
	}
	// Struct tags carry every value as a string.
	if v.Type() == cty.String && v.IsKnown() {
		switch v.AsString() {
		case "false":
			v = cty.False
		case "true":
			v = cty.True
		}
	}
	if v.Type() == cty.Bool {
		if v.True() {
			return nil, &annotation.ConfigurationError{Kind: kind, Attribute: "ver", Reason: "must be a version string or false"}
		}
		delete(out, "ver")
		return out, nil
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return nil, &annotation.ConfigurationError{Kind: kind, Attribute: "ver", Reason: err.Error()}
	}
	out["ver"] = s
	return out, nil
}

func (a *Asset) Kind() string              { return a.kind }
func (a *Asset) Target() annotation.Target { return annotation.TargetField }

// Handle returns the explicit handle, if any.
func (a *Asset) Handle() string { return a.asset.Handle }

// Always reports whether the asset is activated on every render.
func (a *Asset) Always() bool { return a.always }

// ApplyToField resolves the asset URL through the instance's asset host and
// defers registration to the render lifecycle events.
func (a *Asset) ApplyToField(ctx context.Context, env annotation.Env, f annotation.FieldTarget, _ annotation.Vars) (annotation.Vars, error) {
	host, err := HostOf(f.Instance)
	if err != nil {
		return nil, err
	}
	path, ok := f.StringValue()
	if !ok || path == "" {
		return nil, &annotation.ConfigurationError{
			Kind:   a.kind,
			Target: "field " + f.Name(),
			Reason: "field holds no asset path",
		}
	}

	url := host.AssetURL(path)
	asset := a.asset
	asset.URL = url
	explicit := asset.Handle != ""
	if !explicit {
		asset.Handle = handles.Hash(url)
	}

	register := func(ctx context.Context) error {
		if err := env.Runtime.RegisterAsset(asset); err != nil {
			return fmt.Errorf("register %s %q: %w", asset.Kind, asset.Handle, err)
		}
		if explicit && env.Handles != nil {
			if err := env.Handles.Record(ownerOf(host, f.Type), url, asset.Handle); err != nil {
				return err
			}
		}
		if a.always {
			if err := host.ActivateAsset(ctx, asset.Kind, path); err != nil {
				return fmt.Errorf("activate %s %q: %w", asset.Kind, path, err)
			}
		}
		return nil
	}
	for _, event := range hooks.RenderEvents() {
		if err := env.Runtime.OnLifecycleEvent(event, register); err != nil {
			return nil, err
		}
	}

	ctxlog.FromContext(ctx).Debug("Deferred asset registration.",
		"kind", a.kind, "field", f.Name(), "handle", asset.Handle, "url", url, "always", a.always)
	return nil, nil
}
