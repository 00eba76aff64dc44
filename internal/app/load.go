package app

import (
	"context"
	"fmt"

	"github.com/vk/hookbind/internal/config"
	"github.com/vk/hookbind/internal/ctxlog"
	"github.com/vk/hookbind/internal/hcl_adapter"
	"github.com/vk/hookbind/internal/registry"
	"github.com/vk/hookbind/internal/yaml_adapter"
)

// loaders returns the sidecar metadata loaders, one per file format.
func loaders() []config.Loader {
	return []config.Loader{hcl_adapter.NewLoader(), yaml_adapter.NewLoader()}
}

// LoadMetadata reads the sidecar metadata files under paths in every
// supported format into one model.
func LoadMetadata(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	model := config.NewModel()
	if len(paths) == 0 {
		logger.Debug("No metadata paths configured.")
		return model, nil
	}
	for _, l := range loaders() {
		m, err := l.Load(ctx, paths...)
		if err != nil {
			return nil, fmt.Errorf("failed to load metadata: %w", err)
		}
		model.Merge(m)
	}
	logger.Debug("Metadata loaded.", "types", len(model.Types))
	return model, nil
}

// LintReport summarises a successful lint.
type LintReport struct {
	Types       []string
	Annotations int
}

// Lint loads the metadata under paths, builds every annotation through the
// registry of modules and runs their static checks. No runtime is touched.
func Lint(ctx context.Context, paths []string, modules ...registry.Module) (*LintReport, error) {
	reg := NewRegistry(modules...)
	if err := reg.ValidateRegistry(ctx); err != nil {
		return nil, err
	}
	model, err := LoadMetadata(ctx, paths...)
	if err != nil {
		return nil, err
	}
	src, err := config.NewSource(model, reg)
	if err != nil {
		return nil, err
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}
	return &LintReport{Types: src.Types(), Annotations: src.Count()}, nil
}
