package config

import (
	"context"
)

// Loader is the interface for a format-specific metadata loader.
type Loader interface {
	// Load reads the files at paths and translates them into the
	// format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
	// Extensions lists the file extensions the loader reads, with dots.
	Extensions() []string
}
