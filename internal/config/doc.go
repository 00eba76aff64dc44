// Package config defines the format-agnostic model of sidecar annotation
// metadata, the Loader interface implemented per file format, and a
// metadata.Source that serves a loaded model to the binding engine.
//
// Concrete loaders live in separate packages (hcl_adapter, yaml_adapter).
package config
