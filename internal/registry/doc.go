// Package registry provides the central "glue" for annotation kinds.
//
// The Registry maps the kind names used in metadata (e.g., "filter" in
// `hook:"filter,for:save_post"`) to the compiled Go constructors that build
// the matching annotation values, together with the target kind each
// annotation supports and the Go struct its attributes decode into.
//
// During application startup, modules register their kinds and the registry
// is validated so that every attribute struct can be decoded from metadata,
// preventing a class of errors from surfacing only at attach time.
package registry
