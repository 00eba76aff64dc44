// Package app wires the binding engine into a process: the annotation kind
// registry, the metadata sources, the event runtime with its optional
// socket.io relay, metrics and the framework's own annotated core. It is
// decoupled from any specific entrypoint like a CLI or server.
package app
