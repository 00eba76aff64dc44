// Package hooks defines the registration runtime that annotations register
// their effects with, and an in-memory implementation of it.
//
// The runtime is the host's event system: named events carry prioritised
// listeners (filters transform a value, actions only observe), assets are
// registered under handles, and lifecycle events such as the three page
// render phases run deferred callbacks. Annotations hand the runtime bound
// callbacks; when and in which order those run belongs to the runtime.
package hooks
