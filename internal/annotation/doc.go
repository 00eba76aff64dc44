// Package annotation defines the declarative directive family that the
// binding engine applies to object instances.
//
// An annotation is an immutable value built once from parsed metadata. It
// declares exactly one reflective target kind (type, field or method) and
// implements the matching Apply method. Apply calls receive the explicit
// collaborators they may touch through an Env, and the running Vars context
// accumulated by earlier annotations in the same attach call.
package annotation
