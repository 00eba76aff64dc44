// Package engine is the binding engine: it attaches object instances to the
// registration runtime by applying every annotation declared on them.
//
// Attach walks an instance's metadata in three fixed phases (type, then
// struct fields in declaration order, then methods in method-set order),
// dispatches each annotation to the apply method matching the target kind
// and threads one Vars context through all apply calls of the walk. The
// engine itself keeps no state between calls and performs no recovery: the
// first failing annotation stops the walk and its error is returned.
package engine
