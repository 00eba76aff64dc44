package annotation

// Vars is the context accumulated across one attach call. Values returned by
// an annotation are visible to every annotation applied after it. Apply
// methods receive a copy; writes to it are discarded.
type Vars map[string]any

// Merge copies delta into v, overwriting keys that already exist.
func (v Vars) Merge(delta Vars) {
	for k, val := range delta {
		v[k] = val
	}
}

// Clone returns a shallow copy of v.
func (v Vars) Clone() Vars {
	out := make(Vars, len(v))
	out.Merge(v)
	return out
}

// String returns the value under key when it is a non-empty string.
func (v Vars) String(key string) (string, bool) {
	s, ok := v[key].(string)
	return s, ok && s != ""
}
