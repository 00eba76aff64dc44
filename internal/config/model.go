package config

import (
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of sidecar
// annotation metadata, keyed by type name.
type Model struct {
	Types map[string]*TypeSpec
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{Types: make(map[string]*TypeSpec)}
}

// TypeSpec holds the annotations declared for one Go type. Name is either
// the fully qualified "import/path.Name" or the short "pkg.Name".
type TypeSpec struct {
	Name        string
	Annotations []*AnnotationSpec
	Fields      []*MemberSpec
	Methods     []*MemberSpec
}

// MemberSpec holds the annotations of one field or method.
type MemberSpec struct {
	Name        string
	Annotations []*AnnotationSpec
}

// AnnotationSpec is one declared annotation before it is built.
type AnnotationSpec struct {
	Kind       string
	Attributes map[string]cty.Value
	// Origin locates the declaration for error messages, e.g. "a.hcl:3,3-21".
	Origin string
}

// Type returns the spec for name, creating it when missing.
func (m *Model) Type(name string) *TypeSpec {
	if m.Types == nil {
		m.Types = make(map[string]*TypeSpec)
	}
	ts, ok := m.Types[name]
	if !ok {
		ts = &TypeSpec{Name: name}
		m.Types[name] = ts
	}
	return ts
}

// TypeNames returns the declared type names in sorted order.
func (m *Model) TypeNames() []string {
	names := make([]string, 0, len(m.Types))
	for n := range m.Types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Merge appends the declarations of other to m. Annotations of a type or
// member declared in both keep m's first, then other's.
func (m *Model) Merge(other *Model) {
	if other == nil {
		return
	}
	for _, name := range other.TypeNames() {
		src := other.Types[name]
		dst := m.Type(name)
		dst.Annotations = append(dst.Annotations, src.Annotations...)
		dst.Fields = mergeMembers(dst.Fields, src.Fields)
		dst.Methods = mergeMembers(dst.Methods, src.Methods)
	}
}

func mergeMembers(dst, src []*MemberSpec) []*MemberSpec {
	for _, s := range src {
		if d := findMember(dst, s.Name); d != nil {
			d.Annotations = append(d.Annotations, s.Annotations...)
			continue
		}
		dst = append(dst, &MemberSpec{Name: s.Name, Annotations: append([]*AnnotationSpec(nil), s.Annotations...)})
	}
	return dst
}

func findMember(ms []*MemberSpec, name string) *MemberSpec {
	for _, m := range ms {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Field returns the member spec for a field, creating it when missing.
func (ts *TypeSpec) Field(name string) *MemberSpec {
	if m := findMember(ts.Fields, name); m != nil {
		return m
	}
	m := &MemberSpec{Name: name}
	ts.Fields = append(ts.Fields, m)
	return m
}

// Method returns the member spec for a method, creating it when missing.
func (ts *TypeSpec) Method(name string) *MemberSpec {
	if m := findMember(ts.Methods, name); m != nil {
		return m
	}
	m := &MemberSpec{Name: name}
	ts.Methods = append(ts.Methods, m)
	return m
}

// String renders where the annotation was declared.
func (a *AnnotationSpec) String() string {
	if a.Origin == "" {
		return fmt.Sprintf("annotation %q", a.Kind)
	}
	return fmt.Sprintf("annotation %q at %s", a.Kind, a.Origin)
}
