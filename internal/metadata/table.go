package metadata

import (
	"context"
	"reflect"
	"sync"

	"github.com/vk/hookbind/internal/annotation"
)

// Table is an explicit registration table of annotations keyed by type and
// member name. It serves programs that declare annotations in code and
// tests that need canned annotation lists.
type Table struct {
	mu      sync.RWMutex
	types   map[reflect.Type][]annotation.Annotation
	fields  map[reflect.Type]map[string][]annotation.Annotation
	methods map[reflect.Type]map[string][]annotation.Annotation
}

var _ Source = (*Table)(nil)

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		types:   make(map[reflect.Type][]annotation.Annotation),
		fields:  make(map[reflect.Type]map[string][]annotation.Annotation),
		methods: make(map[reflect.Type]map[string][]annotation.Annotation),
	}
}

func structOf(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// OnType appends type annotations for t and returns the table for chaining.
func (tb *Table) OnType(t reflect.Type, as ...annotation.Annotation) *Table {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	t = structOf(t)
	tb.types[t] = append(tb.types[t], as...)
	return tb
}

// OnField appends annotations for the named field of t.
func (tb *Table) OnField(t reflect.Type, field string, as ...annotation.Annotation) *Table {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	t = structOf(t)
	if tb.fields[t] == nil {
		tb.fields[t] = make(map[string][]annotation.Annotation)
	}
	tb.fields[t][field] = append(tb.fields[t][field], as...)
	return tb
}

// OnMethod appends annotations for the named method of t.
func (tb *Table) OnMethod(t reflect.Type, method string, as ...annotation.Annotation) *Table {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	t = structOf(t)
	if tb.methods[t] == nil {
		tb.methods[t] = make(map[string][]annotation.Annotation)
	}
	tb.methods[t][method] = append(tb.methods[t][method], as...)
	return tb
}

// TypeAnnotations implements Source.
func (tb *Table) TypeAnnotations(_ context.Context, t reflect.Type) ([]annotation.Annotation, error) {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	return append([]annotation.Annotation(nil), tb.types[structOf(t)]...), nil
}

// FieldAnnotations implements Source.
func (tb *Table) FieldAnnotations(_ context.Context, t reflect.Type, f reflect.StructField) ([]annotation.Annotation, error) {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	return append([]annotation.Annotation(nil), tb.fields[structOf(t)][f.Name]...), nil
}

// MethodAnnotations implements Source.
func (tb *Table) MethodAnnotations(_ context.Context, t reflect.Type, m reflect.Method) ([]annotation.Annotation, error) {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	return append([]annotation.Annotation(nil), tb.methods[structOf(t)][m.Name]...), nil
}
