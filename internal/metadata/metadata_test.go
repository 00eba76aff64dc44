package metadata

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/hookbind/internal/annotation"
)

type named struct{ kind string }

func (n named) Kind() string              { return n.kind }
func (n named) Target() annotation.Target { return annotation.TargetType }

type subject struct {
	Field string
}

func (*subject) Run() {}

type broken struct{ Source }

func (broken) TypeAnnotations(context.Context, reflect.Type) ([]annotation.Annotation, error) {
	return nil, errors.New("unreadable")
}

func kinds(as []annotation.Annotation) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Kind()
	}
	return out
}

func TestTableAndChain(t *testing.T) {
	ctx := context.Background()
	st := reflect.TypeOf(subject{})
	run, _ := reflect.TypeOf(&subject{}).MethodByName("Run")

	first := NewTable().
		OnType(reflect.TypeOf(&subject{}), named{"a"}).
		OnField(st, "Field", named{"f1"}).
		OnMethod(st, "Run", named{"m1"})
	second := NewTable().
		OnType(st, named{"b"}).
		OnField(st, "Field", named{"f2"})

	src := Chain(first, nil, Chain(second))

	ts, err := src.TypeAnnotations(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, kinds(ts))

	fs, err := src.FieldAnnotations(ctx, st, st.Field(0))
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2"}, kinds(fs))

	ms, err := src.MethodAnnotations(ctx, st, run)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, kinds(ms))

	ts[0] = named{"mutated"}
	again, _ := first.TypeAnnotations(ctx, st)
	assert.Equal(t, []string{"a"}, kinds(again), "callers get a copy")

	_, err = Chain(first, broken{first}).TypeAnnotations(ctx, st)
	assert.ErrorContains(t, err, "unreadable")
}

func TestTypeNames(t *testing.T) {
	st, err := StructType(reflect.TypeOf(&subject{}))
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(subject{}), st)

	_, err = StructType(reflect.TypeOf(1))
	assert.ErrorContains(t, err, "int is not a struct type")
	_, err = StructType(nil)
	assert.Error(t, err)

	assert.Equal(t, "github.com/vk/hookbind/internal/metadata.subject", TypeName(reflect.TypeOf(&subject{})))
	assert.Equal(t, "metadata.subject", ShortTypeName(reflect.TypeOf(&subject{})))
	assert.Equal(t, "struct {}", TypeName(reflect.TypeOf(struct{}{})))
	assert.Empty(t, TypeName(nil))
}
