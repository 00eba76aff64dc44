package socketio

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/hookbind/internal/hooks"
	"github.com/vk/hookbind/internal/testutil"
)

type fakeSocket struct {
	mu       sync.Mutex
	handlers map[string][]func(args ...any)
	closed   bool
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{handlers: make(map[string][]func(args ...any))}
}

func (s *fakeSocket) On(event string, fn func(args ...any)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[event] = append(s.handlers[event], fn)
}

func (s *fakeSocket) Close() error {
	s.closed = true
	return nil
}

// emit plays an event sent by the remote host.
func (s *fakeSocket) emit(event string, args ...any) {
	s.mu.Lock()
	hs := append(([]func(args ...any))(nil), s.handlers[event]...)
	s.mu.Unlock()
	for _, h := range hs {
		h(args...)
	}
}

type poster struct {
	ids []int
	err error
}

func (p *poster) OnSave(id int) error {
	p.ids = append(p.ids, id)
	return p.err
}

func callback(recv any, method string) hooks.Callback {
	return hooks.Callback{Receiver: recv, Method: method, Func: reflect.ValueOf(recv).MethodByName(method)}
}

func TestRelay_RemoteEventInvokesListener(t *testing.T) {
	d := hooks.NewDispatcher()
	s := newFakeSocket()
	r := NewRelay(d, s, nil)

	p := &poster{}
	require.NoError(t, r.RegisterEventListener("save_post", callback(p, "OnSave"), 10, 1))
	assert.True(t, d.HasListeners("save_post"))

	// JSON numbers arrive as float64.
	s.emit("save_post", float64(42))
	assert.Equal(t, []int{42}, p.ids)
}

func TestRelay_SubscribesOncePerEvent(t *testing.T) {
	d := hooks.NewDispatcher()
	s := newFakeSocket()
	r := NewRelay(d, s, nil)

	a, b := &poster{}, &poster{}
	require.NoError(t, r.RegisterEventListener("save_post", callback(a, "OnSave"), 10, 1))
	require.NoError(t, r.RegisterEventListener("save_post", callback(b, "OnSave"), 20, 1))

	assert.Len(t, s.handlers["save_post"], 1)
	assert.Equal(t, []string{"save_post"}, r.Events())

	s.emit("save_post", 7)
	assert.Equal(t, []int{7}, a.ids)
	assert.Equal(t, []int{7}, b.ids)
}

func TestRelay_LifecycleEventFromRemote(t *testing.T) {
	d := hooks.NewDispatcher()
	s := newFakeSocket()
	r := NewRelay(d, s, nil)

	fired := 0
	require.NoError(t, r.OnLifecycleEvent(hooks.FrontendRender, func(context.Context) error {
		fired++
		return r.RegisterAsset(hooks.Asset{Kind: hooks.Script, Handle: "h", URL: "https://x/a.js"})
	}))

	s.emit(hooks.FrontendRender)
	assert.Equal(t, 1, fired)
	_, ok := d.Asset(hooks.Script, "h")
	assert.True(t, ok)
}

func TestRelay_DispatchErrorIsLogged(t *testing.T) {
	d := hooks.NewDispatcher()
	s := newFakeSocket()
	var logs testutil.SafeBuffer
	r := NewRelay(d, s, testutil.NewLogger(&logs))

	p := &poster{err: errors.New("db down")}
	require.NoError(t, r.RegisterEventListener("save_post", callback(p, "OnSave"), 10, 1))

	s.emit("save_post", 1)
	assert.Contains(t, logs.String(), "Remote event dispatch failed.")
	assert.Contains(t, logs.String(), "db down")
}

func TestRelay_RegistrationErrorNotSubscribed(t *testing.T) {
	s := newFakeSocket()
	rec := testutil.NewRecorder()
	rec.ListenerErr = errors.New("rejected")
	r := NewRelay(dispatcherOf{rec}, s, nil)

	err := r.RegisterEventListener("save_post", callback(&poster{}, "OnSave"), 10, 1)
	require.ErrorContains(t, err, "rejected")
	assert.Empty(t, r.Events())
}

func TestRelay_Close(t *testing.T) {
	s := newFakeSocket()
	r := NewRelay(hooks.NewDispatcher(), s, nil)
	require.NoError(t, r.Close())
	assert.True(t, s.closed)
}

type dispatcherOf struct{ *testutil.Recorder }

func (dispatcherOf) DoAction(context.Context, string, ...any) error { return nil }
