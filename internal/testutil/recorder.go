package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/hookbind/internal/hooks"
)

// ListenerCall is one recorded RegisterEventListener call.
type ListenerCall struct {
	Event    string
	Method   string
	Priority int
	Arity    int
	Callback hooks.Callback
}

// Recorder is a hooks.Runtime that records every registration. Lifecycle
// callbacks run only when the test calls Fire. Setting ListenerErr or
// AssetErr makes the matching registration fail.
type Recorder struct {
	mu        sync.Mutex
	Listeners []ListenerCall
	Assets    []hooks.Asset
	lifecycle map[string][]hooks.LifecycleFunc

	ListenerErr error
	AssetErr    error
}

var _ hooks.Runtime = (*Recorder)(nil)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{lifecycle: make(map[string][]hooks.LifecycleFunc)}
}

// RegisterEventListener implements hooks.Runtime.
func (r *Recorder) RegisterEventListener(event string, cb hooks.Callback, priority, arity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ListenerErr != nil {
		return r.ListenerErr
	}
	r.Listeners = append(r.Listeners, ListenerCall{Event: event, Method: cb.Method, Priority: priority, Arity: arity, Callback: cb})
	return nil
}

// RegisterAsset implements hooks.Runtime.
func (r *Recorder) RegisterAsset(a hooks.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.AssetErr != nil {
		return r.AssetErr
	}
	r.Assets = append(r.Assets, a)
	return nil
}

// OnLifecycleEvent implements hooks.Runtime.
func (r *Recorder) OnLifecycleEvent(event string, fn hooks.LifecycleFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lifecycle[event] = append(r.lifecycle[event], fn)
	return nil
}

// Pending returns how many lifecycle callbacks wait on event.
func (r *Recorder) Pending(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lifecycle[event])
}

// Fire runs the lifecycle callbacks of event in registration order.
func (r *Recorder) Fire(ctx context.Context, event string) error {
	r.mu.Lock()
	fns := append([]hooks.LifecycleFunc(nil), r.lifecycle[event]...)
	r.mu.Unlock()
	for i, fn := range fns {
		if err := fn(ctx); err != nil {
			return fmt.Errorf("lifecycle %q callback %d: %w", event, i, err)
		}
	}
	return nil
}
