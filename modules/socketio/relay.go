// Package socketio relays events of a remote host to listeners bound in
// this process. The remote host emits its hook events on a socket.io
// namespace; every event a listener is registered for is subscribed.
package socketio

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/vk/hookbind/internal/ctxlog"
	"github.com/vk/hookbind/internal/hooks"
)

// Socket is the part of a socket.io client the relay uses.
type Socket interface {
	On(event string, fn func(args ...any))
	Close() error
}

// Dispatcher is the local runtime remote events are dispatched through.
type Dispatcher interface {
	hooks.Runtime
	DoAction(ctx context.Context, event string, args ...any) error
}

// Relay is a hooks.Runtime that forwards registrations to a local
// dispatcher and subscribes their events on a socket.
type Relay struct {
	inner  Dispatcher
	socket Socket
	logger *slog.Logger

	mu     sync.Mutex
	events map[string]struct{}
}

var _ hooks.Runtime = (*Relay)(nil)

// NewRelay creates a relay. A nil logger uses slog.Default.
func NewRelay(inner Dispatcher, s Socket, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{inner: inner, socket: s, logger: logger, events: make(map[string]struct{})}
}

// RegisterEventListener implements hooks.Runtime.
func (r *Relay) RegisterEventListener(event string, cb hooks.Callback, priority, arity int) error {
	if err := r.inner.RegisterEventListener(event, cb, priority, arity); err != nil {
		return err
	}
	r.subscribe(event)
	return nil
}

// RegisterAsset implements hooks.Runtime.
func (r *Relay) RegisterAsset(a hooks.Asset) error {
	return r.inner.RegisterAsset(a)
}

// OnLifecycleEvent implements hooks.Runtime.
func (r *Relay) OnLifecycleEvent(event string, fn hooks.LifecycleFunc) error {
	if err := r.inner.OnLifecycleEvent(event, fn); err != nil {
		return err
	}
	r.subscribe(event)
	return nil
}

func (r *Relay) subscribe(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event]; ok {
		return
	}
	r.events[event] = struct{}{}
	r.socket.On(event, func(args ...any) {
		r.dispatch(event, args)
	})
	r.logger.Debug("Subscribed remote event.", "event", event)
}

func (r *Relay) dispatch(event string, args []any) {
	ctx := ctxlog.WithLogger(context.Background(), r.logger.With("event", event))
	if err := r.inner.DoAction(ctx, event, args...); err != nil {
		r.logger.Error("Remote event dispatch failed.", "event", event, "error", err)
	}
}

// Events returns the subscribed events in sorted order.
func (r *Relay) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for e := range r.events {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Close disconnects the socket.
func (r *Relay) Close() error {
	return r.socket.Close()
}
