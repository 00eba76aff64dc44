package hooks

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/vk/hookbind/internal/ctxlog"
)

// CronSchedulesFilter is the filter through which recurrences are resolved.
const CronSchedulesFilter = "cron_schedules"

// Schedule is a named recurrence interval.
type Schedule struct {
	Interval time.Duration
	Display  string
}

// DefaultSchedules returns the recurrences every host knows about.
func DefaultSchedules() map[string]Schedule {
	return map[string]Schedule{
		"hourly":     {Interval: time.Hour, Display: "Once Hourly"},
		"twicedaily": {Interval: 12 * time.Hour, Display: "Twice Daily"},
		"daily":      {Interval: 24 * time.Hour, Display: "Once Daily"},
		"weekly":     {Interval: 7 * 24 * time.Hour, Display: "Once Weekly"},
	}
}

// ScheduledEvent is a recurring event known to the dispatcher.
type ScheduledEvent struct {
	Event      string
	Recurrence string
	Interval   time.Duration
}

type listener struct {
	id       string
	cb       Callback
	fn       LifecycleFunc
	priority int
	arity    int
	seq      int
}

// Dispatcher is an in-memory Runtime and Scheduler. It is safe for
// concurrent use; callbacks run without the internal lock held.
type Dispatcher struct {
	mu        sync.Mutex
	seq       int
	listeners map[string][]listener
	assets    map[AssetKind]map[string]Asset
	order     map[AssetKind][]string
	enqueued  map[AssetKind][]string
	scheduled map[string]ScheduledEvent
	fired     map[string]int
}

var (
	_ Runtime   = (*Dispatcher)(nil)
	_ Scheduler = (*Dispatcher)(nil)
)

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		listeners: make(map[string][]listener),
		assets:    make(map[AssetKind]map[string]Asset),
		order:     make(map[AssetKind][]string),
		enqueued:  make(map[AssetKind][]string),
		scheduled: make(map[string]ScheduledEvent),
		fired:     make(map[string]int),
	}
}

// RegisterEventListener implements Runtime. Registering the same method of
// the same pointer receiver at the same priority twice keeps a single
// listener.
func (d *Dispatcher) RegisterEventListener(event string, cb Callback, priority, arity int) error {
	if event == "" {
		return fmt.Errorf("hooks: empty event name for %s", cb)
	}
	if !cb.Func.IsValid() {
		return fmt.Errorf("%s: %w", cb, ErrNotCallable)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	id := callbackID(cb)
	for _, l := range d.listeners[event] {
		if id != "" && l.id == id && l.priority == priority {
			return nil
		}
	}
	d.add(event, listener{id: id, cb: cb, priority: priority, arity: arity})
	return nil
}

// OnLifecycleEvent implements Runtime. Lifecycle callbacks run at the
// default priority among the event's listeners.
func (d *Dispatcher) OnLifecycleEvent(event string, fn LifecycleFunc) error {
	if event == "" {
		return fmt.Errorf("hooks: empty lifecycle event name")
	}
	if fn == nil {
		return fmt.Errorf("hooks: nil lifecycle callback for %q", event)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.add(event, listener{fn: fn, priority: DefaultPriority})
	return nil
}

func (d *Dispatcher) add(event string, l listener) {
	d.seq++
	l.seq = d.seq
	ls := append(d.listeners[event], l)
	sort.SliceStable(ls, func(i, j int) bool {
		if ls[i].priority != ls[j].priority {
			return ls[i].priority < ls[j].priority
		}
		return ls[i].seq < ls[j].seq
	})
	d.listeners[event] = ls
}

// RegisterAsset implements Runtime. A handle that is already registered
// keeps its first definition.
func (d *Dispatcher) RegisterAsset(a Asset) error {
	if a.Handle == "" {
		return fmt.Errorf("hooks: asset %q registered without a handle", a.URL)
	}
	if a.Kind == "" {
		a.Kind = Script
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	byHandle, ok := d.assets[a.Kind]
	if !ok {
		byHandle = make(map[string]Asset)
		d.assets[a.Kind] = byHandle
	}
	if _, exists := byHandle[a.Handle]; exists {
		return nil
	}
	byHandle[a.Handle] = a
	d.order[a.Kind] = append(d.order[a.Kind], a.Handle)
	return nil
}

// Asset returns a registered asset.
func (d *Dispatcher) Asset(kind AssetKind, handle string) (Asset, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.assets[kind][handle]
	return a, ok
}

// Assets returns the registered assets of a kind in registration order.
func (d *Dispatcher) Assets(kind AssetKind) []Asset {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Asset, 0, len(d.order[kind]))
	for _, h := range d.order[kind] {
		out = append(out, d.assets[kind][h])
	}
	return out
}

// Enqueue marks a registered asset for output on the current page.
func (d *Dispatcher) Enqueue(kind AssetKind, handle string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.assets[kind][handle]; !ok {
		return fmt.Errorf("hooks: %s %q is not registered", kind, handle)
	}
	for _, h := range d.enqueued[kind] {
		if h == handle {
			return nil
		}
	}
	d.enqueued[kind] = append(d.enqueued[kind], handle)
	return nil
}

// Enqueued returns the handles enqueued for a kind.
func (d *Dispatcher) Enqueued(kind AssetKind) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.enqueued[kind]...)
}

// HasListeners reports whether anything is subscribed to event.
func (d *Dispatcher) HasListeners(event string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners[event]) > 0
}

// Fired returns how many times event was dispatched.
func (d *Dispatcher) Fired(event string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fired[event]
}

func (d *Dispatcher) snapshot(event string) []listener {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fired[event]++
	return append([]listener(nil), d.listeners[event]...)
}

// ApplyFilters passes value through every listener of event. A listener
// that returns a value replaces it for the next one; lifecycle callbacks
// and listeners without results leave it unchanged.
func (d *Dispatcher) ApplyFilters(ctx context.Context, event string, value any, args ...any) (any, error) {
	ls := d.snapshot(event)
	if len(ls) == 0 {
		return value, nil
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Applying filters.", "event", event, "listeners", len(ls))

	for _, l := range ls {
		if l.fn != nil {
			if err := l.fn(ctx); err != nil {
				return value, fmt.Errorf("filter %q: lifecycle callback: %w", event, err)
			}
			continue
		}
		out, err := l.cb.Invoke(l.arity, append([]any{value}, args...)...)
		if err != nil {
			return value, fmt.Errorf("filter %q: %s: %w", event, l.cb, err)
		}
		if out != nil {
			value = out
		}
	}
	return value, nil
}

// DoAction runs every listener of event in priority order. The first error
// stops the dispatch.
func (d *Dispatcher) DoAction(ctx context.Context, event string, args ...any) error {
	ls := d.snapshot(event)
	if len(ls) == 0 {
		return nil
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Doing action.", "event", event, "listeners", len(ls))

	for _, l := range ls {
		if l.fn != nil {
			if err := l.fn(ctx); err != nil {
				return fmt.Errorf("action %q: lifecycle callback: %w", event, err)
			}
			continue
		}
		if _, err := l.cb.Invoke(l.arity, args...); err != nil {
			return fmt.Errorf("action %q: %s: %w", event, l.cb, err)
		}
	}
	return nil
}

// ScheduleEvent implements Scheduler. The recurrence is resolved through
// the cron_schedules filter so listeners can contribute new intervals.
func (d *Dispatcher) ScheduleEvent(ctx context.Context, event, recurrence string) error {
	raw, err := d.ApplyFilters(ctx, CronSchedulesFilter, DefaultSchedules())
	if err != nil {
		return fmt.Errorf("resolve schedules: %w", err)
	}
	schedules, ok := raw.(map[string]Schedule)
	if !ok {
		return fmt.Errorf("hooks: %s filter returned %T", CronSchedulesFilter, raw)
	}
	s, ok := schedules[recurrence]
	if !ok {
		return fmt.Errorf("hooks: unknown recurrence %q for event %q", recurrence, event)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.scheduled[event] = ScheduledEvent{Event: event, Recurrence: recurrence, Interval: s.Interval}
	return nil
}

// ClearScheduledHook implements Scheduler.
func (d *Dispatcher) ClearScheduledHook(event string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.scheduled, event)
}

// Scheduled returns the scheduled events sorted by name.
func (d *Dispatcher) Scheduled() []ScheduledEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]ScheduledEvent, 0, len(d.scheduled))
	for _, e := range d.scheduled {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Event < out[j].Event })
	return out
}

// RunScheduled fires every scheduled event once, as a cron tick would.
func (d *Dispatcher) RunScheduled(ctx context.Context) error {
	for _, e := range d.Scheduled() {
		if err := d.DoAction(ctx, e.Event); err != nil {
			return err
		}
	}
	return nil
}

func callbackID(cb Callback) string {
	rv := reflect.ValueOf(cb.Receiver)
	if rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Map || rv.Kind() == reflect.Slice) {
		return fmt.Sprintf("%T@%x.%s", cb.Receiver, rv.Pointer(), cb.Method)
	}
	return ""
}
