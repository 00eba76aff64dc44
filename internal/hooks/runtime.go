package hooks

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// DefaultPriority is the neutral listener priority of the host.
const DefaultPriority = 10

// Lifecycle events fired by the host when a page of each area is rendered.
const (
	FrontendRender = "wp_enqueue_scripts"
	AdminRender    = "admin_enqueue_scripts"
	LoginRender    = "login_enqueue_scripts"
)

// RenderEvents returns the lifecycle events on which assets are registered.
func RenderEvents() []string {
	return []string{FrontendRender, AdminRender, LoginRender}
}

// ErrNotCallable is returned when a Callback has no bound function.
var ErrNotCallable = errors.New("hooks: callback is not bound to a function")

// Runtime is the registration surface annotations call into.
type Runtime interface {
	// RegisterEventListener subscribes cb to the named event. Listeners run
	// in ascending priority and receive at most arity arguments.
	RegisterEventListener(event string, cb Callback, priority, arity int) error
	// RegisterAsset makes an asset available under its handle.
	RegisterAsset(a Asset) error
	// OnLifecycleEvent defers fn until the host fires the lifecycle event.
	OnLifecycleEvent(event string, fn LifecycleFunc) error
}

// LifecycleFunc is a deferred callback run when a lifecycle event fires.
type LifecycleFunc func(ctx context.Context) error

// Callback is a method bound to its receiver.
type Callback struct {
	Receiver any
	Method   string
	Func     reflect.Value
}

// String returns "Type.Method".
func (c Callback) String() string {
	return fmt.Sprintf("%T.%s", c.Receiver, c.Method)
}

// Invoke calls the bound method with at most arity of args, further trimmed
// to the number of parameters the method accepts. Missing parameters receive
// zero values. A trailing error result is returned as the error; the first
// other result, if any, is returned as the value.
func (c Callback) Invoke(arity int, args ...any) (any, error) {
	if !c.Func.IsValid() || c.Func.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s: %w", c, ErrNotCallable)
	}
	ft := c.Func.Type()
	if arity > len(args) {
		arity = len(args)
	}
	if arity < 0 {
		arity = 0
	}

	n := ft.NumIn()
	if ft.IsVariadic() {
		n--
	}
	in := make([]reflect.Value, 0, n)
	for i := 0; i < n; i++ {
		pt := ft.In(i)
		if i >= arity || args[i] == nil {
			in = append(in, reflect.Zero(pt))
			continue
		}
		av := reflect.ValueOf(args[i])
		switch {
		case av.Type().AssignableTo(pt):
		case convertible(av.Type(), pt):
			av = av.Convert(pt)
		default:
			return nil, fmt.Errorf("%s: argument %d: %s is not assignable to %s", c, i, av.Type(), pt)
		}
		in = append(in, av)
	}
	if ft.IsVariadic() {
		et := ft.In(n).Elem()
		for i := n; i < arity; i++ {
			if args[i] == nil {
				in = append(in, reflect.Zero(et))
				continue
			}
			av := reflect.ValueOf(args[i])
			if !av.Type().AssignableTo(et) {
				return nil, fmt.Errorf("%s: argument %d: %s is not assignable to %s", c, i, av.Type(), et)
			}
			in = append(in, av)
		}
	}
	out := c.Func.Call(in)

	var (
		result any
		err    error
	)
	for _, o := range out {
		if o.Type() == errorType {
			if !o.IsNil() {
				err = o.Interface().(error)
			}
			continue
		}
		if result == nil {
			result = o.Interface()
		}
	}
	return result, err
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// convertible allows conversions between numeric types and between named
// and unnamed forms of a type, but not int to string.
func convertible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	return to.Kind() != reflect.String || from.Kind() == reflect.String
}

// AssetKind separates scripts from stylesheets.
type AssetKind string

const (
	Script     AssetKind = "script"
	Stylesheet AssetKind = "style"
)

// Asset is a registered script or stylesheet.
type Asset struct {
	Kind    AssetKind
	Handle  string
	URL     string
	Deps    []string
	Version string
	// Footer defers loading of a script to the end of the page.
	Footer bool
	// Media is the stylesheet media query.
	Media string
}

// Scheduler is an optional runtime capability for recurring events. The
// recurrence names a schedule known to the host, e.g. "hourly".
type Scheduler interface {
	ScheduleEvent(ctx context.Context, event, recurrence string) error
	ClearScheduledHook(event string)
}
