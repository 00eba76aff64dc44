package framework

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/hookbind/internal/annotation"
	"github.com/vk/hookbind/internal/engine"
	"github.com/vk/hookbind/internal/handles"
	"github.com/vk/hookbind/internal/hooks"
	"github.com/vk/hookbind/internal/registry"
	"github.com/vk/hookbind/internal/tags"
	"github.com/vk/hookbind/modules/wordpress"
)

func attachCore(t *testing.T, d *hooks.Dispatcher, sched hooks.Scheduler) *Core {
	t.Helper()
	r := registry.New(&wordpress.Module{})
	e := engine.New(tags.NewSource(r), annotation.Env{Runtime: d, Handles: handles.New()})
	core := New(d, sched, nil)
	_, err := e.Attach(context.Background(), core)
	require.NoError(t, err)
	return core
}

func TestCore_ActivationSchedulesQueue(t *testing.T) {
	ctx := context.Background()
	d := hooks.NewDispatcher()
	attachCore(t, d, d)

	require.NoError(t, d.DoAction(ctx, wordpress.LifecycleEvent(wordpress.Activation, File)))
	assert.Equal(t, []hooks.ScheduledEvent{{Event: QueueRunEvent, Recurrence: Minutely, Interval: time.Minute}}, d.Scheduled())

	require.NoError(t, d.DoAction(ctx, wordpress.LifecycleEvent(wordpress.Deactivation, File)))
	assert.Empty(t, d.Scheduled())
}

func TestCore_ActivationWithoutScheduler(t *testing.T) {
	d := hooks.NewDispatcher()
	attachCore(t, d, nil)

	require.NoError(t, d.DoAction(context.Background(), wordpress.LifecycleEvent(wordpress.Activation, File)))
	assert.Empty(t, d.Scheduled())
}

func TestCore_CronSchedulesKeepsExisting(t *testing.T) {
	d := hooks.NewDispatcher()
	attachCore(t, d, d)

	out, err := d.ApplyFilters(context.Background(), hooks.CronSchedulesFilter, hooks.DefaultSchedules())
	require.NoError(t, err)
	schedules := out.(map[string]hooks.Schedule)
	assert.Equal(t, time.Minute, schedules[Minutely].Interval)
	assert.Equal(t, time.Hour, schedules["hourly"].Interval)
}

func TestCore_RunQueueOnSchedule(t *testing.T) {
	ctx := context.Background()
	d := hooks.NewDispatcher()
	core := attachCore(t, d, d)
	require.NoError(t, d.DoAction(ctx, wordpress.LifecycleEvent(wordpress.Activation, File)))

	var ran []string
	core.Enqueue(func(context.Context) error { ran = append(ran, "a"); return nil })
	core.Enqueue(func(context.Context) error { return errors.New("broken") })
	core.Enqueue(func(context.Context) error { ran = append(ran, "c"); return nil })
	assert.Equal(t, 3, core.Pending())

	require.NoError(t, d.RunScheduled(ctx))
	assert.Equal(t, []string{"a", "c"}, ran)
	assert.Zero(t, core.Pending())
}

type finder struct{ calls int }

func (f *finder) Find(plugins []any) []any {
	f.calls++
	return append(plugins, "acme")
}

func TestCore_PluginsMemoised(t *testing.T) {
	ctx := context.Background()
	d := hooks.NewDispatcher()
	core := attachCore(t, d, d)

	f := &finder{}
	cb := hooks.Callback{Receiver: f, Method: "Find", Func: reflect.ValueOf(f).MethodByName("Find")}
	require.NoError(t, d.RegisterEventListener(FindPluginsFilter, cb, hooks.DefaultPriority, 1))

	got, err := core.Plugins(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []any{"acme"}, got)

	_, err = core.Plugins(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)

	_, err = core.Plugins(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, f.calls)
}

type badFinder struct{}

func (badFinder) Find([]any) string { return "nope" }

func TestCore_PluginsWrongType(t *testing.T) {
	d := hooks.NewDispatcher()
	core := attachCore(t, d, d)
	b := &badFinder{}
	cb := hooks.Callback{Receiver: b, Method: "Find", Func: reflect.ValueOf(b).MethodByName("Find")}
	require.NoError(t, d.RegisterEventListener(FindPluginsFilter, cb, hooks.DefaultPriority, 1))

	_, err := core.Plugins(context.Background(), false)
	require.ErrorContains(t, err, "returned string")
}
