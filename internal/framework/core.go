// Package framework holds the annotated instance the binding framework
// attaches for itself: the minutely cron recurrence, the task queue runner
// and plugin discovery.
package framework

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vk/hookbind/internal/ctxlog"
	"github.com/vk/hookbind/internal/hooks"
	"github.com/vk/hookbind/internal/tags"
)

const (
	// File is the plugin file the framework's lifecycle events are keyed by.
	File = "hookbind/framework.php"
	// QueueRunEvent is the recurring event that drains the task queue.
	QueueRunEvent = "hookbind_queue_run"
	// FindPluginsFilter collects the plugins built on the framework.
	FindPluginsFilter = "mwp_framework_find_plugins"
	// Minutely is the recurrence the framework adds to the host schedules.
	Minutely = "minutely"
)

// Filterer runs filter chains.
type Filterer interface {
	ApplyFilters(ctx context.Context, event string, value any, args ...any) (any, error)
}

// Task is a unit of queued work.
type Task func(ctx context.Context) error

// Core is attached once at startup.
type Core struct {
	_ tags.Type   `hook:"plugin,file:hookbind/framework.php"`
	_ tags.Method `method:"CronSchedules" hook:"filter,for:cron_schedules"`
	_ tags.Method `method:"Activated" hook:"lifecycle,on:activation"`
	_ tags.Method `method:"Deactivated" hook:"lifecycle,on:deactivation"`
	_ tags.Method `method:"RunQueue" hook:"action,for:hookbind_queue_run"`

	filters   Filterer
	scheduler hooks.Scheduler
	logger    *slog.Logger

	mu      sync.Mutex
	tasks   []Task
	plugins []any
	cached  bool
}

// New creates the core. A nil scheduler disables the queue schedule.
func New(filters Filterer, scheduler hooks.Scheduler, logger *slog.Logger) *Core {
	if logger == nil {
		logger = slog.Default()
	}
	return &Core{filters: filters, scheduler: scheduler, logger: logger}
}

func (c *Core) ctx() context.Context {
	return ctxlog.WithLogger(context.Background(), c.logger)
}

// CronSchedules adds the minutely recurrence.
func (c *Core) CronSchedules(schedules map[string]hooks.Schedule) map[string]hooks.Schedule {
	out := make(map[string]hooks.Schedule, len(schedules)+1)
	for k, v := range schedules {
		out[k] = v
	}
	out[Minutely] = hooks.Schedule{Interval: time.Minute, Display: "Every Minute"}
	return out
}

// Activated schedules the queue runner every minute.
func (c *Core) Activated() error {
	if c.scheduler == nil {
		c.logger.Warn("Runtime cannot schedule events, task queue will not run.")
		return nil
	}
	c.scheduler.ClearScheduledHook(QueueRunEvent)
	if err := c.scheduler.ScheduleEvent(c.ctx(), QueueRunEvent, Minutely); err != nil {
		return fmt.Errorf("schedule %s: %w", QueueRunEvent, err)
	}
	c.logger.Debug("Scheduled task queue.", "event", QueueRunEvent, "recurrence", Minutely)
	return nil
}

// Deactivated removes the queue runner schedule.
func (c *Core) Deactivated() {
	if c.scheduler != nil {
		c.scheduler.ClearScheduledHook(QueueRunEvent)
	}
}

// Enqueue adds a task for the next queue run.
func (c *Core) Enqueue(t Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = append(c.tasks, t)
}

// Pending returns the number of queued tasks.
func (c *Core) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}

// RunQueue runs the queued tasks. Failed tasks are logged and dropped.
func (c *Core) RunQueue() int {
	c.mu.Lock()
	tasks := c.tasks
	c.tasks = nil
	c.mu.Unlock()

	ctx := c.ctx()
	failed := 0
	for i, t := range tasks {
		if err := t(ctx); err != nil {
			failed++
			c.logger.Error("Queued task failed.", "task", i, "error", err)
		}
	}
	if len(tasks) > 0 {
		c.logger.Info("Task queue run finished.", "tasks", len(tasks), "failed", failed)
	}
	return failed
}

// Plugins returns the plugins reported through the find plugins filter.
// The result is memoised until recache is set.
func (c *Core) Plugins(ctx context.Context, recache bool) ([]any, error) {
	c.mu.Lock()
	if c.cached && !recache {
		defer c.mu.Unlock()
		return append([]any(nil), c.plugins...), nil
	}
	c.mu.Unlock()

	out, err := c.filters.ApplyFilters(ctx, FindPluginsFilter, []any{})
	if err != nil {
		return nil, err
	}
	plugins, ok := out.([]any)
	if !ok {
		return nil, fmt.Errorf("%s filter returned %T, want []any", FindPluginsFilter, out)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.plugins = plugins
	c.cached = true
	return append([]any(nil), plugins...), nil
}
