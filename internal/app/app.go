package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/vk/hookbind/internal/annotation"
	"github.com/vk/hookbind/internal/config"
	"github.com/vk/hookbind/internal/ctxlog"
	"github.com/vk/hookbind/internal/engine"
	"github.com/vk/hookbind/internal/framework"
	"github.com/vk/hookbind/internal/handles"
	"github.com/vk/hookbind/internal/hooks"
	"github.com/vk/hookbind/internal/metadata"
	"github.com/vk/hookbind/internal/metric"
	"github.com/vk/hookbind/internal/registry"
	"github.com/vk/hookbind/internal/tags"
	"github.com/vk/hookbind/modules/socketio"
	"github.com/vk/hookbind/modules/wordpress"
)

// dialRelay connects the relay socket. Tests replace it.
var dialRelay = socketio.Dial

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	ctx    context.Context
	config *Config

	registry   *registry.Registry
	model      *config.Model
	sidecar    *config.Source
	checked    sync.Map
	handles    *handles.Table
	dispatcher *hooks.Dispatcher
	runtime    hooks.Runtime
	relay      *socketio.Relay
	metrics    *metric.Metrics
	engine     *engine.Engine
	core       *framework.Core

	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger, registry and
// runtime, and the framework core already attached.
func NewApp(ctx context.Context, outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := cfg.Logger(outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	reg := NewRegistry(modules...)
	if err := reg.ValidateRegistry(ctx); err != nil {
		return nil, err
	}
	logger.Debug("Annotation kinds registered.", "kinds", reg.Kinds())

	model, err := LoadMetadata(ctx, cfg.MetadataPaths...)
	if err != nil {
		return nil, err
	}
	sidecar, err := config.NewSource(model, reg)
	if err != nil {
		return nil, err
	}
	logger.Debug("Metadata sources ready.", "sidecar_types", len(sidecar.Types()))

	metrics, err := metric.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	a := &App{
		outW:       outW,
		logger:     logger,
		ctx:        ctx,
		config:     cfg,
		registry:   reg,
		model:      model,
		sidecar:    sidecar,
		handles:    handles.New(),
		dispatcher: hooks.NewDispatcher(),
		metrics:    metrics,
	}
	a.runtime = a.dispatcher

	if cfg.RelayURL != "" {
		sock, err := dialRelay(ctx, socketio.Options{
			URL:                cfg.RelayURL,
			Namespace:          cfg.RelayNamespace,
			InsecureSkipVerify: cfg.RelayInsecure,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect relay: %w", err)
		}
		a.relay = socketio.NewRelay(a.dispatcher, sock, logger.With("component", "relay"))
		a.runtime = a.relay
	}

	src := metadata.Chain(tags.NewSource(reg), sidecar)
	a.engine = engine.New(src, annotation.Env{Runtime: a.runtime, Handles: a.handles}, engine.WithObserver(metrics))

	a.core = framework.New(a.dispatcher, a.dispatcher, logger.With("component", "framework"))
	if _, err := a.Attach(ctx, a.core); err != nil {
		a.closeRelay()
		return nil, fmt.Errorf("failed to attach framework core: %w", err)
	}
	logger.Debug("Framework core attached.")
	return a, nil
}

// Attach applies the annotations declared on instance.
func (a *App) Attach(ctx context.Context, instance any) (any, error) {
	if t := reflect.TypeOf(instance); t != nil {
		a.checkMembers(t)
	}
	return a.engine.Attach(ctxlog.WithLogger(ctx, a.logger), instance)
}

// checkMembers warns, once per type, about sidecar blocks naming members
// the type does not have. Their annotations are never applied.
func (a *App) checkMembers(t reflect.Type) {
	if _, done := a.checked.LoadOrStore(t, struct{}{}); done {
		return
	}
	if unknown := a.sidecar.UnknownMembers(t); len(unknown) > 0 {
		a.logger.Warn("Metadata names members the type does not have.",
			"type", metadata.ShortTypeName(t), "members", strings.Join(unknown, ", "))
	}
}

// Plan returns the annotations Attach would apply to an instance whose
// dynamic type is t.
func (a *App) Plan(ctx context.Context, t reflect.Type) ([]engine.Step, error) {
	return a.engine.Plan(ctxlog.WithLogger(ctx, a.logger), t)
}

// Host returns an asset host for the plugin type owner whose assets are
// served under baseURL.
func (a *App) Host(owner reflect.Type, baseURL string) *wordpress.Host {
	return wordpress.NewHost(owner, baseURL, a.dispatcher, a.handles)
}

// Registry returns the application's registry.
func (a *App) Registry() *registry.Registry { return a.registry }

// Model returns the loaded sidecar metadata.
func (a *App) Model() *config.Model { return a.model }

// Runtime returns the runtime annotations register with.
func (a *App) Runtime() hooks.Runtime { return a.runtime }

// Dispatcher returns the in-process dispatcher behind the runtime.
func (a *App) Dispatcher() *hooks.Dispatcher { return a.dispatcher }

// Handles returns the explicit asset handle table.
func (a *App) Handles() *handles.Table { return a.handles }

// Metrics returns the engine metrics.
func (a *App) Metrics() *metric.Metrics { return a.metrics }

// Core returns the framework's own attached instance.
func (a *App) Core() *framework.Core { return a.core }

func (a *App) closeRelay() {
	if a.relay == nil {
		return
	}
	if err := a.relay.Close(); err != nil {
		a.logger.Error("Relay close failed.", "error", err)
	}
}
