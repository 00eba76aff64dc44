package app

import (
	"context"
	"errors"

	"github.com/vk/hookbind/internal/ctxlog"
)

// Run serves health and metrics and keeps the relay connected until ctx is
// done.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.healthCheckServer()
	if a.relay != nil {
		a.logger.Info("Relaying remote events.", "events", a.relay.Events())
	}
	a.logger.Info("hookbind running.", "kinds", a.registry.Kinds())

	<-ctx.Done()
	a.logger.Info("Shutting down.")
	err := a.Close()
	if errors.Is(ctx.Err(), context.Canceled) {
		return err
	}
	return errors.Join(ctx.Err(), err)
}

// Close stops the server and disconnects the relay.
func (a *App) Close() error {
	err := a.closeHealthCheckServer()
	a.closeRelay()
	a.relay = nil
	return err
}
