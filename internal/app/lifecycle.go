package app

import (
	"context"
	"errors"

	"github.com/dshills/julook/internal/config"
	"github.com/dshills/julook/internal/logging"
)

// shutdownOrder is the reverse of initialization.
var shutdownOrder = []string{"watcher", "store", "sqlite", "bus", "logger"}

// Shutdown stops every component in reverse initialization order. Later
// calls return the first call's result.
func (app *Application) Shutdown(ctx context.Context) error {
	app.stopOnce.Do(func() {
		close(app.done)
		app.running.Store(false)
		app.logger.Info("julook shutting down")

		var errs ErrorList
		for _, component := range shutdownOrder {
			errs.Add(app.closeComponent(ctx, component))
		}
		app.stopErr = errs.AsError()
	})
	return app.stopErr
}

// closeComponent stops a single component. Components that were never
// started are skipped.
func (app *Application) closeComponent(ctx context.Context, component string) error {
	var err error
	switch component {
	case "watcher":
		if app.watcher != nil {
			err = app.watcher.Close()
			app.watcher = nil
		}
	case "store":
		if app.store != nil {
			err = app.store.Close(ctx)
		}
	case "sqlite":
		if app.local != nil {
			err = app.local.Close()
		}
	case "bus":
		if app.bus != nil {
			err = app.bus.Stop(ctx)
		}
	case "logger":
		if app.logger != nil {
			// Syncing stderr fails on some platforms; there is nowhere left
			// to report it.
			_ = app.logger.Sync()
		}
	}

	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = ErrShutdownTimeout
	}
	return NewComponentError(component, "close", err)
}

// applyConfig installs a reloaded configuration. Only the log level takes
// effect immediately; other changes apply on the next start.
func (app *Application) applyConfig(cfg config.Config) {
	applyOverrides(&cfg, app.opts)

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		app.logger.Warn("ignoring reloaded config", "error", err)
		return
	}

	app.mu.Lock()
	prev := app.config
	app.config = cfg
	app.mu.Unlock()

	app.logger.SetLevel(level)
	app.logger.Info("configuration reloaded", "level", level.String())
	if prev.Supabase != cfg.Supabase || prev.Storage != cfg.Storage {
		app.logger.Warn("backend or storage settings changed; restart to apply")
	}
}
