// Package app wires Julook together: configuration, logging, metrics, the
// notification bus, on-device storage, the Supabase backend, identity and the
// root store that runs the coordinator reducer. It also owns the application
// lifecycle.
package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dshills/julook/internal/catalog"
	"github.com/dshills/julook/internal/config"
	"github.com/dshills/julook/internal/feature/coordinator"
	"github.com/dshills/julook/internal/local/sqlite"
	"github.com/dshills/julook/internal/logging"
	"github.com/dshills/julook/internal/metrics"
	"github.com/dshills/julook/internal/notify"
	"github.com/dshills/julook/internal/store"
)

// RootStore is the store driving the whole app.
type RootStore = store.Store[coordinator.State, coordinator.Action]

// Application owns every long-lived component and the root store.
type Application struct {
	mu sync.RWMutex

	// Core infrastructure
	config  config.Config
	logger  *logging.Logger
	metrics *metrics.Collector
	bus     *notify.Bus
	watcher *config.Watcher

	// Collaborators
	local    *sqlite.Store
	remote   catalog.Remote
	identity catalog.Identity

	store *RootStore

	// State
	running  atomic.Bool
	done     chan struct{}
	stopOnce sync.Once
	stopErr  error

	opts Options
}

// Options configures the application.
type Options struct {
	// ConfigPath is a .toml or .yaml configuration file. Empty uses defaults
	// plus the environment.
	ConfigPath string

	// EnvFile is a dotenv file loaded before the environment.
	EnvFile string

	// SkipEnv ignores JULOOK_* environment variables.
	SkipEnv bool

	// Watch reloads ConfigPath when it changes.
	Watch bool

	// LogLevel overrides the configured level.
	LogLevel string

	// Debug enables development logging.
	Debug bool

	// LogOutput overrides the log destinations.
	LogOutput []string

	// StoragePath overrides the configured database path.
	StoragePath string

	// Remote replaces the Supabase catalog, mainly for tests.
	Remote catalog.Remote
}

// New creates an Application and initializes every component. Nothing runs
// until Start.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts: opts,
		done: make(chan struct{}),
	}

	if err := newBootstrapper(app, opts).bootstrap(); err != nil {
		return nil, err
	}

	return app, nil
}

// Start makes the first screen appear.
func (app *Application) Start() error {
	select {
	case <-app.done:
		return ErrClosed
	default:
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	app.logger.Info("julook started",
		"storage", app.Config().Storage.Path,
		"supabase", app.Config().Supabase.URL,
	)
	app.store.Send(coordinator.Appear{})
	return nil
}

// Run starts the application and blocks until ctx is done or Shutdown is
// called, then shuts down.
func (app *Application) Run(ctx context.Context) error {
	if err := app.Start(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-app.done:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}

// Send dispatches an action to the root store.
func (app *Application) Send(action coordinator.Action) {
	app.store.Send(action)
}

// State returns the current root state.
func (app *Application) State() coordinator.State {
	return app.store.State()
}

// Subscribe observes root state changes. The returned function unsubscribes.
func (app *Application) Subscribe(fn func(coordinator.State)) func() {
	return app.store.Subscribe(fn)
}

// Wait blocks until no effect is running.
func (app *Application) Wait(ctx context.Context) error {
	return app.store.Wait(ctx)
}

// Store returns the root store.
func (app *Application) Store() *RootStore {
	return app.store
}

// Config returns the active configuration, including reloads.
func (app *Application) Config() config.Config {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.config
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	return app.logger
}

// Metrics returns the Prometheus collector.
func (app *Application) Metrics() *metrics.Collector {
	return app.metrics
}

// Bus returns the notification bus.
func (app *Application) Bus() *notify.Bus {
	return app.bus
}

// IsRunning reports whether Start has been called and Shutdown has not.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Done is closed when shutdown begins.
func (app *Application) Done() <-chan struct{} {
	return app.done
}
