package app

import (
	"context"
	"net/http"
	"time"

	"github.com/dshills/julook/internal/config"
	"github.com/dshills/julook/internal/effect"
	"github.com/dshills/julook/internal/feature/coordinator"
	"github.com/dshills/julook/internal/identity"
	"github.com/dshills/julook/internal/local/sqlite"
	"github.com/dshills/julook/internal/logging"
	"github.com/dshills/julook/internal/metrics"
	"github.com/dshills/julook/internal/notify"
	"github.com/dshills/julook/internal/remote/supabase"
	"github.com/dshills/julook/internal/store"
)

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application, opts Options) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      opts,
		initOrder: make([]string, 0, 8),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initConfig,
		b.initLogger,
		b.initMetrics,
		b.initBus,
		b.initLocal,
		b.initRemote,
		b.initIdentity,
		b.initStore,
		b.initWatcher,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.cleanup()
			return err
		}
	}
	return nil
}

// initConfig loads the layered configuration and applies command line
// overrides.
func (b *bootstrapper) initConfig() error {
	cfg, err := config.Load(b.loadOptions())
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	applyOverrides(&cfg, b.opts)
	if err := cfg.Validate(); err != nil {
		return &InitError{Component: "config", Err: err}
	}
	b.app.config = cfg
	b.initOrder = append(b.initOrder, "config")
	return nil
}

func (b *bootstrapper) loadOptions() config.Options {
	return config.Options{
		Path:    b.opts.ConfigPath,
		EnvFile: b.opts.EnvFile,
		SkipEnv: b.opts.SkipEnv,
	}
}

// applyOverrides lets command line flags win over every config layer.
func applyOverrides(cfg *config.Config, opts Options) {
	if opts.Debug {
		cfg.Logging.Development = true
		if opts.LogLevel == "" {
			cfg.Logging.Level = "debug"
		}
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.StoragePath != "" {
		cfg.Storage.Path = opts.StoragePath
	}
}

// initLogger builds the zap-backed logger.
func (b *bootstrapper) initLogger() error {
	cfg := b.app.config.Logging
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return &InitError{Component: "logger", Err: err}
	}
	logger, err := logging.New(logging.Config{
		Level:       level,
		Development: cfg.Development,
		OutputPaths: b.opts.LogOutput,
	})
	if err != nil {
		return &InitError{Component: "logger", Err: err}
	}
	b.app.logger = logger.WithField("app", b.app.config.App.Name)
	b.initOrder = append(b.initOrder, "logger")
	return nil
}

func (b *bootstrapper) initMetrics() error {
	b.app.metrics = metrics.New()
	b.initOrder = append(b.initOrder, "metrics")
	return nil
}

// initBus starts the notification bus shared by every screen.
func (b *bootstrapper) initBus() error {
	b.app.bus = notify.New(notify.WithLogger(b.app.logger))
	if err := b.app.bus.Start(); err != nil {
		return &InitError{Component: "bus", Err: err}
	}
	b.initOrder = append(b.initOrder, "bus")
	return nil
}

// initLocal opens and migrates the on-device database.
func (b *bootstrapper) initLocal() error {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	local, err := sqlite.Open(ctx, b.app.config.Storage.Path)
	if err != nil {
		return &InitError{Component: "sqlite", Err: err}
	}
	b.app.local = local
	b.initOrder = append(b.initOrder, "sqlite")
	return nil
}

// initRemote creates the Supabase catalog unless one was supplied.
func (b *bootstrapper) initRemote() error {
	if b.opts.Remote != nil {
		b.app.remote = b.opts.Remote
		return nil
	}

	cfg := b.app.config
	retry := supabase.DefaultRetryConfig()
	retry.MaxRetries = cfg.Remote.Retries

	client, err := supabase.New(supabase.Config{
		URL:         cfg.Supabase.URL,
		AnonKey:     cfg.Supabase.AnonKey,
		AccessToken: cfg.Supabase.AccessToken,
		HTTPClient:  &http.Client{Timeout: cfg.Remote.Timeout.Std()},
		RateLimit:   cfg.Remote.RateLimit,
		Burst:       cfg.Remote.Burst,
		Retry:       retry,
		Logger:      b.app.logger,
		Observer:    b.app.metrics,
	})
	if err != nil {
		return &InitError{Component: "supabase", Err: err}
	}
	b.app.remote = supabase.NewCatalog(client)
	b.initOrder = append(b.initOrder, "supabase")
	return nil
}

// initIdentity prefers the signed-in user and falls back to a device id kept
// in the local database.
func (b *bootstrapper) initIdentity() error {
	cfg := b.app.config.Supabase
	b.app.identity = identity.Chain{
		identity.NewTokenProvider(cfg.AccessToken, cfg.JWTSecret),
		identity.NewDeviceProvider(b.app.local),
	}
	b.initOrder = append(b.initOrder, "identity")
	return nil
}

// initStore builds the root store around the coordinator reducer.
func (b *bootstrapper) initStore() error {
	cfg := b.app.config
	deps := coordinator.NewDependencies(
		coordinator.Collaborators{
			Remote:   b.app.remote,
			Local:    b.app.local,
			Identity: b.app.identity,
			Notifier: b.app.bus,
			Logger:   b.app.logger,
		},
		coordinator.Tuning{
			PageSize:       cfg.Paging.PageSize,
			SearchDebounce: cfg.Search.Debounce.Std(),
			SearchLimit:    cfg.Search.Limit,
			RecentSearches: cfg.App.RecentSearches,
			ToastDuration:  cfg.App.ToastDuration.Std(),
		},
	)

	b.app.store = store.New(coordinator.State{}, coordinator.Reducer(deps),
		store.WithName(cfg.App.Name),
		store.WithLogger(b.app.logger),
		store.WithPostHook(store.NewLoggingHook(b.app.logger)),
		store.WithPostHook(b.app.metrics),
		store.WithEffectOptions(
			effect.WithTimeout(cfg.Effects.Timeout.Std()),
			effect.WithObserver(b.app.metrics),
			effect.WithLogger(b.app.logger),
		),
	)
	b.initOrder = append(b.initOrder, "store")
	return nil
}

// initWatcher reloads the configuration file on change when asked to.
func (b *bootstrapper) initWatcher() error {
	if !b.opts.Watch || b.opts.ConfigPath == "" {
		return nil
	}
	w, err := config.NewWatcher(b.loadOptions(), b.app.applyConfig,
		config.WithWatchLogger(b.app.logger),
	)
	if err != nil {
		return &InitError{Component: "config watcher", Err: err}
	}
	b.app.watcher = w
	b.initOrder = append(b.initOrder, "watcher")
	return nil
}

// cleanup performs cleanup in reverse initialization order.
// Called when bootstrap fails partway through.
func (b *bootstrapper) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for i := len(b.initOrder) - 1; i >= 0; i-- {
		_ = b.app.closeComponent(ctx, b.initOrder[i])
	}
}

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)
