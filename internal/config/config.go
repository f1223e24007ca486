// Package config loads Julook's configuration.
//
// Values are layered in this order, later layers winning:
//
//  1. Default()
//  2. a TOML or YAML file, chosen by extension
//  3. a .env file (never overriding variables already set)
//  4. JULOOK_* environment variables
//
// A Watcher reloads the file on change and hands the result to a callback.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/julook/internal/logging"
)

// Config is the full application configuration.
type Config struct {
	App      AppConfig      `toml:"app" yaml:"app" envPrefix:"APP_"`
	Supabase SupabaseConfig `toml:"supabase" yaml:"supabase" envPrefix:"SUPABASE_"`
	Storage  StorageConfig  `toml:"storage" yaml:"storage" envPrefix:"STORAGE_"`
	Logging  LoggingConfig  `toml:"logging" yaml:"logging" envPrefix:"LOG_"`
	Effects  EffectsConfig  `toml:"effects" yaml:"effects" envPrefix:"EFFECTS_"`
	Search   SearchConfig   `toml:"search" yaml:"search" envPrefix:"SEARCH_"`
	Paging   PagingConfig   `toml:"paging" yaml:"paging" envPrefix:"PAGING_"`
	Remote   RemoteConfig   `toml:"remote" yaml:"remote" envPrefix:"REMOTE_"`
	Metrics  MetricsConfig  `toml:"metrics" yaml:"metrics" envPrefix:"METRICS_"`
}

// AppConfig holds general settings.
type AppConfig struct {
	Name           string   `toml:"name" yaml:"name" env:"NAME"`
	ToastDuration  Duration `toml:"toast_duration" yaml:"toast_duration" env:"TOAST_DURATION"`
	RecentSearches int      `toml:"recent_searches" yaml:"recent_searches" env:"RECENT_SEARCHES"`
}

// SupabaseConfig locates the backend.
type SupabaseConfig struct {
	URL         string `toml:"url" yaml:"url" env:"URL"`
	AnonKey     string `toml:"anon_key" yaml:"anon_key" env:"ANON_KEY"`
	AccessToken string `toml:"access_token" yaml:"access_token" env:"ACCESS_TOKEN"`
	JWTSecret   string `toml:"jwt_secret" yaml:"jwt_secret" env:"JWT_SECRET"`
}

// StorageConfig locates the on-device database.
type StorageConfig struct {
	Path string `toml:"path" yaml:"path" env:"PATH"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level       string `toml:"level" yaml:"level" env:"LEVEL"`
	Development bool   `toml:"development" yaml:"development" env:"DEVELOPMENT"`
}

// EffectsConfig configures the effect runtime.
type EffectsConfig struct {
	// Timeout bounds each effect; zero means no limit.
	Timeout Duration `toml:"timeout" yaml:"timeout" env:"TIMEOUT"`
}

// SearchConfig configures search.
type SearchConfig struct {
	Debounce Duration `toml:"debounce" yaml:"debounce" env:"DEBOUNCE"`
	Limit    int      `toml:"limit" yaml:"limit" env:"LIMIT"`
}

// PagingConfig configures list pagination.
type PagingConfig struct {
	PageSize int `toml:"page_size" yaml:"page_size" env:"PAGE_SIZE"`
}

// RemoteConfig configures the HTTP client.
type RemoteConfig struct {
	RateLimit float64  `toml:"rate_limit" yaml:"rate_limit" env:"RATE_LIMIT"`
	Burst     int      `toml:"burst" yaml:"burst" env:"BURST"`
	Retries   int      `toml:"retries" yaml:"retries" env:"RETRIES"`
	Timeout   Duration `toml:"timeout" yaml:"timeout" env:"TIMEOUT"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables
// it.
type MetricsConfig struct {
	Addr string `toml:"addr" yaml:"addr" env:"ADDR"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		App: AppConfig{
			Name:           "julook",
			ToastDuration:  Duration(2 * time.Second),
			RecentSearches: 10,
		},
		Storage: StorageConfig{Path: "julook.db"},
		Logging: LoggingConfig{Level: "info"},
		Effects: EffectsConfig{Timeout: Duration(30 * time.Second)},
		Search: SearchConfig{
			Debounce: Duration(300 * time.Millisecond),
			Limit:    30,
		},
		Paging: PagingConfig{PageSize: 20},
		Remote: RemoteConfig{
			RateLimit: 10,
			Burst:     5,
			Retries:   2,
			Timeout:   Duration(15 * time.Second),
		},
	}
}

// Validate checks the configuration and returns every problem found.
func (c Config) Validate() error {
	var errs []error
	add := func(path, msg string, value any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value})
	}

	if c.Supabase.URL == "" {
		add("supabase.url", "is required", c.Supabase.URL)
	} else if u, err := url.Parse(c.Supabase.URL); err != nil || u.Scheme == "" || u.Host == "" {
		add("supabase.url", "must be an absolute URL", c.Supabase.URL)
	}
	if c.Supabase.AnonKey == "" {
		add("supabase.anon_key", "is required", "")
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		add("storage.path", "is required", c.Storage.Path)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		add("logging.level", "must be debug, info, warn or error", c.Logging.Level)
	}
	if c.Effects.Timeout < 0 {
		add("effects.timeout", "must not be negative", c.Effects.Timeout)
	}
	if c.Search.Debounce < 0 {
		add("search.debounce", "must not be negative", c.Search.Debounce)
	}
	if c.Search.Limit <= 0 {
		add("search.limit", "must be positive", c.Search.Limit)
	}
	if c.Paging.PageSize <= 0 || c.Paging.PageSize > 100 {
		add("paging.page_size", "must be between 1 and 100", c.Paging.PageSize)
	}
	if c.Remote.RateLimit < 0 {
		add("remote.rate_limit", "must not be negative", c.Remote.RateLimit)
	}
	if c.Remote.Retries < 0 {
		add("remote.retries", "must not be negative", c.Remote.Retries)
	}
	if c.App.ToastDuration <= 0 {
		add("app.toast_duration", "must be positive", c.App.ToastDuration)
	}
	return errors.Join(errs...)
}

// Duration is a time.Duration written as a string such as "300ms" in files
// and the environment.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// String implements fmt.Stringer.
func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}
