package store

import (
	"github.com/dshills/julook/internal/effect"
	"github.com/dshills/julook/internal/logging"
)

// Config configures a root store.
type Config struct {
	// Name identifies the store in logs and metrics.
	Name string

	// Logger is the base logger. Defaults to a no-op logger.
	Logger *logging.Logger

	// RecoverPanics keeps a panicking reducer from taking the process down.
	// The action is dropped and the state left unchanged.
	RecoverPanics bool

	// PreHooks run before the reducer, under the store lock. A hook
	// returning false drops the action.
	PreHooks []PreSendHook

	// PostHooks run after every send, outside the store lock.
	PostHooks []PostSendHook

	// EffectOptions configure the store's effect runtime.
	EffectOptions []effect.Option
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		Name:          "root",
		Logger:        logging.Nop(),
		RecoverPanics: true,
	}
}

// Option configures a store.
type Option func(*Config)

// WithName sets the store name.
func WithName(name string) Option {
	return func(c *Config) {
		c.Name = name
	}
}

// WithLogger sets the store logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithPanicRecovery enables or disables reducer panic recovery.
func WithPanicRecovery(enabled bool) Option {
	return func(c *Config) {
		c.RecoverPanics = enabled
	}
}

// WithPreHook adds a pre-send hook.
func WithPreHook(h PreSendHook) Option {
	return func(c *Config) {
		c.PreHooks = append(c.PreHooks, h)
	}
}

// WithPostHook adds a post-send hook.
func WithPostHook(h PostSendHook) Option {
	return func(c *Config) {
		c.PostHooks = append(c.PostHooks, h)
	}
}

// WithEffectOptions passes options through to the effect runtime.
func WithEffectOptions(opts ...effect.Option) Option {
	return func(c *Config) {
		c.EffectOptions = append(c.EffectOptions, opts...)
	}
}
