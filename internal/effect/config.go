package effect

import (
	"fmt"
	"time"

	"github.com/dshills/julook/internal/logging"
)

// PanicError wraps a value recovered from a panicking effect body.
type PanicError struct {
	Value any
	Stack []byte
}

// Error implements error.
func (e *PanicError) Error() string {
	return fmt.Sprintf("effect: panic: %v", e.Value)
}

// PanicHandler is called after a panic in an effect body has been recovered.
type PanicHandler func(err *PanicError)

// Observer receives scheduling events, typically for metrics.
type Observer interface {
	EffectStarted(kind string)
	EffectCancelled(id string, count int)
	EffectPanicked()
}

// Config configures a Runtime.
type Config struct {
	// Timeout bounds each Run body. Zero means no limit, which long-lived
	// subscriptions require.
	Timeout time.Duration

	// PanicHandler is called for every recovered panic.
	PanicHandler PanicHandler

	// Observer receives scheduling events.
	Observer Observer

	// Logger receives cancellation and panic records.
	Logger *logging.Logger
}

// DefaultConfig returns the default runtime configuration.
func DefaultConfig() Config {
	return Config{Logger: logging.Nop()}
}

// Option configures a Runtime.
type Option func(*Config)

// WithTimeout bounds every Run body by d.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithPanicHandler sets the panic handler.
func WithPanicHandler(h PanicHandler) Option {
	return func(c *Config) {
		c.PanicHandler = h
	}
}

// WithObserver sets the scheduling observer.
func WithObserver(o Observer) Option {
	return func(c *Config) {
		c.Observer = o
	}
}

// WithLogger sets the runtime logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}
