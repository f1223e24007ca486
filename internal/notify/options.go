package notify

import (
	"time"

	"github.com/dshills/julook/internal/logging"
)

// Config configures a Bus.
type Config struct {
	QueueSize      int
	Workers        int
	HandlerTimeout time.Duration
	Logger         *logging.Logger
}

// DefaultConfig returns the default bus configuration.
func DefaultConfig() Config {
	return Config{
		QueueSize:      256,
		Workers:        4,
		HandlerTimeout: 5 * time.Second,
		Logger:         logging.Nop(),
	}
}

// Option configures a Bus.
type Option func(*Config)

// WithQueueSize sets the async delivery queue size.
func WithQueueSize(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.QueueSize = n
		}
	}
}

// WithWorkers sets the number of delivery workers.
func WithWorkers(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Workers = n
		}
	}
}

// WithHandlerTimeout bounds each async delivery.
func WithHandlerTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.HandlerTimeout = d
	}
}

// WithLogger sets the bus logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}
