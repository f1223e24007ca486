package store

import (
	"time"

	"github.com/dshills/julook/internal/logging"
)

// SendInfo describes one send as seen by hooks.
type SendInfo struct {
	Store      string
	Action     string
	FromEffect bool

	// Set after the reducer has run.
	Effect   string
	Dropped  bool
	Panicked bool
	Duration time.Duration
}

// PreSendHook runs before the reducer.
type PreSendHook interface {
	PreSend(info *SendInfo) bool
}

// PostSendHook runs after every send, including dropped ones.
type PostSendHook interface {
	PostSend(info SendInfo)
}

// PreSendFunc adapts a function to PreSendHook.
type PreSendFunc func(info *SendInfo) bool

// PreSend implements PreSendHook.
func (f PreSendFunc) PreSend(info *SendInfo) bool { return f(info) }

// PostSendFunc adapts a function to PostSendHook.
type PostSendFunc func(info SendInfo)

// PostSend implements PostSendHook.
func (f PostSendFunc) PostSend(info SendInfo) { f(info) }

// LoggingHook logs every send at debug level and panics at error level.
type LoggingHook struct {
	logger *logging.Logger
}

// NewLoggingHook creates a logging hook.
func NewLoggingHook(logger *logging.Logger) *LoggingHook {
	return &LoggingHook{logger: logger.WithComponent("store")}
}

// PostSend implements PostSendHook.
func (h *LoggingHook) PostSend(info SendInfo) {
	if info.Panicked {
		h.logger.Error("action dropped after reducer panic", "store", info.Store, "action", info.Action)
		return
	}
	if !h.logger.Enabled(logging.LevelDebug) {
		return
	}
	h.logger.Debug("action",
		"store", info.Store,
		"action", info.Action,
		"from_effect", info.FromEffect,
		"effect", info.Effect,
		"dropped", info.Dropped,
		"duration", info.Duration,
	)
}
