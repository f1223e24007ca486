// Package logging provides the structured logger shared by every Julook
// component. It is a thin layer over zap's SugaredLogger that adds component
// scoping and redaction of credential-like fields.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity level of a log message.
type Level int

const (
	// LevelDebug is for detailed debugging information.
	LevelDebug Level = iota
	// LevelInfo is for general informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel parses a level name. Unknown names are an error.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("logging: unknown level %q", s)
	}
}

// Config configures a Logger.
type Config struct {
	// Level is the minimum level written.
	Level Level
	// Development switches to zap's human-readable console encoder.
	Development bool
	// OutputPaths overrides zap's output paths. Defaults to stderr.
	OutputPaths []string
}

// Logger is a leveled, structured logger.
type Logger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

// New builds a Logger from cfg.
func New(cfg Config) (*Logger, error) {
	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	level := zap.NewAtomicLevelAt(cfg.Level.zapLevel())
	zc.Level = level
	if len(cfg.OutputPaths) > 0 {
		zc.OutputPaths = cfg.OutputPaths
	} else {
		zc.OutputPaths = []string{"stderr"}
	}

	zl, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build zap logger: %w", err)
	}
	return &Logger{sugar: zl.Sugar(), level: level}, nil
}

// NewWithCore wraps an existing zap core. Used by tests with zaptest/observer.
func NewWithCore(core zapcore.Core) *Logger {
	return &Logger{
		sugar: zap.New(core).Sugar(),
		level: zap.NewAtomicLevelAt(zapcore.DebugLevel),
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar(), level: zap.NewAtomicLevel()}
}

// WithField returns a child logger that always carries key=value.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{
		sugar: l.sugar.With(sanitize([]any{key, value})...),
		level: l.level,
	}
}

// WithFields returns a child logger that carries every entry of fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	kv := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return &Logger{sugar: l.sugar.With(sanitize(kv)...), level: l.level}
}

// WithComponent returns a child logger tagged with the component name.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// SetLevel changes the minimum level for this logger and all its children.
func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(level.zapLevel())
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return l.level.Enabled(level.zapLevel())
}

// Debug logs a debug message with alternating key/value pairs.
func (l *Logger) Debug(msg string, kv ...any) {
	l.sugar.Debugw(msg, sanitize(kv)...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, kv ...any) {
	l.sugar.Infow(msg, sanitize(kv)...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, kv ...any) {
	l.sugar.Warnw(msg, sanitize(kv)...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, kv ...any) {
	l.sugar.Errorw(msg, sanitize(kv)...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
