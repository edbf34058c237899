// Package logger wraps log/slog with the attribute vocabulary the rest of
// patterex logs by: an execution ID identifying one reactor.Run, and a
// pattern-tree path/kind pair identifying the node within it.
// WithExecution and WithPattern attach these keys so a call site need not
// spell them out; the HTTP API and the cron trigger scope their run log
// lines with WithExecution, while the observers write the same keys
// directly from each event.
package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/smilemakc/patterex/internal/config"
)

// Logger wraps slog.Logger with patterex's structured-attribute
// conventions.
type Logger struct {
	logger *slog.Logger
}

// New builds a Logger writing to stdout in the format and at the level
// cfg describes. AddSource is only turned on at debug level — file:line
// on every line is noise once a deployment has settled on info or above.
func New(cfg config.LoggingConfig) *Logger {
	level := parseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.Level == "debug",
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return &Logger{logger: slog.New(handler)}
}

// With returns a Logger that includes args on every subsequent line.
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{logger: l.logger.With(args...)}
}

// WithExecution scopes a Logger to one execution ID, the correlation key
// every reactor.Run, observer event, and execution-registry entry shares.
func (l *Logger) WithExecution(executionID string) *Logger {
	return l.With("execution_id", executionID)
}

// WithPattern scopes a Logger to a node's position and kind within a
// pattern tree, the same path/kind pair observer.Event carries.
func (l *Logger) WithPattern(path, kind string) *Logger {
	return l.With("path", path, "kind", kind)
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.logger.Debug(msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.logger.Info(msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.logger.Warn(msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.logger.Error(msg, args...)
}

// DebugContext logs a debug message with context.
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...interface{}) {
	l.logger.DebugContext(ctx, msg, args...)
}

// InfoContext logs an info message with context.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...interface{}) {
	l.logger.InfoContext(ctx, msg, args...)
}

// WarnContext logs a warning message with context.
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...interface{}) {
	l.logger.WarnContext(ctx, msg, args...)
}

// ErrorContext logs an error message with context.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...interface{}) {
	l.logger.ErrorContext(ctx, msg, args...)
}

// parseLevel maps patterex's PATTEREX_LOG_LEVEL values to a slog.Level,
// defaulting to info for anything unrecognized.
func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
