// Package slogger provides the structured logger used by pipelines and the CLI.
package slogger

import (
	"context"
	"strings"
)

// Logger is the logging interface used across the module. It is satisfied by
// the slog-backed Slogger and by DevNullLogger.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)

	// With returns a Logger that adds the given key-value pairs to every record
	With(keysAndValues ...any) Logger
}

// DefaultLogger is used when nothing else was configured. Library code stays
// silent unless a caller installs a real logger.
var DefaultLogger Logger = NewDevNullLogger()

type contextKey string

const loggerKey contextKey = "promptchain.logger"

// WithLogger returns a new context carrying logger
func WithLogger(ctx context.Context, logger Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// Ctx returns the logger carried by ctx, or DefaultLogger
func Ctx(ctx context.Context) Logger {
	if ctx == nil {
		return DefaultLogger
	}
	if logger, ok := ctx.Value(loggerKey).(Logger); ok {
		return logger
	}
	return DefaultLogger
}

// LevelFromString converts "debug", "info", "warn" or "error" to a LogLevel
func LevelFromString(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return DefaultLogLevel
	}
}
