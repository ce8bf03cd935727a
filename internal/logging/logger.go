// Package logging holds the process-wide structured logger. Progress
// output for the operator goes to stdout via the CLI; diagnostics go
// through here to stderr.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var logger *slog.Logger

// Init configures the global logger at the given level ("debug", "info",
// "warn", "error").
func Init(level string) {
	InitWithWriter(level, os.Stderr)
}

// InitWithWriter is Init with an explicit destination, used by tests.
func InitWithWriter(level string, w io.Writer) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
}

// Logger returns the global logger, initializing it at info level if
// Init was never called.
func Logger() *slog.Logger {
	if logger == nil {
		Init("info")
	}
	return logger
}

// Debug logs at debug level.
func Debug(msg string, args ...any) { Logger().Debug(msg, args...) }

// Info logs at info level.
func Info(msg string, args ...any) { Logger().Info(msg, args...) }

// Warn logs at warn level.
func Warn(msg string, args ...any) { Logger().Warn(msg, args...) }

// Error logs at error level.
func Error(msg string, args ...any) { Logger().Error(msg, args...) }
