// Package log provides structured logging for lumiere.
// It wraps slog with sensible defaults for production use.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logger *slog.Logger
	once   sync.Once
)

// ParseLevel maps a level name to a slog level.
// Valid levels: "debug", "info", "warn", "error". Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger writing to w. JSON output is used when GO_ENV is
// "production", text otherwise.
func New(w io.Writer, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if os.Getenv("GO_ENV") == "production" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Init initializes the global logger with the specified level.
// Only the first call has any effect.
func Init(level string) {
	once.Do(func() {
		logger = New(os.Stdout, level)
		slog.SetDefault(logger)
	})
}

// L returns the global logger instance.
func L() *slog.Logger {
	if logger == nil {
		Init("info")
	}
	return logger
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
