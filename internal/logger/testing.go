// Package logger provides test helpers for structured logging.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// NewTestLogger creates a logger for tests.
// It only prints warnings and errors unless TEST_DEBUG is set, in which case
// everything down to debug is written to stdout.
func NewTestLogger() *slog.Logger {
	if os.Getenv("TEST_DEBUG") != "" {
		return NewLogger(Config{Level: slog.LevelDebug, Output: os.Stdout})
	}
	return NewLogger(Config{Level: slog.LevelWarn, Output: os.Stdout})
}

// NewDiscardLogger creates a logger that drops everything.
// Useful for benchmarks and tests that exercise error paths on purpose.
func NewDiscardLogger() *slog.Logger {
	return NewLogger(Config{Level: slog.LevelError, Output: io.Discard})
}
