package logging

import (
	"log/slog"
	"os"
)

// New creates the daemon logger with JSON output on stdout.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// NewText creates a human-readable logger on stderr for one-shot CLI
// commands, keeping stdout free for command output.
func NewText(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
