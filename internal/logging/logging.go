// Package logging builds the slog logger shared by the pipelines.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New returns a text logger on stderr. Verbose lowers the level to debug.
func New(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
