// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
)

// Setup installs a text handler writing to w as the default logger. Verbose
// lowers the level to debug, which includes every git command line.
func Setup(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
