// Package log configures the process-wide slog logger for the CLI.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Options configures the logger.
type Options struct {
	// Verbose enables debug/info output. Without it only warnings and
	// errors are emitted.
	Verbose bool
	// JSONFormat uses JSON output format.
	JSONFormat bool
	// Stderr is the output writer (defaults to os.Stderr).
	Stderr io.Writer
}

// Init initializes the default logger with the given options.
func Init(opts Options) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.JSONFormat {
		handler = slog.NewJSONHandler(stderr, handlerOpts)
	} else {
		handler = slog.NewTextHandler(stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
}
