// Package logger configures the process-wide slog logger from environment
// settings. Everything downstream takes a *slog.Logger; this package only
// decides handler, level, and the base attributes every line carries.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options controls logger construction.
type Options struct {
	// Level is one of debug, info, warn, error. Unknown values fall back
	// to info.
	Level string

	// Format is json or text. Production deployments use json; text is
	// easier to read during development.
	Format string

	// Output defaults to os.Stdout.
	Output io.Writer

	// Service and Version are attached to every record.
	Service string
	Version string

	// AddSource includes file:line on each record. Expensive; debug only.
	AddSource bool
}

// New builds a *slog.Logger from Options.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     ParseLevel(opts.Level),
		AddSource: opts.AddSource,
	}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		handler = slog.NewTextHandler(out, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}

	logger := slog.New(handler)
	if opts.Service != "" {
		logger = logger.With("service", opts.Service)
	}
	if opts.Version != "" {
		logger = logger.With("version", opts.Version)
	}
	return logger
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
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
