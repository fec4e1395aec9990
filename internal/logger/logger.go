// Package logger builds the structured slog logger shared by the web binary
// and the auth components.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogFormat represents the output format for logs
type LogFormat string

const (
	// FormatJSON outputs logs in JSON format (production default)
	FormatJSON LogFormat = "json"
	// FormatText outputs logs in human-readable text format (development default)
	FormatText LogFormat = "text"
)

// Options controls how the logger is built.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New creates a structured logger from explicit options.
//
// Level options: debug, info, warn, error (default: info)
// Format options: json, text (default: json)
func New(opts Options) *slog.Logger {
	level := ParseLevel(opts.Level)
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level: level,
		// Source location is attached at warn and above
		AddSource: level >= slog.LevelWarn,
	}

	var handler slog.Handler
	switch ParseFormat(opts.Format) {
	case FormatText:
		handler = slog.NewTextHandler(out, handlerOpts)
	default:
		handler = slog.NewJSONHandler(out, handlerOpts)
	}

	return slog.New(handler)
}

// NewFromEnv creates a logger from LOG_LEVEL and LOG_FORMAT.
func NewFromEnv() *slog.Logger {
	return New(Options{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
	})
}

// ParseLevel maps a level name to the corresponding slog.Level
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseFormat maps a format name to a LogFormat, defaulting to JSON
func ParseFormat(formatStr string) LogFormat {
	switch strings.ToLower(formatStr) {
	case "text":
		return FormatText
	default:
		return FormatJSON
	}
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SetDefault sets the given logger as the default slog logger
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}
