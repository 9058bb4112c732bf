// Package logging builds the process-wide slog logger. Log lines go to
// stderr; stdout is reserved for the interactive chat transcript.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a structured logger tagged with the service name. Format is
// "json" or "text"; anything else falls back to json.
func New(service, level, format string) *slog.Logger {
	return NewWithWriter(os.Stderr, service, level, format)
}

func NewWithWriter(w io.Writer, service, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With("service", service)
}

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
