// Package logging configures log/slog for the CLI and the batch runner and
// carries a run trace id through context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type traceKey struct{}

// Setup installs the default logger. Level is one of debug, info, warn or
// error (default info); format is text or json (default text).
func Setup(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
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

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

// FromContext returns the default logger, tagged with trace_id when ctx
// carries one.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if id, ok := ctx.Value(traceKey{}).(string); ok && id != "" {
		logger = logger.With("trace_id", id)
	}
	return logger
}

func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
