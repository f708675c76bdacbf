// Package logging provides the structured logger used across krado.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with meshing-specific fields.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, a text handler at info level on stderr is used.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that writes JSON lines to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewJSONLoggerTo(os.Stderr, level)
}

// NewJSONLoggerTo creates a JSON Logger writing to w.
func NewJSONLoggerTo(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewTextLoggerTo(os.Stderr, level)
}

// NewTextLoggerTo creates a text Logger writing to w.
func NewTextLoggerTo(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards everything.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// ParseLevel maps "debug", "info", "warn" and "error" to a slog level.
// Unknown names map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// WithEntity adds the entity kind and tag.
func (l *Logger) WithEntity(kind string, tag int) *Logger {
	return &Logger{Logger: l.Logger.With("entity", kind, "tag", tag)}
}

// WithScheme adds a scheme name field.
func (l *Logger) WithScheme(name string) *Logger {
	return &Logger{Logger: l.Logger.With("scheme", name)}
}

// LogMeshed logs the outcome of meshing one entity.
func (l *Logger) LogMeshed(ctx context.Context, kind string, tag, nodes, elems int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "mesh failed",
			"entity", kind,
			"tag", tag,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "mesh completed",
		"entity", kind,
		"tag", tag,
		"nodes", nodes,
		"elements", elems,
	)
}

// LogInvalidated logs a dependant entity losing its mesh after its boundary
// was re-meshed.
func (l *Logger) LogInvalidated(ctx context.Context, kind string, tag int) {
	l.WarnContext(ctx, "mesh invalidated",
		"entity", kind,
		"tag", tag,
	)
}

// LogExport logs a mesh export.
func (l *Logger) LogExport(ctx context.Context, name string, bytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "export failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "export completed",
		"name", name,
		"bytes", bytes,
	)
}
