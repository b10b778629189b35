// Package logger provides structured logging built on log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Level represents the minimum log level.
type Level slog.Level

const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// LoggerInterface is the logging contract consumed by services. All methods
// take a context so trace correlation can be attached.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) LoggerInterface
}

// EventFunc receives every record that passes the level filter; the TUI
// uses it to mirror log lines into its viewport.
type EventFunc func(level Level, msg string, args ...any)

// Logger implements LoggerInterface on top of slog with JSON output.
type Logger struct {
	sl     *slog.Logger
	level  *slog.LevelVar
	events EventFunc
}

// New creates a Logger writing JSON records to w at the given level. The
// service name is attached to every record. events may be nil.
func New(w io.Writer, level Level, service string, events EventFunc) *Logger {
	lv := new(slog.LevelVar)
	lv.Set(slog.Level(level))

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lv})
	sl := slog.New(h).With("service", service)

	return &Logger{sl: sl, level: lv, events: events}
}

// NewNop returns a logger that discards everything. Useful in tests.
func NewNop() *Logger {
	return New(io.Discard, LevelError, "test", nil)
}

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(level Level) {
	l.level.Set(slog.Level(level))
}

// Debug logs at debug level.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelError, msg, args...)
}

// With returns a logger that includes the given attributes on every record.
func (l *Logger) With(args ...any) LoggerInterface {
	return &Logger{sl: l.sl.With(args...), level: l.level, events: l.events}
}

func (l *Logger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if level < l.level.Level() {
		return
	}

	if span := trace.SpanContextFromContext(ctx); span.HasTraceID() {
		args = append(args, "trace_id", span.TraceID().String())
	}
	l.sl.Log(ctx, level, msg, args...)

	if l.events != nil {
		l.events(Level(level), msg, args...)
	}
}
