// Package logging provides the leveled, structured logger used across the service.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel maps "debug", "info", "warn" and "error" to a Level. Unknown
// values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field is a single structured key/value attached to a log line.
type Field struct {
	Key   string
	Value interface{}
}

// Fields is a group of fields, as produced by WithFields.
type Fields []Field

type Option interface {
	apply(*[]slog.Attr)
}

func (f Field) apply(attrs *[]slog.Attr) {
	*attrs = append(*attrs, slog.Any(f.Key, f.Value))
}

func (fs Fields) apply(attrs *[]slog.Attr) {
	for _, f := range fs {
		f.apply(attrs)
	}
}

func WithField(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// WithFields converts a map into fields sorted by key so output is stable.
func WithFields(m map[string]interface{}) Fields {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make(Fields, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Key: k, Value: m[k]})
	}
	return fields
}

type Logger struct {
	level  Level
	logger *slog.Logger
}

// New creates a JSON logger writing to stderr. Stdout is left alone so the
// MCP stdio transport is never corrupted by log output.
func New(level Level) *Logger {
	return NewWithWriter(os.Stderr, level)
}

func NewWithWriter(w io.Writer, level Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level.slogLevel()})
	return &Logger{level: level, logger: slog.New(handler)}
}

func (l *Logger) Level() Level {
	return l.level
}

// With returns a child logger that always carries the given fields.
func (l *Logger) With(opts ...Option) *Logger {
	attrs := collect(opts)
	args := make([]any, 0, len(attrs))
	for _, a := range attrs {
		args = append(args, a)
	}
	return &Logger{level: l.level, logger: l.logger.With(args...)}
}

func (l *Logger) Debug(msg string, opts ...Option) {
	l.log(slog.LevelDebug, msg, opts)
}

func (l *Logger) Info(msg string, opts ...Option) {
	l.log(slog.LevelInfo, msg, opts)
}

func (l *Logger) Warn(msg string, opts ...Option) {
	l.log(slog.LevelWarn, msg, opts)
}

func (l *Logger) Error(msg string, opts ...Option) {
	l.log(slog.LevelError, msg, opts)
}

func (l *Logger) log(level slog.Level, msg string, opts []Option) {
	if l == nil || l.logger == nil {
		return
	}
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.LogAttrs(ctx, level, msg, collect(opts)...)
}

func collect(opts []Option) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(opts))
	for _, o := range opts {
		if o != nil {
			o.apply(&attrs)
		}
	}
	return attrs
}
