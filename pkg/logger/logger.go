// Package logger provides a small structured logging interface backed by logrus.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger defines the logging interface used across the service.
type Logger interface {
	Info(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)

	Named(name string) Logger
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// Field constructors.
func String(key, val string) Field          { return Field{Key: key, Value: val} }
func Int(key string, val int) Field         { return Field{Key: key, Value: val} }
func Int64(key string, val int64) Field     { return Field{Key: key, Value: val} }
func Float64(key string, val float64) Field { return Field{Key: key, Value: val} }
func Any(key string, val interface{}) Field { return Field{Key: key, Value: val} }
func Error(err error) Field                 { return Field{Key: "error", Value: err} }

type contextKey struct{}

// WithRequestID returns a context whose log lines carry request_id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

type logrusLogger struct {
	entry *logrus.Entry
}

func (l *logrusLogger) Named(name string) Logger {
	if prev, ok := l.entry.Data["logger"].(string); ok && prev != "" {
		name = prev + "." + name
	}
	return &logrusLogger{entry: l.entry.WithField("logger", name)}
}

func (l *logrusLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.with(ctx, fields).Info(msg)
}

func (l *logrusLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.with(ctx, fields).Error(msg)
}

func (l *logrusLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.with(ctx, fields).Debug(msg)
}

func (l *logrusLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.with(ctx, fields).Warn(msg)
}

func (l *logrusLogger) with(ctx context.Context, fields []Field) *logrus.Entry {
	data := make(logrus.Fields, len(fields)+1)
	for _, f := range fields {
		data[f.Key] = f.Value
	}
	if ctx != nil {
		if id, ok := ctx.Value(contextKey{}).(string); ok {
			data["request_id"] = id
		}
	}
	return l.entry.WithContext(ctx).WithFields(data)
}

var (
	mu     sync.RWMutex
	global Logger
	base   *logrus.Logger
)

// New returns a standalone logger writing text lines to w.
func New(w io.Writer) Logger {
	return &logrusLogger{entry: logrus.NewEntry(newLogrus(w))}
}

func newLogrus(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// Init initializes the global logger on stdout at info level.
func Init() error {
	mu.Lock()
	defer mu.Unlock()
	base = newLogrus(os.Stdout)
	global = &logrusLogger{entry: logrus.NewEntry(base)}
	return nil
}

// Get returns the global logger.
func Get() Logger {
	mu.RLock()
	defer mu.RUnlock()
	if global == nil {
		panic("logger not initialized. Call logger.Init() first")
	}
	return global
}

// Named creates a named child of the global logger.
func Named(name string) Logger {
	return Get().Named(name)
}

// SetLevelString parses and sets the global logging level.
// Accepts: debug, info, warn/warning, error (case-insensitive).
func SetLevelString(level string) error {
	mu.Lock()
	defer mu.Unlock()
	if base == nil {
		return fmt.Errorf("logger not initialized")
	}
	lvl := strings.ToLower(strings.TrimSpace(level))
	if lvl == "" {
		lvl = "info"
	}
	parsed, err := logrus.ParseLevel(lvl)
	if err != nil {
		return fmt.Errorf("unknown log level: %s", level)
	}
	base.SetLevel(parsed)
	return nil
}
