package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var (
	lv   = new(slog.LevelVar) // default info
	opts = &slog.HandlerOptions{Level: lv}
	base atomic.Pointer[slog.Logger]
)

type ctxKey struct{}

func init() {
	base.Store(slog.New(slog.NewJSONHandler(os.Stdout, opts)))
}

// SetLevel changes the runtime log level: debug, info, warn, error.
func SetLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		lv.Set(slog.LevelDebug)
	case "warn", "warning":
		lv.Set(slog.LevelWarn)
	case "error":
		lv.Set(slog.LevelError)
	default:
		lv.Set(slog.LevelInfo)
	}
}

// SetOutput replaces the base logger with one writing JSON to w.
func SetOutput(w io.Writer) {
	base.Store(slog.New(slog.NewJSONHandler(w, opts)))
}

// MakeDefault sets slog.Default() to this package's logger.
func MakeDefault() {
	slog.SetDefault(From())
}

// With returns a child logger with default keyvals.
func With(args ...any) *slog.Logger {
	return From().With(args...)
}

// From returns the current base logger.
func From() *slog.Logger {
	return base.Load()
}

// WithContext stores l in ctx for FromContext.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request scoped logger, or the base logger when the
// context carries none.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return From()
}

func Debug(msg string, args ...any) {
	From().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	From().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	From().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	From().Error(msg, args...)
}
