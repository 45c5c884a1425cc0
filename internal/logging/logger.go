// Package logging provides the structured logger used across the vault.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the logging surface the vault depends on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	DebugCtx(ctx context.Context, msg string, args ...any)
	InfoCtx(ctx context.Context, msg string, args ...any)
	WarnCtx(ctx context.Context, msg string, args ...any)
	ErrorCtx(ctx context.Context, msg string, args ...any)
}

const prefix = "[vault] "

// SlogLogger writes text records through log/slog.
type SlogLogger struct {
	logger *slog.Logger
}

// New returns a logger writing to stderr at the given level.
func New(level slog.Level) *SlogLogger {
	return NewWriter(os.Stderr, level)
}

// NewWriter returns a logger writing to w at the given level.
func NewWriter(w io.Writer, level slog.Level) *SlogLogger {
	return &SlogLogger{logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))}
}

// ParseLevel maps "debug", "info", "warn" and "error" onto slog levels.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(prefix+msg, args...) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(prefix+msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(prefix+msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(prefix+msg, args...) }

func (l *SlogLogger) DebugCtx(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, prefix+msg, append(args, defaultArgs(ctx)...)...)
}

func (l *SlogLogger) InfoCtx(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, prefix+msg, append(args, defaultArgs(ctx)...)...)
}

func (l *SlogLogger) WarnCtx(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, prefix+msg, append(args, defaultArgs(ctx)...)...)
}

func (l *SlogLogger) ErrorCtx(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, prefix+msg, append(args, defaultArgs(ctx)...)...)
}

type argsKey struct{}

// WithDefaultArgs returns a context whose key/value pairs are appended to
// every Ctx log call made with it.
func WithDefaultArgs(ctx context.Context, args ...any) context.Context {
	merged := append(append([]any(nil), defaultArgs(ctx)...), args...)
	return context.WithValue(ctx, argsKey{}, merged)
}

func defaultArgs(ctx context.Context) []any {
	args, _ := ctx.Value(argsKey{}).([]any)
	return args
}

// Nop discards everything.
type Nop struct{}

func (Nop) Debug(string, ...any)                     {}
func (Nop) Info(string, ...any)                      {}
func (Nop) Warn(string, ...any)                      {}
func (Nop) Error(string, ...any)                     {}
func (Nop) DebugCtx(context.Context, string, ...any) {}
func (Nop) InfoCtx(context.Context, string, ...any)  {}
func (Nop) WarnCtx(context.Context, string, ...any)  {}
func (Nop) ErrorCtx(context.Context, string, ...any) {}
