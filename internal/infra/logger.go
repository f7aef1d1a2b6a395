package infra

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger creates a JSON slog.Logger writing to stdout and, when
// cfg.Logging.File is set, to a rotated file as well.
func NewLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(logWriter(cfg), &slog.HandlerOptions{
		Level: ParseLevel(cfg.Logging.Level),
	})).With(slog.String("service", cfg.App.Name))
}

func logWriter(cfg *Config) io.Writer {
	if cfg.Logging.File == "" {
		return os.Stdout
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
		// Fallback to stdout only
		return os.Stdout
	}

	fileLogger := &lumberjack.Logger{
		Filename:   cfg.Logging.File,
		MaxSize:    10, // Megabytes
		MaxBackups: 3,
		MaxAge:     28, // Days
		Compress:   true,
	}

	return io.MultiWriter(os.Stdout, fileLogger)
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type ctxKey struct{}

// WithInvocationID stores the invocation ID for downstream log lines.
func WithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// InvocationID extracts the invocation ID from context. Returns "" if not set.
func InvocationID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return ""
}

// LogAttrs returns the context's log attributes, for use as slog args.
func LogAttrs(ctx context.Context) []any {
	id := InvocationID(ctx)
	if id == "" {
		return nil
	}
	return []any{slog.String("invocation_id", id)}
}
