package log

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

var (
	defaultLogLevel slog.LevelVar
	defaultLogger   = slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      &defaultLogLevel,
		TimeFormat: time.RFC3339,
	}))
)

func init() {
	defaultLogLevel.Set(slog.LevelInfo)
}

type contextKey struct{}

var loggerKey = contextKey{}

// Ctx returns the logger from the context. If no logger is found, it returns the default logger.
func Ctx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return defaultLogger
}

// With returns a new context with the given logger.
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// SetDefault replaces the fallback logger returned by Ctx when the context
// carries none.
func SetDefault(logger *slog.Logger) {
	defaultLogger = logger
}

func SetDefaultLogLevel(level slog.Level) {
	defaultLogLevel.Set(level)
}
