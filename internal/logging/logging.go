// Package logging provides the structured logger used across knowhub,
// built on [log/slog]. A logger is constructed once at startup from a
// [Config] and distributed through context values using [WithLogger] /
// [FromContext].
//
// [NewFromEnv] is the only place environment variables are read:
//
//	LOG_LEVEL  = debug | info | warn | error  (default: info)
//	LOG_FORMAT = json | text                  (default: json)
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// contextKey is an unexported type for context keys in this package.
type contextKey struct{}

// Config selects the handler and minimum severity of a logger.
type Config struct {
	// Level is the minimum severity: debug, info, warn, error. Default info.
	Level string
	// Format selects the handler: json for production, text for local dev.
	// Default json.
	Format string
}

// New constructs a [*slog.Logger] from cfg, writing to stderr.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = &Config{}
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

// NewFromEnv constructs a [*slog.Logger] from the LOG_LEVEL and LOG_FORMAT
// environment variables. YAML config values reach this through the env
// overlay, so it must run after config loading to observe them.
func NewFromEnv() *slog.Logger {
	return New(&Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
	})
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the [*slog.Logger] stored in ctx.
// If no logger is present it returns [slog.Default] so callers never
// need to nil-check.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// parseLevel converts a string to a [slog.Level], defaulting to Info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
