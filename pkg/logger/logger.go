package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// Config holds logger settings. All fields are populated from environment variables.
type Config struct {
	// debug, info, warn or error. Verbose dispatch traces need debug.
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	// json or text.
	Format string `env:"LOG_FORMAT" envDefault:"json"`

	Sentry SentryConfig
}

// SentryConfig holds Sentry integration configuration.
type SentryConfig struct {
	DSN         string `env:"SENTRY_DSN"`
	Environment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
	// MinLevel selects which levels are stored as Sentry logs: warn (default) or error.
	MinLevel string `env:"SENTRY_MIN_LEVEL" envDefault:"warn"`
}

// ParseLevel converts a level name to slog.Level. Unknown names map to info.
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

// New creates a logger writing to stdout with optional context extractors.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	return NewTo(os.Stdout, cfg, extractors...)
}

// NewTo is New with an explicit destination.
func NewTo(w io.Writer, cfg Config, extractors ...ContextExtractor) *slog.Logger {
	return slog.New(NewContextHandler(baseHandler(w, cfg), extractors...))
}

// NewNope creates a no-op logger that discards all output.
// Use this as a default when logging is not configured.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewWithSentry creates a logger that writes locally and forwards warnings and
// errors to Sentry. Without a DSN it behaves like New.
func NewWithSentry(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	local := baseHandler(os.Stdout, cfg)
	if cfg.Sentry.DSN == "" {
		return slog.New(NewContextHandler(local, extractors...))
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		EnableLogs:  true,
	}); err != nil {
		slog.New(local).Error("failed to initialize Sentry", slog.String("error", err.Error()))
		return slog.New(NewContextHandler(local, extractors...))
	}

	logLevels := []slog.Level{slog.LevelWarn, slog.LevelError}
	if ParseLevel(cfg.Sentry.MinLevel) == slog.LevelError {
		logLevels = []slog.Level{slog.LevelError}
	}
	remote := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   logLevels,
	}.NewSentryHandler(context.Background())

	return slog.New(NewContextHandler(newMultiHandler(local, remote), extractors...))
}

// FlushSentry returns a shutdown hook that drains buffered Sentry events.
func FlushSentry(timeout time.Duration) func(context.Context) error {
	return func(context.Context) error {
		sentry.Flush(timeout)
		return nil
	}
}

func baseHandler(out io.Writer, cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}
