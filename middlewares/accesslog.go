package middlewares

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/dispatch/internal"
)

// AccessLogOption configures the access log middleware.
type AccessLogOption func(*accessLogConfig)

type accessLogConfig struct {
	logger *slog.Logger
	level  slog.Level
}

// WithAccessLogger logs to l instead of the request logger.
func WithAccessLogger(l *slog.Logger) AccessLogOption {
	return func(cfg *accessLogConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithAccessLogLevel sets the level of successful entries. Default: info.
// Failed requests are always logged at warn or above.
func WithAccessLogLevel(level slog.Level) AccessLogOption {
	return func(cfg *accessLogConfig) {
		cfg.level = level
	}
}

// AccessLog returns middleware that logs one entry per dispatched request
// with the action, status, size and duration.
func AccessLog(opts ...AccessLogOption) internal.Middleware {
	cfg := &accessLogConfig{level: slog.LevelInfo}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			err := next(c)

			log := cfg.logger
			if log == nil {
				log = c.Logger()
			}

			status, size := http.StatusOK, int64(0)
			if rw, ok := c.Response().(*internal.ResponseWriter); ok {
				if rw.Written() {
					status = rw.Status()
				}
				size = rw.Size()
			}
			level := cfg.level
			switch {
			case err != nil && !internal.IsStopped(err):
				level = slog.LevelError
				if !c.Written() {
					status = http.StatusInternalServerError
				}
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = max(level, slog.LevelWarn)
			}

			attrs := []slog.Attr{
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.String("action", c.Action().String()),
				slog.Int("status", status),
				slog.Int64("size", size),
				slog.Duration("duration", time.Since(c.StartedAt())),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}
			log.LogAttrs(c, level, "request", attrs...)
			return err
		}
	}
}
