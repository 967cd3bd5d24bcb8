package middlewares

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/dispatch/internal"
	"github.com/dmitrymomot/dispatch/pkg/logger"
)

type requestIDKey struct{}

// RequestIDAttribute is the request attribute holding the request ID.
const RequestIDAttribute = "request_id"

// maxUpstreamIDLen caps IDs accepted from clients and proxies.
const maxUpstreamIDLen = 128

// DefaultRequestIDHeaders are the headers checked, in order, for an upstream ID.
var DefaultRequestIDHeaders = []string{"X-Request-ID", "X-Correlation-ID"}

type requestIDConfig struct {
	generate       func() string
	responseHeader string
	headers        []string
}

// RequestIDOption configures RequestID.
type RequestIDOption func(*requestIDConfig)

// WithRequestIDHeaders replaces the headers searched for an upstream ID.
// Pass no headers to always generate.
func WithRequestIDHeaders(headers ...string) RequestIDOption {
	return func(cfg *requestIDConfig) {
		cfg.headers = headers
	}
}

// WithRequestIDGenerator sets the ID generator. Defaults to uuid.NewString.
func WithRequestIDGenerator(gen func() string) RequestIDOption {
	return func(cfg *requestIDConfig) {
		if gen != nil {
			cfg.generate = gen
		}
	}
}

// WithRequestIDResponseHeader sets the response header echoing the ID.
// An empty name disables the echo.
func WithRequestIDResponseHeader(header string) RequestIDOption {
	return func(cfg *requestIDConfig) {
		cfg.responseHeader = header
	}
}

// RequestID returns middleware that tags each dispatched request with an ID.
// The ID is stored in the request context for log extractors and as the
// RequestIDAttribute attribute for filters and actions.
//
// Upstream IDs longer than 128 bytes or containing non-printable bytes are
// replaced by a generated one.
func RequestID(opts ...RequestIDOption) internal.Middleware {
	cfg := &requestIDConfig{
		headers:        DefaultRequestIDHeaders,
		generate:       uuid.NewString,
		responseHeader: "X-Request-ID",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			id := upstreamID(c, cfg.headers)
			if id == "" {
				id = cfg.generate()
			}

			c.Set(requestIDKey{}, id)
			c.SetAttribute(RequestIDAttribute, id)
			if cfg.responseHeader != "" {
				c.SetHeader(cfg.responseHeader, id)
			}
			return next(c)
		}
	}
}

func upstreamID(c internal.Context, headers []string) string {
	for _, h := range headers {
		v := c.Header(h)
		if v == "" {
			continue
		}
		if validID(v) {
			return v
		}
		c.LogDebug("upstream request id rejected", slog.String("header", h))
	}
	return ""
}

func validID(v string) bool {
	if len(v) > maxUpstreamIDLen {
		return false
	}
	for i := 0; i < len(v); i++ {
		if v[i] < 0x21 || v[i] > 0x7e {
			return false
		}
	}
	return true
}

// GetRequestID returns the request ID, or "" when RequestID did not run.
func GetRequestID(c internal.Context) string {
	id, _ := c.Get(requestIDKey{}).(string)
	return id
}

// RequestIDExtractor adds request_id to every log record written with the
// request context.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		id, _ := ctx.Value(requestIDKey{}).(string)
		if id == "" {
			return slog.Attr{}, false
		}
		return slog.String("request_id", id), true
	}
}
