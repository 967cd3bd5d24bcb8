package health

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Errors reported in readiness responses.
var (
	// ErrCheckFailed is returned when one or more health checks fail.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout is reported for a check that outlived the probe timeout.
	ErrCheckTimeout = errors.New("health: check timeout")
)

// Status values.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

const defaultTimeout = 5 * time.Second

// CheckFunc matches db.Services.Healthcheck and redis.Healthcheck closures.
type CheckFunc func(ctx context.Context) error

// Checks maps check names to check functions.
type Checks map[string]CheckFunc

// Response is the JSON body of a probe.
type Response struct {
	Checks map[string]Check `json:"checks,omitempty"`
	Status string           `json:"status"`
}

// Check is the result of one named check.
type Check struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Option configures the readiness handler.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	timeout time.Duration
}

// WithTimeout bounds the whole probe. Default: 5s.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger logs failed checks at warn level.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// LivenessHandler always responds OK.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, http.StatusOK, &Response{Status: StatusHealthy})
	}
}

// ReadinessHandler runs every check in parallel and responds 503 if any fails.
// Plain text by default; JSON with Accept: application/json or ?format=json.
func ReadinessHandler(checks Checks, opts ...Option) http.HandlerFunc {
	cfg := &config{timeout: defaultTimeout, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		resp := Run(r.Context(), checks, cfg.timeout, cfg.logger)
		status := http.StatusOK
		if resp.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		respond(w, r, status, resp)
	}
}

// Run executes checks concurrently under a shared timeout.
func Run(ctx context.Context, checks Checks, timeout time.Duration, logger *slog.Logger) *Response {
	if len(checks) == 0 {
		return &Response{Status: StatusHealthy}
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]Check, len(checks))
		g       errgroup.Group
	)
	for name, check := range checks {
		g.Go(func() error {
			res := Check{Status: StatusHealthy}
			err := check(ctx)
			if err == nil && ctx.Err() != nil {
				err = ErrCheckTimeout
			}
			if err != nil {
				res = Check{Status: StatusUnhealthy, Error: err.Error()}
				logger.WarnContext(ctx, "health check failed",
					slog.String("check", name),
					slog.String("error", err.Error()),
				)
			}

			mu.Lock()
			results[name] = res
			mu.Unlock()

			if err != nil {
				return errors.Join(ErrCheckFailed, err)
			}
			return nil
		})
	}

	status := StatusHealthy
	if g.Wait() != nil {
		status = StatusUnhealthy
	}
	return &Response{Status: status, Checks: results}
}

func respond(w http.ResponseWriter, r *http.Request, status int, resp *Response) {
	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
		return
	}
	w.WriteHeader(status)
	if status == http.StatusOK {
		_, _ = w.Write([]byte("OK"))
		return
	}
	_, _ = w.Write([]byte("Service Unavailable"))
}

func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
