package middlewares

import (
	"log/slog"
	"net/http"
	"runtime"

	"github.com/dmitrymomot/dispatch/internal"
)

// DefaultStackSize bounds the captured stack trace, in bytes.
const DefaultStackSize = 4096

type recoverConfig struct {
	stackSize int
	noStack   bool
}

// RecoverOption configures Recover.
type RecoverOption func(*recoverConfig)

// WithRecoverStackSize sets the stack trace buffer size.
func WithRecoverStackSize(size int) RecoverOption {
	return func(cfg *recoverConfig) {
		if size > 0 {
			cfg.stackSize = size
		}
	}
}

// WithRecoverDisablePrintStack skips stack capture. The PanicError then has a nil Stack.
func WithRecoverDisablePrintStack() RecoverOption {
	return func(cfg *recoverConfig) {
		cfg.noStack = true
	}
}

// Recover returns middleware that turns panics raised outside the action,
// such as in other middleware, into a PanicError for the ErrorHandler.
// Panics inside actions and filters are already recovered by the engine.
//
// http.ErrAbortHandler is re-raised so the server can abort the connection.
func Recover(opts ...RecoverOption) internal.Middleware {
	cfg := &recoverConfig{stackSize: DefaultStackSize}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}

				pe := &PanicError{Value: r}
				attrs := []any{
					slog.String("action", c.Action().String()),
					slog.Any("panic", r),
				}
				if !cfg.noStack {
					buf := make([]byte, cfg.stackSize)
					pe.Stack = buf[:runtime.Stack(buf, false)]
					attrs = append(attrs, slog.String("stack", string(pe.Stack)))
				}
				c.LogError("panic recovered", attrs...)
				err = pe
			}()

			return next(c)
		}
	}
}
