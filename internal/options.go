package internal

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/dispatch/pkg/health"
	"github.com/dmitrymomot/dispatch/pkg/logger"
	"github.com/dmitrymomot/dispatch/pkg/session"
)

// Option configures the application.
type Option func(*App)

// WithHandlers registers handler types. Registration errors surface from New.
//
// Example:
//
//	dispatch.New(
//	    dispatch.WithHandlers(notesHandler, accountHandler),
//	    dispatch.WithRoutes(routes),
//	)
func WithHandlers(types ...*HandlerType) Option {
	return func(a *App) {
		a.types = append(a.types, types...)
	}
}

// WithRoutes sets the route table.
func WithRoutes(rt *RouteTable) Option {
	return func(a *App) {
		a.routes = rt
	}
}

// WithContextPath strips a mount prefix from request paths before route lookup.
//
// Example:
//
//	dispatch.WithContextPath("/app")  // "/app/notes" resolves as "/notes"
func WithContextPath(prefix string) Option {
	return func(a *App) {
		a.contextPath = strings.TrimRight(prefix, "/")
	}
}

// WithFallback sets the handler for requests that cannot be dispatched.
// It takes precedence over named fallback handlers.
func WithFallback(h http.Handler) Option {
	return func(a *App) {
		a.fallback = h
	}
}

// WithNamedHandler registers a handler the dispatcher may use as fallback.
// Names are probed in order: the configured fallback name, then "default",
// "static" and "files".
func WithNamedHandler(name string, h http.Handler) Option {
	return func(a *App) {
		if name == "" || h == nil {
			return
		}
		if a.named == nil {
			a.named = make(map[string]http.Handler)
		}
		a.named[name] = h
	}
}

// WithFallbackName selects which named handler receives undispatched
// requests. It overrides the fallback named in the route file.
func WithFallbackName(name string) Option {
	return func(a *App) {
		a.fallbackName = name
	}
}

// WithStaticFiles registers a file server as the "static" named handler.
// Directory listings are disabled. Files are served with default cache headers.
//
// Example:
//
//	//go:embed public
//	var assets embed.FS
//
//	dispatch.New(
//	    dispatch.WithStaticFiles(assets, "public"),
//	)
func WithStaticFiles(fsys fs.FS, subDir string) Option {
	return func(a *App) {
		subFS, err := fs.Sub(fsys, subDir)
		if err != nil {
			panic(err)
		}
		fileServer := http.FileServerFS(subFS)

		WithNamedHandler(fallbackStatic, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Cache-Control", "public, max-age=3600")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			fileServer.ServeHTTP(w, r)
		}))(a)
	}
}

// WithMiddleware adds middleware around every dispatched action.
// Middleware is applied in the order provided; the first one is outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithErrorHandler sets the handler for action faults that reach the
// dispatch boundary before a response was written.
//
// Example:
//
//	dispatch.WithErrorHandler(func(c dispatch.Context, err error) error {
//	    return c.JSON(http.StatusInternalServerError, map[string]string{
//	        "error": err.Error(),
//	    })
//	})
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		a.errorHandler = h
	}
}

// WithSession enables server-side sessions. The flash scope requires it.
//
// Example:
//
//	dispatch.New(
//	    dispatch.WithSession(session.NewRedisStore(client),
//	        dispatch.WithSessionCookieName("__sid"),
//	        dispatch.WithSessionSecure(true),
//	    ),
//	)
func WithSession(store session.Store, opts ...SessionOption) Option {
	return func(a *App) {
		a.sessionManager = NewSessionManager(store, opts...)
	}
}

// WithConnector sets the database collaborator used by Context.Resource.
//
// Example:
//
//	services, _ := db.OpenServices(ctx, cfg)
//	dispatch.WithConnector(dispatch.ConnectorFunc(func(ctx context.Context, name string) (dispatch.Handle, error) {
//	    return services.Acquire(ctx, name)
//	}))
func WithConnector(conn Connector) Option {
	return func(a *App) {
		a.connector = conn
	}
}

// WithVerbose enables debug traces: request start and end with duration,
// header, cookie and parameter dumps, and per-filter steps.
func WithVerbose(on bool) Option {
	return func(a *App) {
		a.verbose = on
	}
}

// WithLogger creates a logger with a component name and optional extractors.
//
// Example:
//
//	dispatch.New(
//	    dispatch.WithLogger("web", middlewares.RequestIDExtractor()),
//	)
func WithLogger(component string, extractors ...logger.ContextExtractor) Option {
	return func(a *App) {
		a.logger = logger.New(logger.Config{}, extractors...).With("component", component)
	}
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithHealthChecks enables health endpoints on App.Router.
// Liveness (/health/live) is always OK; readiness (/health/ready) runs the checks.
//
// Example:
//
//	dispatch.WithHealthChecks(
//	    dispatch.WithReadinessCheck("db", services.Healthcheck()),
//	    dispatch.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		cfg := &healthConfig{
			livenessPath:  defaultLivenessPath,
			readinessPath: defaultReadinessPath,
			checks:        make(health.Checks),
		}
		for _, opt := range opts {
			opt(cfg)
		}
		a.healthConfig = cfg
	}
}

// healthConfig holds health check endpoint configuration.
type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
}

const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

// HealthOption configures health check endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath sets a custom liveness endpoint path.
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath sets a custom readiness endpoint path.
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck adds a named readiness check. Checks run in parallel.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c *healthConfig) {
		if name != "" && fn != nil {
			c.checks[name] = fn
		}
	}
}
