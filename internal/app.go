package internal

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/dispatch/pkg/health"
	"github.com/dmitrymomot/dispatch/pkg/logger"
)

// Well-known handler names probed when no explicit fallback is set.
const (
	fallbackDefault = "default"
	fallbackStatic  = "static"
	fallbackFiles   = "files"
)

// App dispatches requests to registered handler actions.
// App is immutable after creation; all configuration is done via New.
type App struct {
	registry       *Registry
	routes         *RouteTable
	logger         *slog.Logger
	errorHandler   ErrorHandler
	fallback       http.Handler
	named          map[string]http.Handler
	sessionManager *SessionManager
	connector      Connector
	healthConfig   *healthConfig
	types          []*HandlerType
	middlewares    []Middleware
	fallbackName   string
	contextPath    string
	verbose        bool
}

// New creates an application. It panics when handler registrations are
// invalid or no route table was given, since both are programming errors.
//
// Example:
//
//	app := dispatch.New(
//	    dispatch.WithHandlers(notes),
//	    dispatch.WithRoutes(routes),
//	    dispatch.WithSession(session.NewMemoryStore()),
//	)
func New(opts ...Option) *App {
	app, err := Build(opts...)
	if err != nil {
		panic(err)
	}
	return app
}

// Build is New without the panic.
func Build(opts ...Option) (*App, error) {
	a := &App{
		logger: logger.NewNope(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.routes == nil {
		return nil, errors.New("dispatch: no route table configured")
	}
	reg, err := NewRegistry(a.types...)
	if err != nil {
		return nil, err
	}
	a.registry = reg
	a.types = nil

	if a.fallbackName == "" {
		a.fallbackName = a.routes.Fallback()
	}
	if a.fallback == nil {
		a.fallback = a.probeFallback()
	}
	return a, nil
}

// probeFallback picks the first configured named handler.
func (a *App) probeFallback() http.Handler {
	for _, name := range []string{a.fallbackName, fallbackDefault, fallbackStatic, fallbackFiles} {
		if name == "" {
			continue
		}
		if h, ok := a.named[name]; ok {
			return h
		}
	}
	return nil
}

// Registry returns the frozen handler registry.
func (a *App) Registry() *Registry { return a.registry }

// Routes returns the route table.
func (a *App) Routes() *RouteTable { return a.routes }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// ServeHTTP dispatches the request. Undispatched requests go to the fallback,
// or get a 404 when there is none.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.serve(w, r, nil)
}

// Middleware returns the dispatcher as host middleware. Requests that cannot
// be dispatched go to the fallback if one is set, otherwise to next.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Use(app.Middleware())
func (a *App) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a.serve(w, r, next)
		})
	}
}

// Router returns a chi router that serves health endpoints (when enabled)
// and dispatches everything else.
func (a *App) Router() chi.Router {
	r := chi.NewRouter()
	if a.healthConfig != nil {
		r.Get(a.healthConfig.livenessPath, health.LivenessHandler())
		r.Get(a.healthConfig.readinessPath, health.ReadinessHandler(a.healthConfig.checks, health.WithLogger(a.logger)))
	}
	r.Handle("/*", a)
	return r
}

func (a *App) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	startedAt := time.Now()
	path, ok := a.requestPath(r)
	if !ok {
		a.logger.DebugContext(r.Context(), "outside context path", slog.String("path", path))
		a.fallThrough(w, r, next)
		return
	}

	target, err := a.routes.Resolve(path)
	if err != nil {
		a.logger.DebugContext(r.Context(), "no route", slog.String("path", path))
		a.fallThrough(w, r, next)
		return
	}

	ht, action, err := a.registry.Resolve(target)
	if err != nil {
		a.logger.ErrorContext(r.Context(), "route target unavailable",
			slog.String("path", path),
			slog.String("target", target.String()),
			slog.Any("error", err),
		)
		a.fallThrough(w, r, next)
		return
	}

	inst, err := ht.instantiate()
	if err != nil {
		a.logger.ErrorContext(r.Context(), "handler instantiation failed",
			slog.String("path", path),
			slog.String("target", target.String()),
			slog.Any("error", err),
		)
		a.fallThrough(w, r, next)
		return
	}

	c := newContext(w, r, a, target, startedAt)
	if a.verbose {
		a.logRequestStart(c, path)
	}

	inv := &invocation{
		handler:   ht,
		inst:      inst,
		action:    action,
		ctx:       c,
		qualified: target.String(),
	}
	h := HandlerFunc(func(Context) error { return inv.execute() })
	for i := len(a.middlewares) - 1; i >= 0; i-- {
		h = a.middlewares[i](h)
	}

	if err := h(c); err != nil {
		a.handleError(c, err)
	}

	if a.verbose {
		c.LogDebug("request end",
			slog.String("action", target.String()),
			slog.Int("status", c.response.Status()),
			slog.Duration("duration", time.Since(startedAt)),
		)
	}
}

// requestPath returns the normalized lookup path with the context path removed.
// It reports false when the path lies outside the context path.
func (a *App) requestPath(r *http.Request) (string, bool) {
	path := r.URL.Path
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePath != "" {
		path = rctx.RoutePath
	}
	if a.contextPath != "" {
		rest, ok := strings.CutPrefix(path, a.contextPath)
		if !ok || (rest != "" && rest[0] != '/') {
			return path, false
		}
		path = rest
	}
	return NormalizePath(path, ""), true
}

func (a *App) fallThrough(w http.ResponseWriter, r *http.Request, next http.Handler) {
	switch {
	case a.fallback != nil:
		a.fallback.ServeHTTP(w, r)
	case next != nil:
		next.ServeHTTP(w, r)
	default:
		http.NotFound(w, r)
	}
}

// handleError reports a fault that reached the dispatch boundary.
// A written response means a catch filter already answered; the fault is only logged.
func (a *App) handleError(c *requestContext, err error) {
	if IsStopped(err) {
		return
	}
	c.LogError("action failed",
		slog.String("action", c.action.String()),
		slog.Any("error", err),
	)
	if c.Written() {
		return
	}
	if a.errorHandler != nil {
		if herr := a.errorHandler(c, err); herr != nil {
			c.LogError("error handler failed", slog.Any("error", herr))
		}
		return
	}
	defaultErrorHandler(c, err)
}

func defaultErrorHandler(c Context, err error) {
	if httpErr := AsHTTPError(err); httpErr != nil && httpErr.Code > 0 {
		http.Error(c.Response(), httpErr.Message, httpErr.Code)
		return
	}
	http.Error(c.Response(), http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (a *App) logRequestStart(c *requestContext, path string) {
	c.LogDebug("request start",
		slog.String("method", c.request.Method),
		slog.String("path", path),
		slog.String("action", c.action.String()),
	)
	c.LogDebug("request headers", slog.Any("headers", c.headers))
	c.LogDebug("request cookies", slog.Any("cookies", c.cookies))
	c.LogDebug("request params", slog.Any("params", c.params))
}
