package dispatch

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/dispatch/internal"
	"github.com/dmitrymomot/dispatch/pkg/health"
	"github.com/dmitrymomot/dispatch/pkg/logger"
	"github.com/dmitrymomot/dispatch/pkg/session"
)

// Type aliases - public API
type (
	// App resolves request paths and runs actions inside their filter chains.
	App = internal.App

	// Context is the per-request state threaded through filters and the action.
	Context = internal.Context

	// Outcome is the result of an action: completed, stopped or failed.
	Outcome = internal.Outcome

	// HandlerType is the frozen registration of one handler.
	HandlerType = internal.HandlerType

	// Registry holds every registered HandlerType.
	Registry = internal.Registry

	// Filter describes one declared filter.
	Filter = internal.Filter

	// FilterOption configures a filter declaration.
	FilterOption = internal.FilterOption

	// Phase identifies when a filter runs.
	Phase = internal.Phase

	// ErrorMatcher selects the errors a catch filter handles.
	ErrorMatcher = internal.ErrorMatcher

	// RouteTable maps normalized paths to targets.
	RouteTable = internal.RouteTable

	// Target names the handler and method of a route.
	Target = internal.Target

	// HandlerFunc is the signature of the dispatch boundary.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps the dispatch boundary.
	Middleware = internal.Middleware

	// ErrorHandler handles action faults that reach the boundary.
	ErrorHandler = internal.ErrorHandler

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// SessionOption configures the session manager.
	SessionOption = internal.SessionOption

	// Handle is a request-scoped database handle.
	Handle = internal.Handle

	// Connector opens handles by service name.
	Connector = internal.Connector

	// ConnectorFunc adapts a function to Connector.
	ConnectorFunc = internal.ConnectorFunc

	// ResponseWriter records the status and size of the response.
	ResponseWriter = internal.ResponseWriter

	// HTTPError is an error with an HTTP status code.
	HTTPError = internal.HTTPError

	// PanicError is a panic recovered from an action or filter.
	PanicError = internal.PanicError

	// ContextExtractor extracts a slog attribute from context.
	ContextExtractor = logger.ContextExtractor

	// Session represents a user session.
	Session = session.Session

	// SessionStore defines the interface for session persistence.
	SessionStore = session.Store
)

// Member is one action or filter declaration of handler type H.
type Member[H any] = internal.Member[H]

// Filter phases.
const (
	PhaseBefore  = internal.PhaseBefore
	PhaseAfter   = internal.PhaseAfter
	PhaseCatch   = internal.PhaseCatch
	PhaseFinally = internal.PhaseFinally
)

// Errors
var (
	ErrRouteNotFound    = internal.ErrRouteNotFound
	ErrInvalidTarget    = internal.ErrInvalidTarget
	ErrHandlerNotFound  = internal.ErrHandlerNotFound
	ErrActionNotFound   = internal.ErrActionNotFound
	ErrIneligibleAction = internal.ErrIneligibleAction
	ErrInstantiate      = internal.ErrInstantiate
	ErrDuplicateHandler = internal.ErrDuplicateHandler
	ErrDuplicateMember  = internal.ErrDuplicateMember
	ErrStopped          = internal.ErrStopped
	ErrNoConnector      = internal.ErrNoConnector
	ErrResourcesClosed  = internal.ErrResourcesClosed
	ErrResponseWritten  = internal.ErrResponseWritten
)

// Constructors

// New creates an application. It panics on invalid registrations.
//
// Example:
//
//	routes, err := dispatch.LoadRouteTable("routes.yaml")
//	if err != nil {
//	    return err
//	}
//	app := dispatch.New(
//	    dispatch.WithRoutes(routes),
//	    dispatch.WithHandlers(notes),
//	)
//	err = app.Run(dispatch.Address(":8080"))
func New(opts ...Option) *App {
	return internal.New(opts...)
}

// Build creates an application, returning registration errors instead of panicking.
func Build(opts ...Option) (*App, error) {
	return internal.Build(opts...)
}

// Register describes handler type H under name.
//
// Example:
//
//	notes := dispatch.Register("notes", NewNotes,
//	    dispatch.Before("auth", (*Notes).RequireUser, dispatch.Unless("index")),
//	    dispatch.Action("index", (*Notes).Index),
//	    dispatch.Action("show", (*Notes).Show),
//	)
func Register[H any](name string, factory func() (H, error), members ...Member[H]) *HandlerType {
	return internal.Register(name, factory, members...)
}

// Action declares a routable method.
func Action[H any](name string, fn func(H, Context) Outcome) Member[H] {
	return internal.Action(name, fn)
}

// Before declares a filter that runs ahead of the action.
func Before[H any](name string, fn func(H, Context) error, opts ...FilterOption) Member[H] {
	return internal.Before(name, fn, opts...)
}

// After declares a filter that runs when the action completed.
func After[H any](name string, fn func(H, Context) error, opts ...FilterOption) Member[H] {
	return internal.After(name, fn, opts...)
}

// Finally declares a filter that always runs.
func Finally[H any](name string, fn func(H, Context) error, opts ...FilterOption) Member[H] {
	return internal.Finally(name, fn, opts...)
}

// Catch declares a filter that receives action faults.
func Catch[H any](name string, fn func(H, Context, error) error, opts ...FilterOption) Member[H] {
	return internal.Catch(name, fn, opts...)
}

// Filter options

// Only restricts a filter to the named actions. With several names the last one decides.
func Only(actions ...string) FilterOption { return internal.Only(actions...) }

// Unless skips a filter for the named actions. Unless wins over Only.
func Unless(actions ...string) FilterOption { return internal.Unless(actions...) }

// Priority sets the filter priority. Lower runs first.
func Priority(p int) FilterOption { return internal.Priority(p) }

// Errors restricts a catch filter to matching errors.
func Errors(matchers ...ErrorMatcher) FilterOption { return internal.Errors(matchers...) }

// Is matches errors with errors.Is.
func Is(target error) ErrorMatcher { return internal.Is(target) }

// As matches errors with errors.As.
func As[T error]() ErrorMatcher { return internal.As[T]() }

// Outcomes

// Completed reports a successful action.
func Completed() Outcome { return internal.Completed() }

// Stopped reports an intentional abort.
func Stopped(reason string) Outcome { return internal.Stopped(reason) }

// Failed reports a fault.
func Failed(err error) Outcome { return internal.Failed(err) }

// Result converts a plain error into an Outcome.
func Result(err error) Outcome { return internal.Result(err) }

// Halt stops the request from a before filter.
func Halt(reason string) error { return internal.Halt(reason) }

// Routes

// NewRouteTable builds a route table from path to "handler.method" entries.
func NewRouteTable(entries map[string]string) (*RouteTable, error) {
	return internal.NewRouteTable(entries)
}

// ParseRouteTable reads a YAML route document.
func ParseRouteTable(data []byte) (*RouteTable, error) {
	return internal.ParseRouteTable(data)
}

// LoadRouteTable reads a YAML route file.
func LoadRouteTable(path string) (*RouteTable, error) {
	return internal.LoadRouteTable(path)
}

// NewRegistry builds a registry from handler registrations.
func NewRegistry(types ...*HandlerType) (*Registry, error) {
	return internal.NewRegistry(types...)
}

// App options

// WithHandlers registers handler types.
func WithHandlers(types ...*HandlerType) Option { return internal.WithHandlers(types...) }

// WithRoutes sets the route table.
func WithRoutes(rt *RouteTable) Option { return internal.WithRoutes(rt) }

// WithContextPath strips a mount prefix before route lookup.
func WithContextPath(prefix string) Option { return internal.WithContextPath(prefix) }

// WithFallback sets the handler for requests that cannot be dispatched.
func WithFallback(h http.Handler) Option { return internal.WithFallback(h) }

// WithNamedHandler registers a handler that may serve as fallback.
func WithNamedHandler(name string, h http.Handler) Option {
	return internal.WithNamedHandler(name, h)
}

// WithFallbackName selects the named fallback handler.
func WithFallbackName(name string) Option { return internal.WithFallbackName(name) }

// WithStaticFiles registers a file server as the "static" named handler.
func WithStaticFiles(fsys fs.FS, subDir string) Option {
	return internal.WithStaticFiles(fsys, subDir)
}

// WithMiddleware adds middleware around every dispatched action.
func WithMiddleware(mw ...Middleware) Option { return internal.WithMiddleware(mw...) }

// WithErrorHandler sets the handler for unanswered action faults.
func WithErrorHandler(h ErrorHandler) Option { return internal.WithErrorHandler(h) }

// WithSession enables server-side sessions and the flash scope.
func WithSession(store SessionStore, opts ...SessionOption) Option {
	return internal.WithSession(store, opts...)
}

// WithConnector sets the database collaborator.
func WithConnector(conn Connector) Option { return internal.WithConnector(conn) }

// WithVerbose enables request and filter debug traces.
func WithVerbose(on bool) Option { return internal.WithVerbose(on) }

// WithLogger creates a logger with a component name and optional extractors.
func WithLogger(component string, extractors ...ContextExtractor) Option {
	return internal.WithLogger(component, extractors...)
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option { return internal.WithCustomLogger(l) }

// WithHealthChecks enables health endpoints on App.Router.
func WithHealthChecks(opts ...HealthOption) Option { return internal.WithHealthChecks(opts...) }

// WithLivenessPath sets a custom liveness endpoint path.
func WithLivenessPath(path string) HealthOption { return internal.WithLivenessPath(path) }

// WithReadinessPath sets a custom readiness endpoint path.
func WithReadinessPath(path string) HealthOption { return internal.WithReadinessPath(path) }

// WithReadinessCheck adds a named readiness check.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// Session options

// WithSessionCookieName sets the session cookie name.
func WithSessionCookieName(name string) SessionOption { return internal.WithSessionCookieName(name) }

// WithSessionMaxAge sets the session lifetime in seconds.
func WithSessionMaxAge(seconds int) SessionOption { return internal.WithSessionMaxAge(seconds) }

// WithSessionDomain sets the session cookie domain.
func WithSessionDomain(domain string) SessionOption { return internal.WithSessionDomain(domain) }

// WithSessionPath sets the session cookie path.
func WithSessionPath(path string) SessionOption { return internal.WithSessionPath(path) }

// WithSessionSecure sets the session cookie Secure flag.
func WithSessionSecure(secure bool) SessionOption { return internal.WithSessionSecure(secure) }

// WithSessionSameSite sets the session cookie SameSite attribute.
func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return internal.WithSessionSameSite(sameSite)
}

// Run options

// Address sets the listen address.
func Address(addr string) RunOption { return internal.Address(addr) }

// Logger sets the runtime logger.
func Logger(l *slog.Logger) RunOption { return internal.Logger(l) }

// ShutdownTimeout bounds graceful shutdown.
func ShutdownTimeout(d time.Duration) RunOption { return internal.ShutdownTimeout(d) }

// StartupHook runs before the listener accepts requests.
func StartupHook(fn func(context.Context) error) RunOption { return internal.StartupHook(fn) }

// ShutdownHook registers a cleanup function.
func ShutdownHook(fn func(context.Context) error) RunOption { return internal.ShutdownHook(fn) }

// WithContext sets the base context for signal handling.
func WithContext(ctx context.Context) RunOption { return internal.WithContext(ctx) }

// Helpers

// NewHTTPError creates an HTTPError.
func NewHTTPError(code int, message string) *HTTPError {
	return internal.NewHTTPError(code, message)
}

// IsStopped reports whether err is the stop signal.
func IsStopped(err error) bool { return internal.IsStopped(err) }

// ParamAs returns a typed request parameter.
func ParamAs[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	return internal.ParamAs[T](c, name)
}

// ParamOr returns a typed request parameter or a default.
func ParamOr[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string, defaultValue T) T {
	return internal.ParamOr(c, name, defaultValue)
}

// AttributeAs returns a typed request attribute.
func AttributeAs[T any](c Context, key string) (T, bool) {
	return internal.AttributeAs[T](c, key)
}

// ResourceAs acquires a handle and asserts its concrete type.
func ResourceAs[T Handle](c Context, service string) (T, error) {
	return internal.ResourceAs[T](c, service)
}

// ContextValue returns a typed context value.
func ContextValue[T any](c Context, key any) T {
	return internal.ContextValue[T](c, key)
}
