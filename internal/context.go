package internal

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/dispatch/pkg/session"
)

// Context is the per-request state threaded through filters and the action.
// It embeds context.Context, delegating to the request context, so it can be
// passed to database and HTTP client calls directly.
//
// A Context belongs to the goroutine serving the request and must not be
// retained after the action returns.
type Context interface {
	context.Context

	// Request returns the underlying *http.Request.
	Request() *http.Request

	// Response returns the response writer.
	Response() http.ResponseWriter

	// Context returns the request's context.Context.
	Context() context.Context

	// Action returns the resolved handler and method.
	Action() Target

	// StartedAt returns the instant the dispatcher accepted the request.
	StartedAt() time.Time

	// Param returns the first value of a query or form parameter.
	Param(name string) string

	// Params returns every value of a query or form parameter.
	Params(name string) []string

	// ParamMap returns a copy of the parameter snapshot.
	ParamMap() map[string][]string

	// URLParam returns a chi URL parameter, for apps mounted under a pattern.
	URLParam(name string) string

	// Header returns the first value of a request header. Lookup is case-insensitive.
	Header(name string) string

	// Headers returns a copy of the request headers with lower-cased names.
	Headers() map[string][]string

	// SetHeader sets a response header.
	SetHeader(name, value string)

	// Cookie returns a request cookie value, or "" if absent.
	Cookie(name string) string

	// Cookies returns a copy of the request cookies.
	Cookies() map[string]string

	// SetCookie adds a Set-Cookie header to the response.
	SetCookie(cookie *http.Cookie)

	// Attribute returns a request attribute. Flash values restored from the
	// previous request are available here.
	Attribute(key string) (any, bool)

	// Attributes returns a copy of all request attributes.
	Attributes() map[string]any

	// SetAttribute stores a request attribute.
	SetAttribute(key string, value any)

	// Session returns the current session, or nil if the visitor has none.
	// Returns session.ErrNotConfigured if no session store was configured.
	Session() (*session.Session, error)

	// InvalidateSession terminates the session and clears its cookie.
	InvalidateSession() error

	// Flash returns a copy of the values queued for the next request.
	Flash() map[string]any

	// SetFlash queues a value for the next request on this session, creating
	// the session if needed. Without a session it returns ErrResponseWritten
	// once the response is written.
	SetFlash(key string, value any) error

	// Resource returns the request-scoped handle for a logical service.
	// The same handle is returned for repeated calls with the same name.
	// Handles are rolled back and closed when the request ends; call Commit
	// to keep changes.
	Resource(service string) (Handle, error)

	// JSON writes a JSON response with the given status code.
	JSON(code int, v any) error

	// String writes a plain text response with the given status code.
	String(code int, s string) error

	// NoContent writes a response with no body.
	NoContent(code int) error

	// Redirect redirects to the given URL with the given status code.
	Redirect(code int, url string) error

	// Written reports whether a response has been written.
	Written() bool

	// Logger returns the logger for advanced usage.
	Logger() *slog.Logger

	// LogDebug logs a debug message with optional attributes.
	LogDebug(msg string, attrs ...any)

	// LogInfo logs an info message with optional attributes.
	LogInfo(msg string, attrs ...any)

	// LogWarn logs a warning message with optional attributes.
	LogWarn(msg string, attrs ...any)

	// LogError logs an error message with optional attributes.
	LogError(msg string, attrs ...any)

	// Set stores a value in the request context.
	Set(key any, value any)

	// Get retrieves a value from the request context.
	Get(key any) any
}

// requestContext implements Context.
type requestContext struct {
	startedAt      time.Time
	request        *http.Request
	response       *ResponseWriter
	logger         *slog.Logger
	sessionManager *SessionManager
	session        *session.Session
	resources      *Resources
	params         url.Values
	headers        map[string][]string
	cookies        map[string]string
	attributes     map[string]any
	flash          map[string]any
	action         Target
	verbose        bool
	sessionLoaded  bool
}

func newContext(w http.ResponseWriter, r *http.Request, a *App, action Target, startedAt time.Time) *requestContext {
	c := &requestContext{
		startedAt:      startedAt,
		request:        r,
		response:       NewResponseWriter(w),
		logger:         a.logger,
		sessionManager: a.sessionManager,
		action:         action,
		verbose:        a.verbose,
		attributes:     make(map[string]any),
		flash:          make(map[string]any),
	}
	c.resources = newResources(a.connector, a.logger)
	c.snapshot()
	return c
}

// snapshot copies parameters, headers and cookies so filters see stable values.
func (c *requestContext) snapshot() {
	if err := c.request.ParseForm(); err != nil {
		c.logger.DebugContext(c.request.Context(), "parse form failed", slog.Any("error", err))
	}
	c.params = make(url.Values, len(c.request.Form))
	for k, v := range c.request.Form {
		c.params[k] = slices.Clone(v)
	}

	c.headers = make(map[string][]string, len(c.request.Header))
	for k, v := range c.request.Header {
		lk := strings.ToLower(k)
		c.headers[lk] = append(c.headers[lk], v...)
	}

	cookies := c.request.Cookies()
	c.cookies = make(map[string]string, len(cookies))
	for _, ck := range cookies {
		if _, seen := c.cookies[ck.Name]; !seen {
			c.cookies[ck.Name] = ck.Value
		}
	}
}

func (c *requestContext) Request() *http.Request { return c.request }

func (c *requestContext) Response() http.ResponseWriter { return c.response }

func (c *requestContext) Context() context.Context { return c.request.Context() }

func (c *requestContext) Deadline() (time.Time, bool) { return c.request.Context().Deadline() }

func (c *requestContext) Done() <-chan struct{} { return c.request.Context().Done() }

func (c *requestContext) Err() error { return c.request.Context().Err() }

func (c *requestContext) Value(key any) any { return c.request.Context().Value(key) }

func (c *requestContext) Action() Target { return c.action }

func (c *requestContext) StartedAt() time.Time { return c.startedAt }

func (c *requestContext) Param(name string) string { return c.params.Get(name) }

func (c *requestContext) Params(name string) []string { return slices.Clone(c.params[name]) }

func (c *requestContext) ParamMap() map[string][]string {
	out := make(map[string][]string, len(c.params))
	for k, v := range c.params {
		out[k] = slices.Clone(v)
	}
	return out
}

func (c *requestContext) URLParam(name string) string { return chi.URLParam(c.request, name) }

func (c *requestContext) Header(name string) string {
	if v := c.headers[strings.ToLower(name)]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c *requestContext) Headers() map[string][]string {
	out := make(map[string][]string, len(c.headers))
	for k, v := range c.headers {
		out[k] = slices.Clone(v)
	}
	return out
}

func (c *requestContext) SetHeader(name, value string) { c.response.Header().Set(name, value) }

func (c *requestContext) Cookie(name string) string { return c.cookies[name] }

func (c *requestContext) Cookies() map[string]string { return maps.Clone(c.cookies) }

func (c *requestContext) SetCookie(cookie *http.Cookie) { http.SetCookie(c.response, cookie) }

func (c *requestContext) Attribute(key string) (any, bool) {
	v, ok := c.attributes[key]
	return v, ok
}

func (c *requestContext) Attributes() map[string]any { return maps.Clone(c.attributes) }

func (c *requestContext) SetAttribute(key string, value any) { c.attributes[key] = value }

// Session loads the session lazily and caches the result, including "none".
func (c *requestContext) Session() (*session.Session, error) {
	if c.sessionManager == nil {
		return nil, session.ErrNotConfigured
	}
	if c.sessionLoaded {
		return c.session, nil
	}

	sess, err := c.sessionManager.Load(c.Context(), c.request)
	if err != nil && !errors.Is(err, session.ErrNotFound) && !errors.Is(err, session.ErrExpired) {
		return nil, err
	}
	c.session = sess
	c.sessionLoaded = true
	return c.session, nil
}

// ensureSession returns the current session, creating one when the visitor has none.
// A session is never created once the response is written: its cookie could not
// reach the client and the stored entry would be orphaned.
func (c *requestContext) ensureSession() (*session.Session, error) {
	sess, err := c.Session()
	if err != nil || sess != nil {
		return sess, err
	}
	if c.response.Written() {
		return nil, ErrResponseWritten
	}

	sess, err = c.sessionManager.Create(c.Context())
	if err != nil {
		return nil, err
	}
	c.sessionManager.SetCookie(c.response, sess)
	c.session = sess
	return sess, nil
}

func (c *requestContext) InvalidateSession() error {
	sess, err := c.Session()
	if err != nil || sess == nil {
		return err
	}
	if !c.response.Written() {
		c.sessionManager.ClearCookie(c.response)
	}
	return c.sessionManager.Destroy(c.Context(), sess)
}

func (c *requestContext) Flash() map[string]any { return maps.Clone(c.flash) }

func (c *requestContext) SetFlash(key string, value any) error {
	if _, err := c.ensureSession(); err != nil {
		return err
	}
	c.flash[key] = value
	return nil
}

func (c *requestContext) Resource(service string) (Handle, error) {
	return c.resources.Acquire(c, service)
}

func (c *requestContext) JSON(code int, v any) error {
	c.response.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.response.WriteHeader(code)
	return json.NewEncoder(c.response).Encode(v)
}

func (c *requestContext) String(code int, s string) error {
	c.response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.response.WriteHeader(code)
	_, err := c.response.Write([]byte(s))
	return err
}

func (c *requestContext) NoContent(code int) error {
	c.response.WriteHeader(code)
	return nil
}

func (c *requestContext) Redirect(code int, url string) error {
	if code < 300 || code > 308 {
		code = http.StatusFound
	}
	http.Redirect(c.response, c.request, url, code)
	return nil
}

func (c *requestContext) Written() bool { return c.response.Written() }

func (c *requestContext) Logger() *slog.Logger { return c.logger }

func (c *requestContext) LogDebug(msg string, attrs ...any) {
	c.logger.DebugContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogInfo(msg string, attrs ...any) {
	c.logger.InfoContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogWarn(msg string, attrs ...any) {
	c.logger.WarnContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogError(msg string, attrs ...any) {
	c.logger.ErrorContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) Set(key, value any) {
	c.request = c.request.WithContext(context.WithValue(c.request.Context(), key, value))
}

func (c *requestContext) Get(key any) any {
	return c.request.Context().Value(key)
}
