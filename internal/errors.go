package internal

import (
	"errors"
	"fmt"
	"net/http"
)

// Dispatch errors.
var (
	// ErrRouteNotFound is returned when no route matches the normalized path.
	ErrRouteNotFound = errors.New("dispatch: route not found")

	// ErrInvalidTarget is returned when a route target is not "handler.method".
	ErrInvalidTarget = errors.New("dispatch: invalid route target")

	// ErrHandlerNotFound is returned when a route names an unregistered handler type.
	ErrHandlerNotFound = errors.New("dispatch: handler not registered")

	// ErrActionNotFound is returned when the handler type has no member with that name.
	ErrActionNotFound = errors.New("dispatch: action not found")

	// ErrIneligibleAction is returned when the routed member is declared as a filter.
	ErrIneligibleAction = errors.New("dispatch: filter methods cannot be routed")

	// ErrInstantiate is returned when a handler factory fails.
	ErrInstantiate = errors.New("dispatch: handler instantiation failed")

	// ErrDuplicateHandler is returned when a handler name is registered twice.
	ErrDuplicateHandler = errors.New("dispatch: handler already registered")

	// ErrDuplicateMember is returned when a member name is declared twice for one phase.
	ErrDuplicateMember = errors.New("dispatch: member already declared")

	// ErrStopped marks an intentional abort. It is never treated as a failure.
	ErrStopped = errors.New("dispatch: stopped")

	// ErrNoConnector is returned by Resource when no DB connector is configured.
	ErrNoConnector = errors.New("dispatch: no resource connector configured")

	// ErrResourcesClosed is returned by Resource once the request's handles were torn down,
	// e.g. from an ErrorHandler or from middleware code after next returned.
	ErrResourcesClosed = errors.New("dispatch: request resources already released")

	// ErrResponseWritten is returned by SetFlash when a new session would be needed
	// but its cookie can no longer be sent.
	ErrResponseWritten = errors.New("dispatch: response already written")
)

// PanicError represents a panic recovered from an action.
// Catch filters without error matchers never receive it.
type PanicError struct {
	Value any    // The panic value
	Stack []byte // Stack trace (nil if disabled)
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// IsPanicError returns true if the error is a PanicError.
func IsPanicError(err error) bool {
	var pe *PanicError
	return errors.As(err, &pe)
}

// AsPanicError extracts the PanicError from an error if present.
func AsPanicError(err error) (*PanicError, bool) {
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// Halt returns an error that, when returned from a before-filter, stops the
// request the same way Stopped does for an action.
func Halt(reason string) error {
	if reason == "" {
		return ErrStopped
	}
	return fmt.Errorf("%w: %s", ErrStopped, reason)
}

// IsStopped reports whether err is the stop signal.
func IsStopped(err error) bool {
	return errors.Is(err, ErrStopped)
}

// HTTPError is an error with an HTTP status code, for use by actions and catch filters.
type HTTPError struct {
	// Err is the underlying error (for logging, not exposed to users).
	Err error

	// Message is the user-facing error message.
	Message string

	// Code is the HTTP status code (e.g., 404, 500).
	Code int
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

func (e *HTTPError) StatusText() string {
	return http.StatusText(e.Code)
}

// NewHTTPError creates a new HTTPError with the given status code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// AsHTTPError extracts the HTTPError from an error if present.
// Returns nil if the error is not an HTTPError.
func AsHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return nil
}

// ErrorMatcher decides whether a catch filter applies to an error.
type ErrorMatcher func(err error) bool

// Is matches errors for which errors.Is(err, target) holds.
func Is(target error) ErrorMatcher {
	return func(err error) bool {
		return errors.Is(err, target)
	}
}

// As matches errors that have a T somewhere in their chain.
//
// Example:
//
//	dispatch.Catch("onPanic", (*Notes).OnPanic, dispatch.Errors(dispatch.As[*dispatch.PanicError]()))
func As[T error]() ErrorMatcher {
	return func(err error) bool {
		var target T
		return errors.As(err, &target)
	}
}
