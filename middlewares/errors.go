package middlewares

import "github.com/dmitrymomot/dispatch/internal"

// PanicError represents a recovered panic.
type PanicError = internal.PanicError

// IsPanicError returns true if the error is a PanicError.
func IsPanicError(err error) bool {
	return internal.IsPanicError(err)
}

// AsPanicError extracts the PanicError from an error if present.
func AsPanicError(err error) (*PanicError, bool) {
	return internal.AsPanicError(err)
}
