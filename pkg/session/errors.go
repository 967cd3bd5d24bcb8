package session

import "errors"

// Session errors.
var (
	// ErrNotConfigured is returned when session functionality is used
	// but no session store was configured on the app.
	ErrNotConfigured = errors.New("session: not configured")

	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("session: not found")

	// ErrExpired is returned when a session has expired.
	ErrExpired = errors.New("session: expired")

	// ErrInvalidated is returned when writing to a session that was invalidated
	// earlier in the same request.
	ErrInvalidated = errors.New("session: invalidated")

	// ErrMarshal is returned when a session cannot be encoded for storage.
	ErrMarshal = errors.New("session: failed to marshal")

	// ErrUnmarshal is returned when a stored session cannot be decoded.
	ErrUnmarshal = errors.New("session: failed to unmarshal")
)
