package session

import (
	"errors"
	"maps"
	"time"
)

// Session holds per-visitor state shared across requests.
//
// Besides the general Values map it carries a dedicated flash slot: a one-shot
// payload written at the end of one request and taken at the start of the next.
type Session struct {
	CreatedAt    time.Time      `json:"created_at"`
	LastActiveAt time.Time      `json:"last_active_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
	Values       map[string]any `json:"values,omitempty"`
	Flash        map[string]any `json:"flash,omitempty"`
	ID           string         `json:"id"`
	Token        string         `json:"token"`

	dirty       bool
	isNew       bool
	invalidated bool
}

// New creates a new session with the given ID and token.
func New(id, token string, expiresAt time.Time) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Token:        token,
		Values:       make(map[string]any),
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    expiresAt,
		isNew:        true,
		dirty:        true,
	}
}

// SetValue stores a value in the session. It is a no-op on an invalidated session.
func (s *Session) SetValue(key string, val any) {
	if s.invalidated {
		return
	}
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	s.Values[key] = val
	s.dirty = true
}

// GetValue retrieves a value from the session.
func (s *Session) GetValue(key string) (any, bool) {
	if s.invalidated || s.Values == nil {
		return nil, false
	}
	val, ok := s.Values[key]
	return val, ok
}

// DeleteValue removes a value from the session.
func (s *Session) DeleteValue(key string) {
	if s.invalidated || s.Values == nil {
		return
	}
	if _, exists := s.Values[key]; exists {
		delete(s.Values, key)
		s.dirty = true
	}
}

// TakeFlash returns the pending flash payload and clears the slot.
// It returns nil when nothing is pending.
func (s *Session) TakeFlash() map[string]any {
	if s.invalidated || len(s.Flash) == 0 {
		return nil
	}
	flash := s.Flash
	s.Flash = nil
	s.dirty = true
	return flash
}

// PutFlash stores a flash payload for the next request.
// An empty payload leaves the slot untouched.
func (s *Session) PutFlash(flash map[string]any) error {
	if s.invalidated {
		return ErrInvalidated
	}
	if len(flash) == 0 {
		return nil
	}
	s.Flash = maps.Clone(flash)
	s.dirty = true
	return nil
}

// Invalidate marks the session as terminated. Reads return nothing and writes
// are ignored for the rest of the request.
func (s *Session) Invalidate() {
	s.invalidated = true
	s.Values = nil
	s.Flash = nil
}

// IsInvalidated reports whether Invalidate was called.
func (s *Session) IsInvalidated() bool {
	return s.invalidated
}

// IsDirty returns true if the session has unsaved changes.
func (s *Session) IsDirty() bool {
	return s.dirty
}

// ClearDirty marks the session as saved.
func (s *Session) ClearDirty() {
	s.dirty = false
}

// MarkDirty marks the session as needing to be saved.
func (s *Session) MarkDirty() {
	s.dirty = true
}

// IsNew returns true if the session was just created.
func (s *Session) IsNew() bool {
	return s.isNew
}

// ClearNew marks the session as persisted at least once.
func (s *Session) ClearNew() {
	s.isNew = false
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Clone returns a copy that shares no maps with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Values = maps.Clone(s.Values)
	c.Flash = maps.Clone(s.Flash)
	return &c
}

// Value is a typed helper to retrieve session values with type safety.
// Returns an error if the key doesn't exist or type assertion fails.
func Value[T any](s *Session, key string) (T, error) {
	var zero T
	if s == nil {
		return zero, ErrNotFound
	}

	val, ok := s.GetValue(key)
	if !ok {
		return zero, ErrNotFound
	}

	typed, ok := val.(T)
	if !ok {
		return zero, errors.New("session: type mismatch for key: " + key)
	}

	return typed, nil
}

// ValueOr returns the typed value for key, or defaultVal.
func ValueOr[T any](s *Session, key string, defaultVal T) T {
	val, err := Value[T](s, key)
	if err != nil {
		return defaultVal
	}
	return val
}
