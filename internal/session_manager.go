package internal

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/dispatch/pkg/session"
)

// Default session configuration.
const (
	defaultSessionCookieName = "__sid"
	defaultSessionMaxAge     = 86400 * 30 // 30 days
)

// SessionManager handles session lifecycle and cookie management.
type SessionManager struct {
	store      session.Store
	cookieName string
	domain     string
	path       string
	maxAge     int
	sameSite   http.SameSite
	secure     bool
	httpOnly   bool
}

// SessionOption configures the SessionManager.
type SessionOption func(*SessionManager)

// NewSessionManager creates a new SessionManager with the given store and options.
func NewSessionManager(store session.Store, opts ...SessionOption) *SessionManager {
	sm := &SessionManager{
		store:      store,
		cookieName: defaultSessionCookieName,
		maxAge:     defaultSessionMaxAge,
		path:       "/",
		httpOnly:   true,
		sameSite:   http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// WithSessionCookieName sets the session cookie name.
func WithSessionCookieName(name string) SessionOption {
	return func(sm *SessionManager) {
		if name != "" {
			sm.cookieName = name
		}
	}
}

// WithSessionMaxAge sets the session lifetime in seconds.
func WithSessionMaxAge(seconds int) SessionOption {
	return func(sm *SessionManager) {
		if seconds > 0 {
			sm.maxAge = seconds
		}
	}
}

// WithSessionDomain sets the session cookie domain.
func WithSessionDomain(domain string) SessionOption {
	return func(sm *SessionManager) {
		sm.domain = domain
	}
}

// WithSessionPath sets the session cookie path.
func WithSessionPath(path string) SessionOption {
	return func(sm *SessionManager) {
		if path != "" {
			sm.path = path
		}
	}
}

// WithSessionSecure sets the session cookie Secure flag.
func WithSessionSecure(secure bool) SessionOption {
	return func(sm *SessionManager) {
		sm.secure = secure
	}
}

// WithSessionSameSite sets the session cookie SameSite attribute.
func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return func(sm *SessionManager) {
		sm.sameSite = sameSite
	}
}

// Load returns the session named by the request cookie.
// It returns nil, nil when the request carries no session cookie.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*session.Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}
	return sm.store.Get(ctx, cookie.Value)
}

// Create starts and stores a new session.
func (sm *SessionManager) Create(ctx context.Context) (*session.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	expiresAt := time.Now().Add(time.Duration(sm.maxAge) * time.Second)

	sess := session.New(uuid.NewString(), token, expiresAt)
	if err := sm.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	sess.ClearNew()
	sess.ClearDirty()
	return sess, nil
}

// Persist writes a dirty session back to the store.
// Clean and invalidated sessions are skipped.
func (sm *SessionManager) Persist(ctx context.Context, sess *session.Session) error {
	if sess == nil || sess.IsInvalidated() || !sess.IsDirty() {
		return nil
	}
	sess.LastActiveAt = time.Now()
	if err := sm.store.Update(ctx, sess); err != nil {
		return err
	}
	sess.ClearDirty()
	return nil
}

// Destroy invalidates the session and removes it from the store.
func (sm *SessionManager) Destroy(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return nil
	}
	token := sess.Token
	sess.Invalidate()
	return sm.store.Delete(ctx, token)
}

// SetCookie writes the session cookie to the response.
func (sm *SessionManager) SetCookie(w http.ResponseWriter, sess *session.Session) {
	http.SetCookie(w, sm.cookie(sess.Token, sm.maxAge))
}

// ClearCookie expires the session cookie.
func (sm *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, sm.cookie("", -1))
}

// CookieName returns the session cookie name.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

// Store returns the underlying session store.
func (sm *SessionManager) Store() session.Store {
	return sm.store
}

func (sm *SessionManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sm.cookieName,
		Value:    value,
		Path:     sm.path,
		Domain:   sm.domain,
		MaxAge:   maxAge,
		Secure:   sm.secure,
		HttpOnly: sm.httpOnly,
		SameSite: sm.sameSite,
	}
}

// generateToken creates a cryptographically secure random token.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
