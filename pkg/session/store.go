package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store defines the interface for session persistence.
// Sessions are addressed by their cookie token.
type Store interface {
	// Create persists a new session.
	Create(ctx context.Context, s *Session) error

	// Get retrieves a session by its token.
	// Returns ErrNotFound if the session doesn't exist.
	// Returns ErrExpired if the session has expired.
	Get(ctx context.Context, token string) (*Session, error)

	// Update saves changes to an existing session.
	Update(ctx context.Context, s *Session) error

	// Delete removes a session by its token.
	Delete(ctx context.Context, token string) error
}

// MemoryStore keeps sessions in process memory. Expired sessions are
// dropped lazily on access. Suitable for tests and single-instance setups.
type MemoryStore struct {
	items map[string]*Session
	mu    sync.Mutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]*Session)}
}

// Create implements Store.
func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[s.Token] = s.Clone()
	return nil
}

// Get implements Store. The returned session is a private copy.
func (m *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.items[token]
	if !ok {
		return nil, ErrNotFound
	}
	if s.IsExpired() {
		delete(m.items, token)
		return nil, ErrExpired
	}

	c := s.Clone()
	c.ClearDirty()
	c.ClearNew()
	return c, nil
}

// Update implements Store.
func (m *MemoryStore) Update(ctx context.Context, s *Session) error {
	return m.Create(ctx, s)
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, token)
	return nil
}

// Sweep drops every session that expired before now and returns how many were removed.
func (m *MemoryStore) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for token, s := range m.items {
		if now.After(s.ExpiresAt) {
			delete(m.items, token)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

const defaultRedisPrefix = "session"

// RedisStore keeps sessions in Redis as JSON documents whose TTL follows
// the session expiry.
//
// Values round-trip through JSON: numbers come back as float64 and nested
// structures as maps.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisPrefix sets the key prefix. Keys are stored as "{prefix}:{token}".
// Default: "session".
func WithRedisPrefix(prefix string) RedisStoreOption {
	return func(r *RedisStore) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// NewRedisStore creates a store over an open Redis client.
// The client should be obtained from pkg/redis.Open.
//
// Example:
//
//	client, err := redis.Open(ctx, redis.Config{URL: os.Getenv("REDIS_URL")})
//	if err != nil {
//	    return err
//	}
//	store := session.NewRedisStore(client, session.WithRedisPrefix("myapp:sess"))
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	r := &RedisStore{client: client, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create implements Store.
func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Join(ErrMarshal, err)
	}
	return r.client.Set(ctx, r.key(s.Token), data, ttl).Err()
}

// Get implements Store.
func (r *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	data, err := r.client.Get(ctx, r.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Join(ErrUnmarshal, err)
	}
	if s.IsExpired() {
		return nil, ErrExpired
	}
	return &s, nil
}

// Update implements Store.
func (r *RedisStore) Update(ctx context.Context, s *Session) error {
	return r.Create(ctx, s)
}

// Delete implements Store.
func (r *RedisStore) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, r.key(token)).Err()
}

func (r *RedisStore) key(token string) string {
	return r.prefix + ":" + token
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)
