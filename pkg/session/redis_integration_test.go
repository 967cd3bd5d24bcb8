//go:build integration

package session_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/pkg/redis"
	"github.com/dmitrymomot/dispatch/pkg/session"
)

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/0"
	}

	ctx := context.Background()
	client, err := redis.Open(ctx, redis.Config{URL: url, RetryAttempts: 1})
	require.NoError(t, err, "failed to connect to Redis")
	t.Cleanup(func() { _ = client.Close() })

	store := session.NewRedisStore(client, session.WithRedisPrefix("test-session"))

	s := session.New("id", "tok-"+time.Now().Format("150405.000000"), time.Now().Add(time.Minute))
	s.SetValue("user", "ann")
	require.NoError(t, s.PutFlash(map[string]any{"msg": "saved"}))
	require.NoError(t, store.Create(ctx, s))
	t.Cleanup(func() { _ = store.Delete(ctx, s.Token) })

	got, err := store.Get(ctx, s.Token)
	require.NoError(t, err)
	require.Equal(t, "ann", session.ValueOr(got, "user", ""))
	require.Equal(t, map[string]any{"msg": "saved"}, got.TakeFlash())

	require.NoError(t, store.Delete(ctx, s.Token))
	_, err = store.Get(ctx, s.Token)
	require.ErrorIs(t, err, session.ErrNotFound)
}
