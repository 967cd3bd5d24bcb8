package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOpen_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty URL returns ErrEmptyConnectionURL", func(t *testing.T) {
		t.Parallel()

		client, err := Open(ctx, Config{})
		require.ErrorIs(t, err, ErrEmptyConnectionURL)
		require.Nil(t, client)
	})

	testCases := []struct {
		name string
		url  string
	}{
		{name: "http scheme", url: "http://localhost:6379"},
		{name: "no scheme", url: "localhost:6379"},
		{name: "invalid port", url: "redis://localhost:notaport"},
		{name: "invalid database", url: "redis://localhost:6379/notanumber"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client, err := Open(ctx, Config{URL: tc.url})
			require.ErrorIs(t, err, ErrFailedToParseURL)
			require.Nil(t, client)
		})
	}
}

func TestParse_AppliesConfig(t *testing.T) {
	t.Parallel()

	opts, err := parse(Config{
		URL:          "redis://localhost:6379/2",
		PoolSize:     20,
		MinIdleConns: 3,
		ReadTimeout:  time.Second,
		MaxIdleTime:  time.Minute,
	})
	require.NoError(t, err)
	require.Equal(t, 2, opts.DB)
	require.Equal(t, 20, opts.PoolSize)
	require.Equal(t, 3, opts.MinIdleConns)
	require.Equal(t, time.Second, opts.ReadTimeout)
	require.Equal(t, time.Minute, opts.ConnMaxIdleTime)
}

func TestHealthcheck_NilClient(t *testing.T) {
	t.Parallel()

	err := Healthcheck(nil)(context.Background())
	require.ErrorIs(t, err, ErrHealthcheckFailed)
}

type closer struct {
	err    error
	closed bool
}

func (c *closer) Close() error {
	c.closed = true
	return c.err
}

func TestShutdown(t *testing.T) {
	t.Parallel()

	boom := errors.New("close error")
	c := &closer{err: boom}

	err := Shutdown(c)(context.Background())
	require.ErrorIs(t, err, boom)
	require.True(t, c.closed)
}

func TestWait_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := wait(ctx, 10*time.Second)
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), time.Second)
}
