package internal_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/internal"
)

func TestRun(t *testing.T) {
	t.Parallel()

	app := dispatcherApp(t, routes(t, map[string]string{"/notes": "notes.index"}))

	t.Run("hooks run around the server", func(t *testing.T) {
		t.Parallel()
		j := &journal{}
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			done <- app.Run(
				internal.WithContext(ctx),
				internal.Address("127.0.0.1:0"),
				internal.ShutdownTimeout(time.Second),
				internal.StartupHook(func(context.Context) error {
					j.add("startup")
					cancel()
					return nil
				}),
				internal.ShutdownHook(func(context.Context) error {
					j.add("shutdown-1")
					return nil
				}),
				internal.ShutdownHook(func(context.Context) error {
					j.add("shutdown-2")
					return errors.New("flush failed")
				}),
			)
		}()

		select {
		case err := <-done:
			require.ErrorContains(t, err, "flush failed")
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after context cancellation")
		}
		require.Equal(t, []string{"startup", "shutdown-1", "shutdown-2"}, j.list())
	})

	t.Run("failing startup hook aborts", func(t *testing.T) {
		t.Parallel()
		errStartup := errors.New("migrations pending")
		err := app.Run(
			internal.Address("127.0.0.1:0"),
			internal.StartupHook(func(context.Context) error { return errStartup }),
		)
		require.ErrorIs(t, err, errStartup)
	})

	t.Run("listen failure", func(t *testing.T) {
		t.Parallel()
		err := app.Run(internal.Address("256.0.0.1:bad"))
		require.Error(t, err)
	})
}

func TestRouterServesOverHTTP(t *testing.T) {
	t.Parallel()

	app := dispatcherApp(t, routes(t, map[string]string{"/notes": "notes.index"}))
	srv := httptest.NewServer(app.Router())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/notes")
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
