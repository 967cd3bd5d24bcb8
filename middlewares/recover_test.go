package middlewares_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch"
	"github.com/dmitrymomot/dispatch/middlewares"
)

func panicking(v any) dispatch.Middleware {
	return func(next dispatch.HandlerFunc) dispatch.HandlerFunc {
		return func(c dispatch.Context) error {
			panic(v)
		}
	}
}

func TestRecover(t *testing.T) {
	t.Parallel()

	ok := func(c dispatch.Context) dispatch.Outcome { return dispatch.Completed() }

	cases := []struct {
		name  string
		value any
	}{
		{name: "string", value: "boom"},
		{name: "error", value: errors.New("error panic")},
		{name: "integer", value: 42},
	}
	for _, tc := range cases {
		t.Run("recovers "+tc.name+" panic", func(t *testing.T) {
			t.Parallel()

			var got error
			app := newApp(t, ok,
				dispatch.WithMiddleware(middlewares.Recover(), panicking(tc.value)),
				dispatch.WithErrorHandler(func(c dispatch.Context, err error) error {
					got = err
					return c.String(http.StatusInternalServerError, "oops")
				}),
			)

			rec := serve(app, httptest.NewRequest(http.MethodGet, "/", nil))

			require.Equal(t, http.StatusInternalServerError, rec.Code)
			pe, isPanic := middlewares.AsPanicError(got)
			require.True(t, isPanic)
			require.Equal(t, tc.value, pe.Value)
			require.NotEmpty(t, pe.Stack)
		})
	}

	t.Run("disable stack", func(t *testing.T) {
		t.Parallel()

		var got error
		app := newApp(t, ok,
			dispatch.WithMiddleware(middlewares.Recover(middlewares.WithRecoverDisablePrintStack()), panicking("x")),
			dispatch.WithErrorHandler(func(c dispatch.Context, err error) error {
				got = err
				return nil
			}),
		)

		serve(app, httptest.NewRequest(http.MethodGet, "/", nil))

		pe, isPanic := middlewares.AsPanicError(got)
		require.True(t, isPanic)
		require.Nil(t, pe.Stack)
	})

	t.Run("passes through when no panic", func(t *testing.T) {
		t.Parallel()

		app := newApp(t, func(c dispatch.Context) dispatch.Outcome {
			return dispatch.Result(c.String(http.StatusOK, "fine"))
		}, dispatch.WithMiddleware(middlewares.Recover()))

		rec := serve(app, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "fine", rec.Body.String())
	})
}

func TestPanicErrorHelpers(t *testing.T) {
	t.Parallel()

	require.False(t, middlewares.IsPanicError(http.ErrNoCookie))
	_, ok := middlewares.AsPanicError(http.ErrNoCookie)
	require.False(t, ok)
	require.True(t, middlewares.IsPanicError(&middlewares.PanicError{Value: 1}))
}
