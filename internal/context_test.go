package internal_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/internal"
)

// serveWith runs fn as the only action and returns the recorder.
func serveWith(t *testing.T, req *http.Request, fn func(c internal.Context) internal.Outcome, opts ...internal.Option) *httptest.ResponseRecorder {
	t.Helper()
	h := internal.Register("ctx", newWidget,
		internal.Before("mutate", func(_ *widget, c internal.Context) error {
			c.Request().Header.Set("X-Trace", "mutated")
			c.Request().Form.Set("q", "mutated")
			return nil
		}),
		internal.Action("run", func(_ *widget, c internal.Context) internal.Outcome { return fn(c) }),
	)
	app, err := internal.Build(append([]internal.Option{
		internal.WithHandlers(h),
		internal.WithRoutes(routes(t, map[string]string{"/run": "ctx.run"})),
	}, opts...)...)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

type ctxKey struct{}

func TestContextSnapshot(t *testing.T) {
	t.Parallel()

	form := url.Values{"tag": {"a", "b"}, "page": {"3"}}
	req := httptest.NewRequest(http.MethodPost, "/run?q=search&ratio=0.5&draft=true", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Trace", "abc")
	req.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})

	var seen struct {
		q, trace, theme string
		tags            []string
		headers         map[string][]string
		params          map[string][]string
		page            int
		ratio           float64
		draft           bool
		missing         int
		action          internal.Target
	}
	rec := serveWith(t, req, func(c internal.Context) internal.Outcome {
		seen.q = c.Param("q")
		seen.trace = c.Header("x-trace")
		seen.theme = c.Cookie("theme")
		seen.tags = c.Params("tag")
		seen.headers = c.Headers()
		seen.params = c.ParamMap()
		seen.page = internal.ParamAs[int](c, "page")
		seen.ratio = internal.ParamAs[float64](c, "ratio")
		seen.draft = internal.ParamAs[bool](c, "draft")
		seen.missing = internal.ParamOr(c, "size", 20)
		seen.action = c.Action()

		c.Params("tag")[0] = "changed"
		return internal.Result(c.NoContent(http.StatusNoContent))
	})

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "search", seen.q)
	require.Equal(t, "abc", seen.trace)
	require.Equal(t, "dark", seen.theme)
	require.Equal(t, []string{"a", "b"}, seen.tags)
	require.Equal(t, []string{"abc"}, seen.headers["x-trace"])
	require.Equal(t, []string{"3"}, seen.params["page"])
	require.Equal(t, 3, seen.page)
	require.InDelta(t, 0.5, seen.ratio, 0.0001)
	require.True(t, seen.draft)
	require.Equal(t, 20, seen.missing)
	require.Equal(t, "ctx.run", seen.action.String())
}

func TestContextAttributes(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/run?n=abc", nil)
	rec := serveWith(t, req, func(c internal.Context) internal.Outcome {
		c.SetAttribute("user", "u-1")
		c.Set(ctxKey{}, 42)

		user, ok := internal.AttributeAs[string](c, "user")
		if !ok || user != "u-1" {
			return internal.Failed(internal.NewHTTPError(http.StatusBadRequest, "attribute"))
		}
		if _, ok := internal.AttributeAs[int](c, "user"); ok {
			return internal.Failed(internal.NewHTTPError(http.StatusBadRequest, "attribute type"))
		}
		if internal.ContextValue[int](c, ctxKey{}) != 42 || c.Value(ctxKey{}) != 42 {
			return internal.Failed(internal.NewHTTPError(http.StatusBadRequest, "context value"))
		}
		if internal.ParamOr(c, "n", 7) != 7 || internal.ParamAs[int](c, "n") != 0 {
			return internal.Failed(internal.NewHTTPError(http.StatusBadRequest, "param"))
		}
		if len(c.Attributes()) != 1 || c.StartedAt().IsZero() {
			return internal.Failed(internal.NewHTTPError(http.StatusBadRequest, "attributes"))
		}

		c.SetHeader("X-Result", "ok")
		c.SetCookie(&http.Cookie{Name: "seen", Value: "1"})
		return internal.Result(c.JSON(http.StatusCreated, map[string]string{"user": user}))
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "ok", rec.Header().Get("X-Result"))
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"user":"u-1"}`, rec.Body.String())
	require.Equal(t, "seen", rec.Result().Cookies()[0].Name)
}

func TestContextRedirect(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/run", nil)
	rec := serveWith(t, req, func(c internal.Context) internal.Outcome {
		return internal.Result(c.Redirect(http.StatusOK, "/elsewhere"))
	})
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/elsewhere", rec.Header().Get("Location"))
}

func TestVerboseTracing(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	req := httptest.NewRequest(http.MethodGet, "/run?q=1", nil)
	serveWith(t, req, func(c internal.Context) internal.Outcome {
		return internal.Completed()
	}, internal.WithVerbose(true), debugLogger(&logs))

	out := logs.String()
	for _, msg := range []string{"request start", "request headers", "request params", "filter trace", "request end"} {
		require.Contains(t, out, `"msg":"`+msg+`"`)
	}
	require.Contains(t, out, `"member":"mutate"`)

	logs.Reset()
	serveWith(t, httptest.NewRequest(http.MethodGet, "/run", nil), func(c internal.Context) internal.Outcome {
		return internal.Completed()
	}, debugLogger(&logs))
	require.NotContains(t, logs.String(), "filter trace")
}
