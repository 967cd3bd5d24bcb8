package internal_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/internal"
	"github.com/dmitrymomot/dispatch/pkg/session"
)

// flashApp serves /save, /show and /logout against store.
func flashApp(t *testing.T, store session.Store, opts ...internal.Option) *internal.App {
	t.Helper()
	h := internal.Register("flash", newWidget,
		internal.Action("save", func(_ *widget, c internal.Context) internal.Outcome {
			if err := c.SetFlash("notice", "saved"); err != nil {
				return internal.Failed(err)
			}
			return internal.Result(c.Redirect(http.StatusSeeOther, "/show"))
		}),
		internal.Action("show", func(_ *widget, c internal.Context) internal.Outcome {
			notice, _ := internal.AttributeAs[string](c, "notice")
			return internal.Result(c.String(http.StatusOK, "notice="+notice))
		}),
		internal.Action("logout", func(_ *widget, c internal.Context) internal.Outcome {
			if err := c.SetFlash("notice", "bye"); err != nil {
				return internal.Failed(err)
			}
			return internal.Result(c.InvalidateSession())
		}),
	)
	app, err := internal.Build(append([]internal.Option{
		internal.WithHandlers(h),
		internal.WithRoutes(routes(t, map[string]string{
			"/save":   "flash.save",
			"/show":   "flash.show",
			"/logout": "flash.logout",
		})),
		internal.WithSession(store, internal.WithSessionCookieName("sid")),
	}, opts...)...)
	require.NoError(t, err)
	return app
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "sid" {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestFlashScope(t *testing.T) {
	t.Parallel()

	t.Run("visible on the next request only", func(t *testing.T) {
		t.Parallel()
		store := session.NewMemoryStore()
		app := flashApp(t, store)

		rec := do(app, http.MethodPost, "/save")
		require.Equal(t, http.StatusSeeOther, rec.Code)
		cookie := sessionCookie(t, rec.Result())
		require.Equal(t, 1, store.Len())

		rec = do(app, http.MethodGet, "/show", cookie)
		require.Equal(t, "notice=saved", rec.Body.String())

		rec = do(app, http.MethodGet, "/show", cookie)
		require.Equal(t, "notice=", rec.Body.String())
	})

	t.Run("no session cookie means no flash", func(t *testing.T) {
		t.Parallel()
		app := flashApp(t, session.NewMemoryStore())

		rec := do(app, http.MethodGet, "/show")
		require.Equal(t, "notice=", rec.Body.String())
		require.Empty(t, rec.Result().Cookies())
	})

	t.Run("stale cookie is ignored", func(t *testing.T) {
		t.Parallel()
		app := flashApp(t, session.NewMemoryStore())

		rec := do(app, http.MethodGet, "/show", &http.Cookie{Name: "sid", Value: "gone"})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "notice=", rec.Body.String())
	})

	t.Run("invalidated session drops the flash", func(t *testing.T) {
		t.Parallel()
		store := session.NewMemoryStore()
		var logs bytes.Buffer
		app := flashApp(t, store, debugLogger(&logs))

		cookie := sessionCookie(t, do(app, http.MethodPost, "/save").Result())

		rec := do(app, http.MethodPost, "/logout", cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Zero(t, store.Len())
		require.Contains(t, logs.String(), "flash not saved: session invalidated")

		cleared := sessionCookie(t, rec.Result())
		require.Empty(t, cleared.Value)
		require.Negative(t, cleared.MaxAge)

		rec = do(app, http.MethodGet, "/show", cookie)
		require.Equal(t, "notice=", rec.Body.String())
	})

	t.Run("flash without a session store", func(t *testing.T) {
		t.Parallel()
		var got error
		h := internal.Register("flash", newWidget,
			internal.Action("save", func(_ *widget, c internal.Context) internal.Outcome {
				got = c.SetFlash("notice", "saved")
				return internal.Completed()
			}),
		)
		app, err := internal.Build(
			internal.WithHandlers(h),
			internal.WithRoutes(routes(t, map[string]string{"/save": "flash.save"})),
		)
		require.NoError(t, err)

		do(app, http.MethodPost, "/save")
		require.ErrorIs(t, got, session.ErrNotConfigured)
	})

	t.Run("no new session after the response is written", func(t *testing.T) {
		t.Parallel()
		store := session.NewMemoryStore()
		var got error
		rec := serveWith(t, httptest.NewRequest(http.MethodPost, "/run", nil), func(c internal.Context) internal.Outcome {
			if err := c.String(http.StatusAccepted, "queued"); err != nil {
				return internal.Failed(err)
			}
			got = c.SetFlash("notice", "late")
			return internal.Completed()
		}, internal.WithSession(store, internal.WithSessionCookieName("sid")))

		require.Equal(t, http.StatusAccepted, rec.Code)
		require.ErrorIs(t, got, internal.ErrResponseWritten)
		require.Zero(t, store.Len())
		require.Empty(t, rec.Result().Cookies())
	})

	t.Run("existing session still takes a late flash", func(t *testing.T) {
		t.Parallel()
		store := session.NewMemoryStore()
		app := flashApp(t, store)
		cookie := sessionCookie(t, do(app, http.MethodPost, "/save").Result())
		do(app, http.MethodGet, "/show", cookie)

		req := httptest.NewRequest(http.MethodGet, "/run", nil)
		req.AddCookie(cookie)
		var got error
		serveWith(t, req, func(c internal.Context) internal.Outcome {
			_ = c.String(http.StatusOK, "done")
			got = c.SetFlash("notice", "late")
			return internal.Completed()
		}, internal.WithSession(store, internal.WithSessionCookieName("sid")))
		require.NoError(t, got)
		require.Equal(t, 1, store.Len())

		rec := do(app, http.MethodGet, "/show", cookie)
		require.Equal(t, "notice=late", rec.Body.String())
	})
}

func TestSessionManager(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore()
	sm := internal.NewSessionManager(store,
		internal.WithSessionCookieName("sid"),
		internal.WithSessionMaxAge(60),
		internal.WithSessionSecure(true),
		internal.WithSessionDomain("example.com"),
		internal.WithSessionPath("/app"),
		internal.WithSessionSameSite(http.SameSiteStrictMode),
	)
	require.Equal(t, "sid", sm.CookieName())
	require.Same(t, store, sm.Store())

	sess, err := sm.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	require.False(t, sess.IsDirty())

	t.Run("cookie attributes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		sm.SetCookie(rec, sess)
		c := rec.Result().Cookies()[0]
		require.Equal(t, "sid", c.Name)
		require.Equal(t, sess.Token, c.Value)
		require.Equal(t, 60, c.MaxAge)
		require.True(t, c.Secure)
		require.True(t, c.HttpOnly)
		require.Equal(t, "/app", c.Path)
		require.Equal(t, http.SameSiteStrictMode, c.SameSite)
	})

	t.Run("load by cookie", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		loaded, err := sm.Load(ctx, req)
		require.NoError(t, err)
		require.Nil(t, loaded)

		req.AddCookie(&http.Cookie{Name: "sid", Value: sess.Token})
		loaded, err = sm.Load(ctx, req)
		require.NoError(t, err)
		require.Equal(t, sess.ID, loaded.ID)
	})

	t.Run("persist only dirty sessions", func(t *testing.T) {
		loaded, err := store.Get(ctx, sess.Token)
		require.NoError(t, err)
		require.NoError(t, sm.Persist(ctx, loaded))

		loaded.SetValue("user", "u-1")
		require.NoError(t, sm.Persist(ctx, loaded))
		require.False(t, loaded.IsDirty())

		again, err := store.Get(ctx, sess.Token)
		require.NoError(t, err)
		v, ok := again.GetValue("user")
		require.True(t, ok)
		require.Equal(t, "u-1", v)
	})

	t.Run("destroy", func(t *testing.T) {
		victim, err := sm.Create(ctx)
		require.NoError(t, err)
		require.NoError(t, sm.Destroy(ctx, victim))
		require.True(t, victim.IsInvalidated())

		_, err = store.Get(ctx, victim.Token)
		require.ErrorIs(t, err, session.ErrNotFound)
		require.NoError(t, sm.Persist(ctx, victim))
		require.NoError(t, sm.Destroy(ctx, nil))
	})
}
