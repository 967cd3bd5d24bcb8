package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch"
)

func TestPrintRoutes(t *testing.T) {
	t.Parallel()

	routes, err := dispatch.NewRouteTable(map[string]string{
		"/notes":       "notes.index",
		"/notes/audit": "notes.audit",
		"/missing":     "ghost.index",
	})
	require.NoError(t, err)
	reg, err := dispatch.NewRegistry(notesHandler())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printRoutes(&out, routes, reg))

	text := out.String()
	require.Contains(t, text, "/notes ")
	require.Contains(t, text, "notes.index")
	require.Contains(t, text, "filter methods cannot be routed")
	require.Contains(t, text, "handler not registered")
	require.Contains(t, text, "notes: create, index, show")
	require.Contains(t, text, "only=notes.create")
}

func TestRootCommand(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd()
	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	require.ElementsMatch(t, []string{"serve", "routes", "migrate"}, names)
}

func TestNotesWithoutDatabase(t *testing.T) {
	t.Parallel()

	routes, err := dispatch.NewRouteTable(map[string]string{
		"/notes":        "notes.index",
		"/notes/create": "notes.create",
	})
	require.NoError(t, err)
	app, err := dispatch.Build(
		dispatch.WithRoutes(routes),
		dispatch.WithHandlers(notesHandler()),
		dispatch.WithNamedHandler("default", defaultHandler()),
	)
	require.NoError(t, err)

	t.Run("create without body is rejected by the before filter", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/notes/create", strings.NewReader(url.Values{}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "body is required")
	})

	t.Run("index fails without a connector", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notes", nil))

		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("unknown path goes to the default handler", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}
