package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch"
)

type probe struct {
	fn func(c dispatch.Context) dispatch.Outcome
}

func (p *probe) Run(c dispatch.Context) dispatch.Outcome {
	return p.fn(c)
}

// newApp builds an app that routes "/" to an action running fn.
func newApp(t *testing.T, fn func(c dispatch.Context) dispatch.Outcome, opts ...dispatch.Option) *dispatch.App {
	t.Helper()

	routes, err := dispatch.NewRouteTable(map[string]string{"/": "probe.run"})
	require.NoError(t, err)

	handler := dispatch.Register("probe", func() (*probe, error) { return &probe{fn: fn}, nil },
		dispatch.Action("run", (*probe).Run),
	)

	app, err := dispatch.Build(append([]dispatch.Option{
		dispatch.WithRoutes(routes),
		dispatch.WithHandlers(handler),
	}, opts...)...)
	require.NoError(t, err)
	return app
}

func serve(app http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}
