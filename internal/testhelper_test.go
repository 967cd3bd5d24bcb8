package internal_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/internal"
	"github.com/dmitrymomot/dispatch/pkg/logger"
)

// journal records lifecycle steps in the order they happen.
type journal struct {
	steps []string
	mu    sync.Mutex
}

func (j *journal) add(step string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.steps = append(j.steps, step)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.steps...)
}

// step returns a filter body that records name.
func step[H any](j *journal, name string) func(H, internal.Context) error {
	return func(H, internal.Context) error {
		j.add(name)
		return nil
	}
}

// act returns an action body that records name and returns out.
func act[H any](j *journal, name string, out internal.Outcome) func(H, internal.Context) internal.Outcome {
	return func(H, internal.Context) internal.Outcome {
		j.add(name)
		return out
	}
}

type widget struct{}

func newWidget() (*widget, error) { return &widget{}, nil }

// fakeHandle counts lifecycle calls made by the resource pool.
type fakeHandle struct {
	service     string
	autoCommit  bool
	commits     int
	rollbacks   int
	closes      int
	autoCommitE error
	rollbackErr error
	closeErr    error
	mu          sync.Mutex
}

func (h *fakeHandle) Commit(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commits++
	return nil
}

func (h *fakeHandle) Rollback(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rollbacks++
	return h.rollbackErr
}

func (h *fakeHandle) Close(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closes++
	return h.closeErr
}

func (h *fakeHandle) SetAutoCommit(_ context.Context, on bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.autoCommitE != nil {
		return h.autoCommitE
	}
	h.autoCommit = on
	return nil
}

func (h *fakeHandle) counts() (rollbacks, closes int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rollbacks, h.closes
}

// fakeConnector opens fakeHandles and remembers them.
type fakeConnector struct {
	opened   []*fakeHandle
	failures map[string]int
	mu       sync.Mutex
}

var errConnect = errors.New("connect refused")

func newFakeConnector() *fakeConnector {
	return &fakeConnector{failures: make(map[string]int)}
}

// failNext makes the next n acquisitions of service fail.
func (fc *fakeConnector) failNext(service string, n int) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.failures[service] = n
}

func (fc *fakeConnector) Acquire(_ context.Context, service string) (internal.Handle, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.failures[service] > 0 {
		fc.failures[service]--
		return nil, errConnect
	}
	h := &fakeHandle{service: service, autoCommit: true}
	fc.opened = append(fc.opened, h)
	return h, nil
}

func (fc *fakeConnector) handles() []*fakeHandle {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return append([]*fakeHandle(nil), fc.opened...)
}

// routes builds a route table or fails the test.
func routes(t *testing.T, entries map[string]string) *internal.RouteTable {
	t.Helper()
	rt, err := internal.NewRouteTable(entries)
	require.NoError(t, err)
	return rt
}

// debugLogger returns a JSON logger at debug level writing to buf.
func debugLogger(buf *bytes.Buffer) internal.Option {
	return internal.WithCustomLogger(logger.NewTo(buf, logger.Config{Level: "debug"}))
}

// do serves one request through h.
func do(h http.Handler, method, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
