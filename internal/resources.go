package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Handle is an open database session owned by one request.
type Handle interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Close(ctx context.Context) error
	SetAutoCommit(ctx context.Context, on bool) error
}

// Connector opens handles for logical service names.
type Connector interface {
	Acquire(ctx context.Context, service string) (Handle, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context, service string) (Handle, error)

// Acquire implements Connector.
func (f ConnectorFunc) Acquire(ctx context.Context, service string) (Handle, error) {
	return f(ctx, service)
}

type pooledHandle struct {
	handle  Handle
	service string
}

// Resources caches one handle per service name for the duration of a request.
// Handles are never committed by Resources; Teardown rolls back and closes them.
type Resources struct {
	connector Connector
	logger    *slog.Logger
	byName    map[string]Handle
	handles   []pooledHandle
	once      sync.Once
	closed    bool
}

func newResources(connector Connector, logger *slog.Logger) *Resources {
	return &Resources{
		connector: connector,
		logger:    logger,
		byName:    make(map[string]Handle),
	}
}

// Acquire returns the handle for service, opening it with auto-commit
// disabled on first use. Failures are not cached: a later call retries.
// After Teardown it returns ErrResourcesClosed.
func (rs *Resources) Acquire(ctx context.Context, service string) (Handle, error) {
	if rs.closed {
		return nil, ErrResourcesClosed
	}
	if h, ok := rs.byName[service]; ok {
		return h, nil
	}
	if rs.connector == nil {
		return nil, ErrNoConnector
	}

	h, err := rs.connector.Acquire(ctx, service)
	if err != nil {
		rs.logger.ErrorContext(ctx, "acquire resource failed",
			slog.String("service", service),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("acquire %s: %w", service, err)
	}
	if err := h.SetAutoCommit(ctx, false); err != nil {
		rs.logger.ErrorContext(ctx, "disable auto-commit failed",
			slog.String("service", service),
			slog.Any("error", err),
		)
		if cerr := h.Close(context.WithoutCancel(ctx)); cerr != nil {
			err = errors.Join(err, cerr)
		}
		return nil, fmt.Errorf("acquire %s: %w", service, err)
	}

	rs.byName[service] = h
	rs.handles = append(rs.handles, pooledHandle{service: service, handle: h})
	return h, nil
}

// Len returns the number of open handles.
func (rs *Resources) Len() int {
	return len(rs.handles)
}

// Teardown rolls back and closes every handle in acquisition order.
// Each failure is logged and the loop moves on. Only the first call has effect;
// later acquisitions are refused.
func (rs *Resources) Teardown(ctx context.Context) {
	rs.once.Do(func() {
		rs.closed = true
		ctx = context.WithoutCancel(ctx)
		for _, ph := range rs.handles {
			if err := ph.handle.Rollback(ctx); err != nil {
				rs.logger.ErrorContext(ctx, "resource rollback failed",
					slog.String("service", ph.service),
					slog.Any("error", err),
				)
			}
			if err := ph.handle.Close(ctx); err != nil {
				rs.logger.ErrorContext(ctx, "resource close failed",
					slog.String("service", ph.service),
					slog.Any("error", err),
				)
			}
		}
		rs.handles = nil
		clear(rs.byName)
	})
}
