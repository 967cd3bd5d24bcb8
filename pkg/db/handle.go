package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Handle is a single checked-out connection with an optional open transaction.
//
// With auto-commit off, the first statement begins a transaction that stays
// open until Commit or Rollback. Close rolls back anything still pending and
// releases the connection.
type Handle struct {
	conn       *pgxpool.Conn
	tx         pgx.Tx
	autoCommit bool
	closed     bool
}

func newHandle(conn *pgxpool.Conn) *Handle {
	return &Handle{conn: conn, autoCommit: true}
}

// SetAutoCommit switches the transaction mode. Turning auto-commit back on
// commits the pending transaction.
func (h *Handle) SetAutoCommit(ctx context.Context, on bool) error {
	if h.closed {
		return ErrHandleClosed
	}
	if on && h.tx != nil {
		if err := h.Commit(ctx); err != nil {
			return err
		}
	}
	h.autoCommit = on
	return nil
}

// AutoCommit reports the current transaction mode.
func (h *Handle) AutoCommit() bool { return h.autoCommit }

// InTx reports whether a transaction is open.
func (h *Handle) InTx() bool { return h.tx != nil }

// Exec runs a statement.
func (h *Handle) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q, err := h.querier(ctx)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return q.Exec(ctx, sql, args...)
}

// Query runs a query returning rows.
func (h *Handle) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	q, err := h.querier(ctx)
	if err != nil {
		return nil, err
	}
	return q.Query(ctx, sql, args...)
}

// QueryRow runs a query returning at most one row.
func (h *Handle) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q, err := h.querier(ctx)
	if err != nil {
		return errRow{err: err}
	}
	return q.QueryRow(ctx, sql, args...)
}

// Commit commits the open transaction. It is a no-op without one.
func (h *Handle) Commit(ctx context.Context) error {
	if h.closed {
		return ErrHandleClosed
	}
	if h.tx == nil {
		return nil
	}
	tx := h.tx
	h.tx = nil
	return tx.Commit(ctx)
}

// Rollback aborts the open transaction. It is a no-op without one.
func (h *Handle) Rollback(ctx context.Context) error {
	if h.closed {
		return ErrHandleClosed
	}
	if h.tx == nil {
		return nil
	}
	tx := h.tx
	h.tx = nil
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// Close rolls back any pending transaction and releases the connection.
func (h *Handle) Close(ctx context.Context) error {
	if h.closed {
		return ErrHandleClosed
	}
	err := h.Rollback(ctx)
	h.closed = true
	h.conn.Release()
	return err
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (h *Handle) querier(ctx context.Context) (querier, error) {
	if h.closed {
		return nil, ErrHandleClosed
	}
	if h.autoCommit {
		return h.conn, nil
	}
	if h.tx == nil {
		tx, err := h.conn.Begin(ctx)
		if err != nil {
			return nil, err
		}
		h.tx = tx
	}
	return h.tx, nil
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }
