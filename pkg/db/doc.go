// Package db provides the PostgreSQL collaborator of the dispatcher.
//
// It wraps [github.com/jackc/pgx/v5/pgxpool]: one pool per logical service
// name, opened at startup with retry, and request-scoped [Handle] values that
// carry a lazily started transaction.
//
// # Configuration
//
// All settings are loaded from environment variables:
//
//	DATABASE_CONN_URL           - Connection URL of the "default" service
//	DATABASE_SERVICES           - Extra services: name=url,name=url
//	DATABASE_MAX_OPEN_CONNS     - Maximum open connections per pool (default: 10)
//	DATABASE_MIN_CONNS          - Minimum idle connections per pool (default: 2)
//	DATABASE_HEALTHCHECK_PERIOD - Health check interval (default: 1m)
//	DATABASE_MAX_CONN_IDLE_TIME - Maximum connection idle time (default: 10m)
//	DATABASE_MAX_CONN_LIFETIME  - Maximum connection lifetime (default: 30m)
//	DATABASE_RETRY_ATTEMPTS     - Connection retry attempts (default: 3)
//	DATABASE_RETRY_INTERVAL     - Base retry interval (default: 5s)
//	DATABASE_MIGRATIONS_TABLE   - Migrations table name (default: schema_migrations)
//
// # Usage
//
//	services, err := db.OpenServices(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer services.Close()
//
//	h, err := services.Acquire(ctx, "billing")
//	if err != nil {
//		return err
//	}
//	defer h.Close(ctx)
//
//	_ = h.SetAutoCommit(ctx, false)
//	if _, err := h.Exec(ctx, "UPDATE invoices SET paid = true WHERE id = $1", id); err != nil {
//		return err // Close rolls back
//	}
//	return h.Commit(ctx)
//
// # Migrations
//
// [Migrate] applies embedded SQL files with [github.com/pressly/goose/v3].
//
// # Error Handling
//
// Sentinel errors are joined with the driver error using [errors.Join]:
//
//   - [ErrFailedToParseDBConfig] - Invalid connection string format
//   - [ErrFailedToOpenDBConnection] - Connection failed after all retries
//   - [ErrUnknownService] - Acquire for a name with no pool
//   - [ErrHandleClosed] - Use of a handle after Close
//   - [ErrHealthcheckFailed] - Ping failed on at least one pool
package db
