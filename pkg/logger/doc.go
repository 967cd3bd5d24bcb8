// Package logger builds the slog loggers used by the dispatcher.
//
// Every logger is a JSON (or text) handler wrapped by [NewContextHandler],
// which runs [ContextExtractor] functions on each record, so request-scoped
// values such as the request id show up without being passed around:
//
//	log := logger.New(logger.Config{Level: "debug"}, middlewares.RequestIDExtractor())
//	log.InfoContext(ctx, "request processed", slog.Int("status", 200))
//
// [NewWithSentry] additionally forwards warnings and errors to Sentry and
// falls back to local output when SENTRY_DSN is empty or initialization fails.
// [NewNope] discards everything and is the default when no logger is set.
package logger
