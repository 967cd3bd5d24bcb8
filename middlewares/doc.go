// Package middlewares provides dispatch middleware that wraps every
// dispatched action, filters and teardown included.
//
// # Request ID
//
// RequestID assigns an ID to each request, reusing an upstream X-Request-ID
// or X-Correlation-ID header when present and generating a UUID otherwise.
// Pair it with RequestIDExtractor to add request_id to every log entry:
//
//	app := dispatch.New(
//	    dispatch.WithLogger("web", middlewares.RequestIDExtractor()),
//	    dispatch.WithMiddleware(middlewares.RequestID()),
//	)
//
// # Recover
//
// The engine recovers panics raised by actions and filters. Recover covers
// the rest of the middleware stack and hands a PanicError to the ErrorHandler:
//
//	dispatch.WithMiddleware(
//	    middlewares.Recover(),
//	    middlewares.RequestID(),
//	)
//
// # Access Log
//
// AccessLog writes one entry per dispatched request with the resolved action,
// status, response size and duration. Failed requests are logged at error level.
package middlewares
