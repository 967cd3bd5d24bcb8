package db

import "context"

// Shutdown returns a function that closes every service pool.
// Use with dispatch.ShutdownHook().
//
// Example:
//
//	app.Run(dispatch.ShutdownHook(db.Shutdown(services)))
func Shutdown(s *Services) func(ctx context.Context) error {
	return func(context.Context) error {
		s.Close()
		return nil
	}
}
