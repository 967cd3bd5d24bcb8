// Package internal provides the core types and implementation of the dispatch engine.
//
// This package is internal and should not be used directly. Import
// "github.com/dmitrymomot/dispatch" instead, which re-exports the public API.
//
// # Core Types
//
//   - App: resolves a request path through the RouteTable, instantiates the
//     handler and runs the action inside its filter chains
//   - RouteTable: immutable path to "handler.method" mapping, loaded from YAML or a map
//   - HandlerType: frozen registration of one handler built by Register
//   - Registry: the set of HandlerTypes, read-only after New
//   - Context: per-request state bag; embeds context.Context
//   - Outcome: Completed, Stopped or Failed, returned by every action
//   - Filter: one before, after, catch or finally declaration with its
//     only/unless lists, error matchers and priority
//   - Resources: request-scoped cache of database handles
//
// # Registration
//
// Handlers are plain types with a factory. Actions and filters are method
// expressions:
//
//	type Notes struct{ repo *Repo }
//
//	func NewNotes() (*Notes, error) { return &Notes{repo: repo}, nil }
//
//	notes := internal.Register("notes", NewNotes,
//	    internal.Before("auth", (*Notes).RequireUser, internal.Unless("index")),
//	    internal.Action("index", (*Notes).Index),
//	    internal.Action("show", (*Notes).Show),
//	    internal.Finally("audit", (*Notes).Audit),
//	)
//
// Filter names are never routable: a route pointing at "notes.auth" falls
// through to the fallback.
//
// # Request Lifecycle
//
// For each request the App runs, in order:
//
//  1. flash restore: the payload queued by the previous request becomes attributes
//  2. before filters, ascending priority; an error skips the action and after filters
//  3. the action
//  4. after filters when the action completed, or catch filters when it or a before filter failed
//  5. finally filters, always; their errors are logged
//  6. flash save, session persistence and resource teardown, exactly once
//
// A Stopped outcome, or Halt returned by a before filter, ends the request
// quietly. A failure is returned to the ErrorHandler after the catch chain
// ran, unless a catch filter already wrote the response.
//
// # Resources
//
// Context.Resource returns one handle per service name per request, opened
// with auto-commit disabled. Teardown rolls every handle back and closes it.
// Commit explicitly to keep changes:
//
//	func (h *Notes) Save(c internal.Context) internal.Outcome {
//	    tx, err := internal.ResourceAs[*db.Handle](c, "default")
//	    if err != nil {
//	        return internal.Failed(err)
//	    }
//	    if _, err := tx.Exec(c, "INSERT INTO notes (body) VALUES ($1)", c.Param("body")); err != nil {
//	        return internal.Failed(err)
//	    }
//	    return internal.Result(tx.Commit(c))
//	}
package internal
