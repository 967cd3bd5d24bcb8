// Package dispatch maps request paths to handler actions and runs each action
// inside an ordered chain of before, after, catch and finally filters, with
// per-request database handles and a one-shot flash scope.
//
// # Quick Start
//
// Register handlers, load a route table and serve:
//
//	notes := dispatch.Register("notes", NewNotes,
//	    dispatch.Before("auth", (*Notes).RequireUser, dispatch.Unless("index")),
//	    dispatch.Action("index", (*Notes).Index),
//	    dispatch.Action("save", (*Notes).Save),
//	    dispatch.Catch("invalid", (*Notes).Invalid, dispatch.Errors(dispatch.Is(ErrInvalid))),
//	)
//
//	routes, err := dispatch.LoadRouteTable("routes.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	app := dispatch.New(
//	    dispatch.WithRoutes(routes),
//	    dispatch.WithHandlers(notes),
//	    dispatch.WithSession(session.NewMemoryStore()),
//	)
//	if err := app.Run(dispatch.Address(":8080")); err != nil {
//	    log.Fatal(err)
//	}
//
// A route file maps paths to "handler.method" and may name a fallback:
//
//	fallback: default
//	routes:
//	  /notes: notes.index
//	  /notes/save: notes.save
//
// # Actions and Outcomes
//
// Actions take the handler and a Context and return an Outcome:
//
//	func (h *Notes) Save(c dispatch.Context) dispatch.Outcome {
//	    if c.Param("body") == "" {
//	        return dispatch.Failed(ErrInvalid)
//	    }
//	    if err := c.SetFlash("msg", "saved"); err != nil {
//	        return dispatch.Failed(err)
//	    }
//	    return dispatch.Result(c.Redirect(http.StatusSeeOther, "/notes"))
//	}
//
// Stopped ends the request without running after or catch filters.
// Failed runs the matching catch filters and then hands the error to the
// ErrorHandler, unless a catch filter already wrote the response.
//
// # Filters
//
// Filters run in ascending Priority; equal priorities keep declaration order.
// Only and Unless restrict before, after and finally filters by action name.
// Errors restricts catch filters. Finally filters always run and their
// errors are only logged.
//
// # Flash
//
// Values queued with Context.SetFlash are stored in the session at the end of
// the request and appear as attributes at the start of the next one:
//
//	msg, _ := dispatch.AttributeAs[string](c, "msg")
//
// # Resources
//
// Context.Resource returns one handle per service name per request. Every
// handle is rolled back and closed at the end of the request; commit to keep
// changes. See pkg/db for the PostgreSQL connector.
package dispatch
