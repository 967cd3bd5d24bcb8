package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/dispatch"
	"github.com/dmitrymomot/dispatch/pkg/db"
)

// ErrNoNote is returned when a note id matches nothing.
var ErrNoNote = errors.New("note not found")

type note struct {
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Body      string    `db:"body" json:"body"`
	ID        int64     `db:"id" json:"id"`
}

// Notes is the sample handler served by dispatchd.
type Notes struct {
	service string
}

func newNotes() (*Notes, error) {
	return &Notes{service: db.DefaultService}, nil
}

func notesHandler() *dispatch.HandlerType {
	return dispatch.Register("notes", newNotes,
		dispatch.Before("requireBody", (*Notes).RequireBody, dispatch.Only("create")),
		dispatch.Action("index", (*Notes).Index),
		dispatch.Action("show", (*Notes).Show),
		dispatch.Action("create", (*Notes).Create),
		dispatch.Catch("notFound", (*Notes).NotFound, dispatch.Errors(dispatch.Is(ErrNoNote))),
		dispatch.Finally("audit", (*Notes).Audit),
	)
}

// RequireBody rejects create requests without a body parameter.
func (h *Notes) RequireBody(c dispatch.Context) error {
	if c.Param("body") == "" {
		return dispatch.NewHTTPError(http.StatusBadRequest, "body is required")
	}
	return nil
}

func (h *Notes) Index(c dispatch.Context) dispatch.Outcome {
	tx, err := dispatch.ResourceAs[*db.Handle](c, h.service)
	if err != nil {
		return dispatch.Failed(err)
	}
	rows, err := tx.Query(c, "SELECT id, body, created_at FROM notes ORDER BY id DESC LIMIT 50")
	if err != nil {
		return dispatch.Failed(err)
	}
	notes, err := pgx.CollectRows(rows, pgx.RowToStructByName[note])
	if err != nil {
		return dispatch.Failed(err)
	}

	msg, _ := dispatch.AttributeAs[string](c, "msg")
	return dispatch.Result(c.JSON(http.StatusOK, map[string]any{
		"notes": notes,
		"flash": msg,
	}))
}

func (h *Notes) Show(c dispatch.Context) dispatch.Outcome {
	id := dispatch.ParamAs[int64](c, "id")
	tx, err := dispatch.ResourceAs[*db.Handle](c, h.service)
	if err != nil {
		return dispatch.Failed(err)
	}

	var n note
	err = tx.QueryRow(c, "SELECT id, body, created_at FROM notes WHERE id = $1", id).
		Scan(&n.ID, &n.Body, &n.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return dispatch.Failed(ErrNoNote)
	}
	if err != nil {
		return dispatch.Failed(err)
	}
	return dispatch.Result(c.JSON(http.StatusOK, n))
}

// Create stores a note, commits, and redirects to the index with a flash message.
func (h *Notes) Create(c dispatch.Context) dispatch.Outcome {
	tx, err := dispatch.ResourceAs[*db.Handle](c, h.service)
	if err != nil {
		return dispatch.Failed(err)
	}
	if _, err := tx.Exec(c, "INSERT INTO notes (body) VALUES ($1)", c.Param("body")); err != nil {
		return dispatch.Failed(err)
	}
	if err := tx.Commit(c); err != nil {
		return dispatch.Failed(err)
	}
	if err := c.SetFlash("msg", "saved"); err != nil {
		c.LogWarn("flash unavailable", "error", err)
	}
	return dispatch.Result(c.Redirect(http.StatusSeeOther, "/notes"))
}

func (h *Notes) NotFound(c dispatch.Context, _ error) error {
	return c.JSON(http.StatusNotFound, map[string]string{"error": ErrNoNote.Error()})
}

func (h *Notes) Audit(c dispatch.Context) error {
	c.LogDebug("notes action done", "action", c.Action().String())
	return nil
}

// defaultHandler answers requests no route matched.
func defaultHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})
}
