package internal

import (
	"errors"
	"log/slog"

	"github.com/dmitrymomot/dispatch/pkg/session"
)

// restoreFlash moves the flash payload left by the previous request into
// request attributes and empties the session slot.
//
// Two concurrent requests on one session may both see the payload, or both
// miss it; the slot is not locked across requests.
func restoreFlash(c *requestContext) {
	if c.sessionManager == nil {
		return
	}
	sess, err := c.Session()
	if err != nil {
		c.logger.WarnContext(c, "flash restore: load session failed", slog.Any("error", err))
		return
	}
	if sess == nil {
		return
	}
	for k, v := range sess.TakeFlash() {
		c.attributes[k] = v
	}
}

// saveFlash stores queued flash values in the session for the next request.
// Nothing is written when the queue is empty. An invalidated session is logged
// and skipped.
func saveFlash(c *requestContext) {
	if len(c.flash) == 0 {
		return
	}
	if c.session == nil {
		c.logger.WarnContext(c, "flash dropped: no session", slog.Int("entries", len(c.flash)))
		return
	}
	if err := c.session.PutFlash(c.flash); err != nil {
		if errors.Is(err, session.ErrInvalidated) {
			c.logger.InfoContext(c, "flash not saved: session invalidated", slog.Int("entries", len(c.flash)))
			return
		}
		c.logger.ErrorContext(c, "flash save failed", slog.Any("error", err))
	}
}
