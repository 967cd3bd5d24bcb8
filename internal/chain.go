package internal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"
)

// invocation runs one action inside the filter chains of its handler type.
type invocation struct {
	handler *HandlerType
	inst    any
	action  actionFunc
	ctx     *requestContext
	// qualified is "handler.method", the name only/unless lists are matched against.
	qualified string
}

// execute drives the request through its lifecycle:
// flash restore, before, action, after or catch, finally, flash save, teardown.
//
// A stop from the action or a before-filter returns nil. A fault from either
// is offered to the catch chain and then returned. Teardown runs exactly once
// on every path, panics included.
func (inv *invocation) execute() error {
	c := inv.ctx
	defer inv.teardown()

	restoreFlash(c)
	defer inv.runFinally()

	if err := inv.runBefore(); err != nil {
		if IsStopped(err) {
			c.logger.InfoContext(c, "request stopped by filter",
				slog.String("action", inv.qualified),
				slog.String("reason", err.Error()),
			)
			return nil
		}
		inv.runCatch(err)
		return err
	}

	out := inv.invoke()
	switch {
	case out.IsStopped():
		c.logger.InfoContext(c, "request stopped",
			slog.String("action", inv.qualified),
			slog.String("reason", out.Reason()),
		)
		return nil
	case out.IsFailed():
		inv.runCatch(out.Err())
		return out.Err()
	}

	if err := inv.runAfter(); err != nil {
		if IsStopped(err) {
			c.logger.InfoContext(c, "request stopped by after filter",
				slog.String("action", inv.qualified),
				slog.String("reason", err.Error()),
			)
			return nil
		}
		return err
	}
	return nil
}

// invoke calls the action, turning a panic into a failed outcome.
// http.ErrAbortHandler is re-raised so the server aborts the response.
func (inv *invocation) invoke() (out Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			out = Failed(&PanicError{Value: rec, Stack: debug.Stack()})
		}
	}()
	inv.trace("action", "invoke")
	return inv.action(inv.inst, inv.ctx)
}

func (inv *invocation) runBefore() error {
	for _, f := range inv.handler.chains[PhaseBefore] {
		if !f.appliesTo(inv.qualified) {
			inv.trace(f.name, "skip before")
			continue
		}
		inv.trace(f.name, "before")
		if err := inv.call(f, nil); err != nil {
			return err
		}
	}
	return nil
}

func (inv *invocation) runAfter() error {
	for _, f := range inv.handler.chains[PhaseAfter] {
		if !f.appliesTo(inv.qualified) {
			inv.trace(f.name, "skip after")
			continue
		}
		inv.trace(f.name, "after")
		if err := inv.call(f, nil); err != nil {
			return err
		}
	}
	return nil
}

// runCatch runs every catch filter selected for cause. Their own faults are
// logged; none of them suppresses cause.
func (inv *invocation) runCatch(cause error) {
	c := inv.ctx
	for _, f := range inv.handler.chains[PhaseCatch] {
		if !f.catches(cause) {
			inv.trace(f.name, "skip catch")
			continue
		}
		inv.trace(f.name, "catch")
		if err := inv.call(f, cause); err != nil {
			c.logger.ErrorContext(c, "catch filter failed",
				slog.String("action", inv.qualified),
				slog.String("filter", f.name),
				slog.Any("error", err),
			)
		}
	}
}

// runFinally runs every applicable finally filter. Faults are logged and dropped.
func (inv *invocation) runFinally() {
	c := inv.ctx
	for _, f := range inv.handler.chains[PhaseFinally] {
		if !f.appliesTo(inv.qualified) {
			inv.trace(f.name, "skip finally")
			continue
		}
		inv.trace(f.name, "finally")
		if err := inv.call(f, nil); err != nil {
			c.logger.ErrorContext(c, "finally filter failed",
				slog.String("action", inv.qualified),
				slog.String("filter", f.name),
				slog.Any("error", err),
			)
		}
	}
}

// call runs one filter, converting a panic to *PanicError.
func (inv *invocation) call(f *Filter, cause error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err = fmt.Errorf("filter %s: %w", f.name, &PanicError{Value: rec, Stack: debug.Stack()})
		}
	}()
	return f.run(inv.inst, inv.ctx, cause)
}

// teardown saves flash, persists the session and releases resources.
func (inv *invocation) teardown() {
	c := inv.ctx
	ctx := context.WithoutCancel(c.Context())

	saveFlash(c)
	if c.sessionManager != nil && c.session != nil {
		if err := c.sessionManager.Persist(ctx, c.session); err != nil {
			c.logger.ErrorContext(ctx, "session persist failed",
				slog.String("action", inv.qualified),
				slog.Any("error", err),
			)
		}
	}
	c.resources.Teardown(ctx)

	inv.inst = nil
	inv.action = nil
}

func (inv *invocation) trace(name, step string) {
	if !inv.ctx.verbose {
		return
	}
	inv.ctx.logger.DebugContext(inv.ctx, "filter trace",
		slog.String("action", inv.qualified),
		slog.String("member", name),
		slog.String("step", step),
		slog.Duration("elapsed", time.Since(inv.ctx.startedAt)),
	)
}
