package internal

// outcomeKind enumerates how an action finished.
type outcomeKind uint8

const (
	outcomeCompleted outcomeKind = iota
	outcomeStopped
	outcomeFailed
)

// Outcome is the result of an action.
// The zero value is a successful completion.
type Outcome struct {
	err    error
	reason string
	kind   outcomeKind
}

// Completed reports a successful action. After-filters run.
func Completed() Outcome {
	return Outcome{kind: outcomeCompleted}
}

// Stopped reports an intentional abort. After- and catch-filters are skipped;
// finally-filters and teardown still run.
func Stopped(reason string) Outcome {
	return Outcome{kind: outcomeStopped, reason: reason}
}

// Failed reports a fault. Catch-filters run and err is returned to the caller.
// A nil err is treated as Completed; an err wrapping ErrStopped as Stopped.
func Failed(err error) Outcome {
	if err == nil {
		return Completed()
	}
	if IsStopped(err) {
		return Outcome{kind: outcomeStopped, reason: err.Error()}
	}
	return Outcome{kind: outcomeFailed, err: err}
}

// Result converts a plain error return into an Outcome.
//
// Example:
//
//	func (h *Notes) Save(c dispatch.Context) dispatch.Outcome {
//	    return dispatch.Result(h.repo.Save(c, c.Param("body")))
//	}
func Result(err error) Outcome {
	return Failed(err)
}

// IsCompleted reports whether the action finished normally.
func (o Outcome) IsCompleted() bool { return o.kind == outcomeCompleted }

// IsStopped reports whether the action aborted intentionally.
func (o Outcome) IsStopped() bool { return o.kind == outcomeStopped }

// IsFailed reports whether the action faulted.
func (o Outcome) IsFailed() bool { return o.kind == outcomeFailed }

// Err returns the fault, or nil unless the outcome is failed.
func (o Outcome) Err() error { return o.err }

// Reason returns the stop reason.
func (o Outcome) Reason() string { return o.reason }
