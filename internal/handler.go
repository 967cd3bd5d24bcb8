package internal

import (
	"fmt"
	"runtime/debug"
	"slices"
	"strings"
)

// HandlerFunc is the signature of the dispatch boundary.
// The engine itself is a HandlerFunc; Middleware wraps it.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc to add cross-cutting concerns around the
// whole dispatch, including filters and teardown.
//
// Example:
//
//	func Auth(next dispatch.HandlerFunc) dispatch.HandlerFunc {
//	    return func(c dispatch.Context) error {
//	        if c.Cookie("auth") == "" {
//	            return c.Redirect(http.StatusFound, "/login")
//	        }
//	        return next(c)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler handles action faults that reach the dispatch boundary
// without a complete response.
type ErrorHandler func(Context, error) error

// memberKind tells actions apart from the four filter phases.
type memberKind uint8

const (
	memberAction memberKind = iota
	memberFilter
)

// Member is one action or filter declaration of handler type H.
// Build members with Action, Before, After, Catch and Finally.
type Member[H any] struct {
	action func(H, Context) Outcome
	filter func(H, Context, error) error
	name   string
	opts   []FilterOption
	kind   memberKind
	phase  Phase
}

// Action declares a routable method.
//
// Example:
//
//	dispatch.Action("show", (*Notes).Show)
func Action[H any](name string, fn func(H, Context) Outcome) Member[H] {
	return Member[H]{kind: memberAction, name: name, action: fn}
}

// Before declares a filter that runs ahead of the action.
// Returning an error skips the action; Halt stops the request quietly.
func Before[H any](name string, fn func(H, Context) error, opts ...FilterOption) Member[H] {
	return filterMember(PhaseBefore, name, fn, opts)
}

// After declares a filter that runs when the action completed.
func After[H any](name string, fn func(H, Context) error, opts ...FilterOption) Member[H] {
	return filterMember(PhaseAfter, name, fn, opts)
}

// Finally declares a filter that always runs. Its errors are logged and dropped.
func Finally[H any](name string, fn func(H, Context) error, opts ...FilterOption) Member[H] {
	return filterMember(PhaseFinally, name, fn, opts)
}

// Catch declares a filter that receives action faults.
// Use Errors to narrow the faults it handles and Priority to order it.
// Only and Unless have no effect on catch filters.
func Catch[H any](name string, fn func(H, Context, error) error, opts ...FilterOption) Member[H] {
	return Member[H]{kind: memberFilter, phase: PhaseCatch, name: name, filter: fn, opts: opts}
}

func filterMember[H any](phase Phase, name string, fn func(H, Context) error, opts []FilterOption) Member[H] {
	var wrapped func(H, Context, error) error
	if fn != nil {
		wrapped = func(h H, c Context, _ error) error { return fn(h, c) }
	}
	return Member[H]{kind: memberFilter, phase: phase, name: name, filter: wrapped, opts: opts}
}

// actionFunc is the type-erased action body.
type actionFunc func(inst any, c Context) Outcome

// HandlerType is the frozen registration of one handler: its factory, its
// actions and its four filter chains already sorted by priority.
type HandlerType struct {
	newInstance func() (any, error)
	err         error
	actions     map[string]actionFunc
	filterNames map[string]struct{}
	name        string
	chains      [phaseCount][]*Filter
}

// Register describes handler type H under name.
// The factory runs once per request; a factory error sends the request to the fallback.
// Declaration errors are reported when the registry is built.
//
// Example:
//
//	notes := dispatch.Register("notes", NewNotes,
//	    dispatch.Before("auth", (*Notes).RequireUser, dispatch.Unless("index")),
//	    dispatch.Action("index", (*Notes).Index),
//	    dispatch.Action("show", (*Notes).Show),
//	    dispatch.Catch("notFound", (*Notes).NotFound, dispatch.Errors(dispatch.Is(ErrNoNote))),
//	)
func Register[H any](name string, factory func() (H, error), members ...Member[H]) *HandlerType {
	ht := &HandlerType{
		name:        strings.TrimSpace(name),
		actions:     make(map[string]actionFunc),
		filterNames: make(map[string]struct{}),
	}
	if ht.name == "" {
		ht.err = fmt.Errorf("%w: empty handler name", ErrInvalidTarget)
		return ht
	}
	if factory == nil {
		ht.err = fmt.Errorf("%w: %s has no factory", ErrInstantiate, ht.name)
		return ht
	}
	ht.newInstance = func() (any, error) {
		h, err := factory()
		if err != nil {
			return nil, err
		}
		return h, nil
	}

	seen := make(map[string]struct{})
	order := 0
	for _, m := range members {
		if m.name == "" {
			ht.err = fmt.Errorf("%w: %s has a member without a name", ErrDuplicateMember, ht.name)
			return ht
		}
		key := fmt.Sprintf("%d:%d:%s", m.kind, m.phase, m.name)
		if _, dup := seen[key]; dup {
			ht.err = fmt.Errorf("%w: %s.%s", ErrDuplicateMember, ht.name, m.name)
			return ht
		}
		seen[key] = struct{}{}

		switch m.kind {
		case memberAction:
			if m.action == nil {
				ht.err = fmt.Errorf("%w: %s.%s has no body", ErrActionNotFound, ht.name, m.name)
				return ht
			}
			fn := m.action
			ht.actions[m.name] = func(inst any, c Context) Outcome {
				return fn(inst.(H), c)
			}
		case memberFilter:
			if m.filter == nil {
				ht.err = fmt.Errorf("%w: %s.%s filter has no body", ErrActionNotFound, ht.name, m.name)
				return ht
			}
			ht.filterNames[m.name] = struct{}{}
			ht.chains[m.phase] = append(ht.chains[m.phase], newFilter(ht.name, m, order))
			order++
		}
	}

	for p := range ht.chains {
		sortFilters(ht.chains[p])
	}
	return ht
}

func newFilter[H any](handler string, m Member[H], order int) *Filter {
	var cfg filterConfig
	for _, opt := range m.opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	fn := m.filter
	f := &Filter{
		name:     m.name,
		phase:    m.phase,
		priority: cfg.priority,
		order:    order,
		run: func(inst any, c Context, cause error) error {
			return fn(inst.(H), c, cause)
		},
	}
	if m.phase == PhaseCatch {
		f.matchers = cfg.matchers
	} else {
		f.only = qualify(handler, cfg.only)
		f.unless = qualify(handler, cfg.unless)
	}
	return f
}

// Name returns the registered handler name.
func (t *HandlerType) Name() string { return t.name }

// Err returns the declaration error, if any.
func (t *HandlerType) Err() error { return t.err }

// Actions returns the routable action names, sorted.
func (t *HandlerType) Actions() []string {
	names := make([]string, 0, len(t.actions))
	for name := range t.actions {
		if _, isFilter := t.filterNames[name]; isFilter {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Chain returns the filters of one phase in execution order.
func (t *HandlerType) Chain(p Phase) []*Filter {
	if p >= phaseCount {
		return nil
	}
	return slices.Clone(t.chains[p])
}

// action resolves a routable member. Filter members are never routable.
func (t *HandlerType) action(method string) (actionFunc, error) {
	if _, isFilter := t.filterNames[method]; isFilter {
		return nil, fmt.Errorf("%w: %s.%s", ErrIneligibleAction, t.name, method)
	}
	fn, ok := t.actions[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrActionNotFound, t.name, method)
	}
	return fn, nil
}

// instantiate builds a fresh handler value, converting factory panics to errors.
func (t *HandlerType) instantiate() (inst any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %s: %w", ErrInstantiate, t.name, &PanicError{Value: rec, Stack: debug.Stack()})
		}
	}()
	inst, err = t.newInstance()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInstantiate, t.name, err)
	}
	return inst, nil
}
