package internal

import (
	"cmp"
	"slices"
	"strings"
)

// Phase identifies when a filter runs relative to the action.
type Phase uint8

const (
	// PhaseBefore filters run before the action. A fault skips the action.
	PhaseBefore Phase = iota
	// PhaseAfter filters run only when the action completed.
	PhaseAfter
	// PhaseCatch filters run only when the action failed.
	PhaseCatch
	// PhaseFinally filters always run, after the action and after/catch filters.
	PhaseFinally

	phaseCount
)

func (p Phase) String() string {
	switch p {
	case PhaseBefore:
		return "before"
	case PhaseAfter:
		return "after"
	case PhaseCatch:
		return "catch"
	case PhaseFinally:
		return "finally"
	default:
		return "unknown"
	}
}

// Phases lists all phases in execution order.
func Phases() []Phase {
	return []Phase{PhaseBefore, PhaseAfter, PhaseCatch, PhaseFinally}
}

// filterConfig collects the options of one filter declaration.
type filterConfig struct {
	only     []string
	unless   []string
	matchers []ErrorMatcher
	priority int
}

// FilterOption configures a filter declaration.
type FilterOption func(*filterConfig)

// Only restricts a before, after or finally filter to the named actions.
// Bare names refer to actions of the same handler; "handler.action" names
// are matched as given.
//
// Names are checked in order and each one overwrites the verdict of the
// previous, so with several names only the last one decides. Declare one
// filter per action when more than one action needs it.
func Only(actions ...string) FilterOption {
	return func(c *filterConfig) {
		c.only = append(c.only, actions...)
	}
}

// Unless skips a before, after or finally filter for the named actions.
// Unless wins over Only.
func Unless(actions ...string) FilterOption {
	return func(c *filterConfig) {
		c.unless = append(c.unless, actions...)
	}
}

// Priority sets the filter priority. Lower values run first; equal
// priorities keep declaration order. Defaults to 0.
func Priority(p int) FilterOption {
	return func(c *filterConfig) {
		c.priority = p
	}
}

// Errors restricts a catch filter to errors accepted by at least one matcher.
// Without matchers a catch filter receives every error except recovered panics.
func Errors(matchers ...ErrorMatcher) FilterOption {
	return func(c *filterConfig) {
		for _, m := range matchers {
			if m != nil {
				c.matchers = append(c.matchers, m)
			}
		}
	}
}

// filterFunc is the type-erased body of a filter. cause is nil outside the catch phase.
type filterFunc func(inst any, c Context, cause error) error

// Filter is the frozen descriptor of one declared filter.
type Filter struct {
	run      filterFunc
	name     string
	only     []string
	unless   []string
	matchers []ErrorMatcher
	priority int
	order    int
	phase    Phase
}

// Name returns the member name the filter was declared with.
func (f *Filter) Name() string { return f.name }

// Phase returns the phase the filter runs in.
func (f *Filter) Phase() Phase { return f.phase }

// Priority returns the filter priority.
func (f *Filter) Priority() int { return f.priority }

// Only returns the qualified only-list.
func (f *Filter) Only() []string { return slices.Clone(f.only) }

// Unless returns the qualified unless-list.
func (f *Filter) Unless() []string { return slices.Clone(f.unless) }

// appliesTo reports whether a before, after or finally filter runs for the
// qualified action name.
func (f *Filter) appliesTo(action string) bool {
	skip := false
	for _, name := range f.only {
		skip = name != action
	}
	if slices.Contains(f.unless, action) {
		return false
	}
	return !skip
}

// catches reports whether a catch filter is selected for err.
func (f *Filter) catches(err error) bool {
	if len(f.matchers) == 0 {
		return !IsPanicError(err)
	}
	for _, m := range f.matchers {
		if m(err) {
			return true
		}
	}
	return false
}

// qualify prefixes bare action names with the owning handler name.
func qualify(handler string, names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if !strings.Contains(n, ".") {
			n = handler + "." + n
		}
		out = append(out, n)
	}
	return out
}

// sortFilters orders filters by ascending priority, keeping declaration order on ties.
func sortFilters(filters []*Filter) {
	slices.SortStableFunc(filters, func(a, b *Filter) int {
		return cmp.Or(cmp.Compare(a.priority, b.priority), cmp.Compare(a.order, b.order))
	})
}
