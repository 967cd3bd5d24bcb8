package internal

import (
	"errors"
	"fmt"
	"slices"
)

// Registry maps handler names to their frozen registrations.
// It is built once and only read afterwards, so it is safe for concurrent use.
type Registry struct {
	types map[string]*HandlerType
	names []string
}

// NewRegistry builds a registry from handler registrations.
// All declaration errors are reported together.
func NewRegistry(types ...*HandlerType) (*Registry, error) {
	r := &Registry{types: make(map[string]*HandlerType, len(types))}

	var errs []error
	for _, t := range types {
		if t == nil {
			continue
		}
		if t.err != nil {
			errs = append(errs, t.err)
			continue
		}
		if _, dup := r.types[t.name]; dup {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateHandler, t.name))
			continue
		}
		r.types[t.name] = t
		r.names = append(r.names, t.name)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	slices.Sort(r.names)
	return r, nil
}

// Lookup returns the registration for a handler name.
func (r *Registry) Lookup(name string) (*HandlerType, bool) {
	if r == nil {
		return nil, false
	}
	t, ok := r.types[name]
	return t, ok
}

// Names returns the registered handler names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.names)
}

// Resolve finds the handler type and routable action for a target.
func (r *Registry) Resolve(t Target) (*HandlerType, actionFunc, error) {
	ht, ok := r.Lookup(t.Handler)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, t.Handler)
	}
	fn, err := ht.action(t.Method)
	if err != nil {
		return nil, nil, err
	}
	return ht, fn, nil
}
