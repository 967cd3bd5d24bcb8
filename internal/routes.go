package internal

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Target is the handler name and method a route points at.
type Target struct {
	Handler string
	Method  string
}

// String returns the "handler.method" form.
func (t Target) String() string {
	return t.Handler + "." + t.Method
}

// ParseTarget splits "handler.method" on the last dot.
func ParseTarget(s string) (Target, error) {
	s = strings.TrimSpace(s)
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalidTarget, s)
	}
	return Target{Handler: s[:i], Method: s[i+1:]}, nil
}

// RouteTable maps normalized paths to targets. It is immutable once built.
type RouteTable struct {
	routes   map[string]Target
	fallback string
}

// routeFile is the YAML layout of a route file.
//
//	fallback: default
//	routes:
//	  /notes: notes.index
//	  /notes/show: notes.show
type routeFile struct {
	Routes   map[string]string `yaml:"routes"`
	Fallback string            `yaml:"fallback"`
}

// NewRouteTable builds a table from path to "handler.method" entries.
// Paths are normalized; two keys that normalize to the same path are an error.
func NewRouteTable(entries map[string]string) (*RouteTable, error) {
	rt := &RouteTable{routes: make(map[string]Target, len(entries))}
	for path, raw := range entries {
		target, err := ParseTarget(raw)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", path, err)
		}
		key := NormalizePath(path, "")
		if prev, dup := rt.routes[key]; dup && prev != target {
			return nil, fmt.Errorf("%w: %q maps to both %s and %s", ErrInvalidTarget, key, prev, target)
		}
		rt.routes[key] = target
	}
	return rt, nil
}

// ParseRouteTable decodes a YAML route document.
func ParseRouteTable(data []byte) (*RouteTable, error) {
	var f routeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse route file: %w", err)
	}
	rt, err := NewRouteTable(f.Routes)
	if err != nil {
		return nil, err
	}
	rt.fallback = strings.TrimSpace(f.Fallback)
	return rt, nil
}

// LoadRouteTable reads a YAML route file from disk.
func LoadRouteTable(path string) (*RouteTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route file: %w", err)
	}
	return ParseRouteTable(data)
}

// Resolve returns the target for a normalized path.
func (rt *RouteTable) Resolve(path string) (Target, error) {
	if rt == nil {
		return Target{}, fmt.Errorf("%w: %s", ErrRouteNotFound, path)
	}
	t, ok := rt.routes[path]
	if !ok {
		return Target{}, fmt.Errorf("%w: %s", ErrRouteNotFound, path)
	}
	return t, nil
}

// Fallback returns the fallback handler name declared in the route file.
func (rt *RouteTable) Fallback() string {
	if rt == nil {
		return ""
	}
	return rt.fallback
}

// Paths returns all route paths, sorted.
func (rt *RouteTable) Paths() []string {
	if rt == nil {
		return nil
	}
	paths := make([]string, 0, len(rt.routes))
	for p := range rt.routes {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Len returns the number of routes.
func (rt *RouteTable) Len() int {
	if rt == nil {
		return 0
	}
	return len(rt.routes)
}

// NormalizePath joins base and extra and collapses repeated slashes.
// The result always starts with "/". A trailing slash is kept.
func NormalizePath(base, extra string) string {
	joined := "/" + base + extra
	var b strings.Builder
	b.Grow(len(joined))
	prevSlash := false
	for i := 0; i < len(joined); i++ {
		ch := joined[i]
		if ch == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(ch)
	}
	return b.String()
}
