package db

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Services holds one connection pool per logical service name.
// Pools are shared across requests; Acquire hands out request-scoped handles.
type Services struct {
	pools map[string]*pgxpool.Pool
}

// NewServices wraps already opened pools.
func NewServices(pools map[string]*pgxpool.Pool) *Services {
	return &Services{pools: maps.Clone(pools)}
}

// OpenServices connects every service configured in cfg.
// On failure the pools opened so far are closed.
func OpenServices(ctx context.Context, cfg Config) (*Services, error) {
	dsns := cfg.DSNs()
	if len(dsns) == 0 {
		return nil, ErrNoServices
	}

	s := &Services{pools: make(map[string]*pgxpool.Pool, len(dsns))}
	for _, name := range slices.Sorted(maps.Keys(dsns)) {
		pool, err := Connect(ctx, dsns[name], cfg)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("service %s: %w", name, err)
		}
		s.pools[name] = pool
	}
	return s, nil
}

// Acquire checks out a connection for service. The caller owns the handle
// and must Close it to return the connection to the pool.
func (s *Services) Acquire(ctx context.Context, service string) (*Handle, error) {
	pool, ok := s.pools[service]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, service)
	}
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return newHandle(conn), nil
}

// Pool returns the pool of a service.
func (s *Services) Pool(service string) (*pgxpool.Pool, bool) {
	pool, ok := s.pools[service]
	return pool, ok
}

// Names returns the configured service names, sorted.
func (s *Services) Names() []string {
	return slices.Sorted(maps.Keys(s.pools))
}

// Close closes every pool.
func (s *Services) Close() {
	for _, pool := range s.pools {
		pool.Close()
	}
}

// Healthcheck returns a closure that pings every service pool.
func (s *Services) Healthcheck() func(context.Context) error {
	return func(ctx context.Context) error {
		var errs []error
		for _, name := range s.Names() {
			if err := s.pools[name].Ping(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
		if len(errs) > 0 {
			return errors.Join(ErrHealthcheckFailed, errors.Join(errs...))
		}
		return nil
	}
}
