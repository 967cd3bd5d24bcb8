// Package health serves liveness and readiness probes.
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//	    "postgres": services.Healthcheck(),
//	    "redis":    redis.Healthcheck(client),
//	}, health.WithTimeout(3*time.Second)))
//
// Readiness checks run in parallel through an errgroup under one timeout.
package health
