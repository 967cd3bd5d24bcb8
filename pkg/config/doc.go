// Package config loads dispatchd settings from environment variables with
// caarlos0/env and validates them with ozzo-validation.
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//
// Nested sections reuse the env-tagged configs of pkg/logger, pkg/db and pkg/redis.
package config
