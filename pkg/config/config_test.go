package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/pkg/config"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := config.Load()
		require.NoError(t, err)
		require.Equal(t, ":8080", cfg.Server.Address)
		require.Equal(t, "routes.yaml", cfg.Server.RoutesFile)
		require.Equal(t, config.StoreMemory, cfg.Session.Store)
		require.Equal(t, "__sid", cfg.Session.CookieName)
		require.Equal(t, "info", cfg.Log.Level)
	})

	t.Run("reads named database services", func(t *testing.T) {
		t.Setenv("DATABASE_SERVICES", "billing=postgres://b/db,reporting=postgres://r/db")

		cfg, err := config.Load()
		require.NoError(t, err)
		require.Equal(t, map[string]string{
			"billing":   "postgres://b/db",
			"reporting": "postgres://r/db",
		}, cfg.DB.DSNs())
	})

	t.Run("redis store requires URL", func(t *testing.T) {
		t.Setenv("SESSION_STORE", "redis")

		_, err := config.Load()
		require.ErrorIs(t, err, config.ErrInvalid)
	})

	t.Run("rejects unknown store", func(t *testing.T) {
		t.Setenv("SESSION_STORE", "disk")

		_, err := config.Load()
		require.ErrorIs(t, err, config.ErrInvalid)
	})

	t.Run("rejects bad address", func(t *testing.T) {
		t.Setenv("HTTP_ADDRESS", "8080")

		_, err := config.Load()
		require.ErrorIs(t, err, config.ErrInvalid)
	})

	t.Run("rejects bad sweep schedule", func(t *testing.T) {
		t.Setenv("SESSION_SWEEP_SCHEDULE", "every now and then")

		_, err := config.Load()
		require.ErrorIs(t, err, config.ErrInvalid)
	})
}
