package main

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/dispatch/pkg/config"
	"github.com/dmitrymomot/dispatch/pkg/db"
	"github.com/dmitrymomot/dispatch/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func newMigrateCmd() *cobra.Command {
	var service string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log).With("component", "migrate")

			services, err := db.OpenServices(cmd.Context(), cfg.DB)
			if err != nil {
				return err
			}
			defer services.Close()

			pool, ok := services.Pool(service)
			if !ok {
				return fmt.Errorf("%w: %s", db.ErrUnknownService, service)
			}
			migrations, err := fs.Sub(migrationsFS, "migrations")
			if err != nil {
				return err
			}
			return db.Migrate(cmd.Context(), pool, migrations, cfg.DB.MigrationsTable, log)
		},
	}
	cmd.Flags().StringVarP(&service, "service", "s", db.DefaultService, "service to migrate")
	return cmd
}
