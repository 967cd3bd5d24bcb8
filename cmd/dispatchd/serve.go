package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/dispatch"
	"github.com/dmitrymomot/dispatch/middlewares"
	"github.com/dmitrymomot/dispatch/pkg/config"
	"github.com/dmitrymomot/dispatch/pkg/db"
	"github.com/dmitrymomot/dispatch/pkg/logger"
	"github.com/dmitrymomot/dispatch/pkg/redis"
	"github.com/dmitrymomot/dispatch/pkg/session"
)

func newServeCmd() *cobra.Command {
	var routesFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if routesFile != "" {
				cfg.Server.RoutesFile = routesFile
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&routesFile, "routes", "r", "", "route file path (overrides DISPATCH_ROUTES_FILE)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log := logger.NewWithSentry(cfg.Log, middlewares.RequestIDExtractor()).With("component", "dispatchd")

	routes, err := dispatch.LoadRouteTable(cfg.Server.RoutesFile)
	if err != nil {
		return err
	}

	opts := []dispatch.Option{
		dispatch.WithCustomLogger(log),
		dispatch.WithRoutes(routes),
		dispatch.WithHandlers(notesHandler()),
		dispatch.WithNamedHandler("default", defaultHandler()),
		dispatch.WithContextPath(cfg.Server.ContextPath),
		dispatch.WithFallbackName(cfg.Server.FallbackName),
		dispatch.WithVerbose(cfg.Server.Verbose),
		dispatch.WithMiddleware(
			middlewares.Recover(),
			middlewares.RequestID(),
			middlewares.AccessLog(),
		),
	}
	if cfg.Server.StaticDir != "" {
		opts = append(opts, dispatch.WithStaticFiles(os.DirFS(cfg.Server.StaticDir), "."))
	}
	runOpts := []dispatch.RunOption{
		dispatch.WithContext(ctx),
		dispatch.Address(cfg.Server.Address),
		dispatch.ShutdownTimeout(cfg.Server.ShutdownTimeout),
		dispatch.ShutdownHook(logger.FlushSentry(2 * time.Second)),
	}

	backend, err := openSessionStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	runOpts = append(runOpts, backend.runOpts...)
	checks := backend.checks
	opts = append(opts, dispatch.WithSession(backend.store,
		dispatch.WithSessionCookieName(cfg.Session.CookieName),
		dispatch.WithSessionMaxAge(cfg.Session.MaxAge),
		dispatch.WithSessionSecure(cfg.Session.Secure),
	))

	if len(cfg.DB.DSNs()) > 0 {
		services, err := db.OpenServices(ctx, cfg.DB)
		if err != nil {
			return err
		}
		opts = append(opts, dispatch.WithConnector(dispatch.ConnectorFunc(
			func(ctx context.Context, name string) (dispatch.Handle, error) {
				return services.Acquire(ctx, name)
			},
		)))
		checks = append(checks, dispatch.WithReadinessCheck("db", services.Healthcheck()))
		runOpts = append(runOpts, dispatch.ShutdownHook(db.Shutdown(services)))
	} else {
		log.Warn("no database services configured; Context.Resource is disabled")
	}
	opts = append(opts, dispatch.WithHealthChecks(checks...))

	app, err := dispatch.Build(opts...)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	return app.Run(runOpts...)
}

type sessionBackend struct {
	store   session.Store
	runOpts []dispatch.RunOption
	checks  []dispatch.HealthOption
}

// openSessionStore returns the configured store with the hooks and checks it needs.
func openSessionStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (*sessionBackend, error) {
	if cfg.Session.Store == config.StoreRedis {
		client, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return &sessionBackend{
			store:   session.NewRedisStore(client, session.WithRedisPrefix(cfg.Session.KeyPrefix)),
			runOpts: []dispatch.RunOption{dispatch.ShutdownHook(redis.Shutdown(client))},
			checks:  []dispatch.HealthOption{dispatch.WithReadinessCheck("redis", redis.Healthcheck(client))},
		}, nil
	}

	store := session.NewMemoryStore()
	if cfg.Session.SweepSchedule == "" {
		return &sessionBackend{store: store}, nil
	}
	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.Session.SweepSchedule, func() {
		if n := store.Sweep(time.Now()); n > 0 {
			log.Debug("expired sessions swept", slog.Int("count", n))
		}
	}); err != nil {
		return nil, fmt.Errorf("session sweep schedule: %w", err)
	}
	return &sessionBackend{store: store, runOpts: []dispatch.RunOption{
		dispatch.StartupHook(func(context.Context) error {
			sweeper.Start()
			return nil
		}),
		dispatch.ShutdownHook(func(ctx context.Context) error {
			select {
			case <-sweeper.Stop().Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}),
	}}, nil
}
