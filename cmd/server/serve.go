package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"study-planner-lite/internal/config"
	"study-planner-lite/internal/middleware"
	"study-planner-lite/internal/server"
)

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the front end and API",
		Long: `Serve the static front end and the /api routes.

Settings come from the environment; run "server check-env --describe" to
list them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, os.Stdout)
	if err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)

	a, err := newApp(cfg, logger, config.OSEnv())
	if err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(cfg.AuthRateLimit, time.Minute)

	router := server.NewRouter(server.Deps{
		Config:      cfg,
		Loader:      a.loader,
		Store:       a.store,
		Accounts:    a.accounts,
		Hub:         a.hub,
		Logger:      logger,
		AuthLimiter: limiter,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.loader.Load(gctx)
		// Build the client now so the first request does not pay for it.
		if _, err := a.accessor.Client(gctx); err != nil && gctx.Err() == nil {
			logger.Warn().Err(err).Msg("serving without a remote store")
		}
		return nil
	})
	g.Go(func() error {
		return server.Run(gctx, cfg, router, logger)
	})
	return g.Wait()
}
