package main

import (
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"study-planner-lite/internal/account"
	"study-planner-lite/internal/backend"
	"study-planner-lite/internal/config"
	"study-planner-lite/internal/hub"
	"study-planner-lite/internal/logging"
	"study-planner-lite/internal/resource"
	"study-planner-lite/internal/store"
	"study-planner-lite/internal/supabase"
)

type app struct {
	cfg      config.Config
	logger   zerolog.Logger
	loader   *config.Loader
	accessor *backend.Accessor
	accounts *account.Service
	store    *store.Store
	hub      *hub.Hub
}

func newLogger(cfg config.Config, w io.Writer) (zerolog.Logger, error) {
	return logging.New(w, cfg.LogLevel, cfg.Env == config.EnvLocal)
}

// newApp wires the components. Nothing touches the network until the
// loader runs.
func newApp(cfg config.Config, logger zerolog.Logger, process config.Env) (*app, error) {
	injected, err := config.ReadEnvFile(cfg.EnvConfigFile)
	if err != nil {
		return nil, err
	}
	env := config.Layered(process, injected)

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	// The development file is never consulted in production.
	var dev resource.Resource
	if cfg.Env != config.EnvProd && cfg.DevEnvFile != "" {
		dev = resource.New(cfg.DevEnvFile, httpClient)
	}

	loader := config.NewLoader(env, dev, logger.With().Str("component", "env").Logger())
	accessor := backend.NewAccessor(loader, nil, logger.With().Str("component", "backend").Logger(),
		supabase.WithTimeout(cfg.RequestTimeout))

	accounts := account.NewService(account.Options{
		Backend:      accessor,
		SiteURL:      cfg.SiteURL,
		LoginPath:    cfg.LoginPath,
		ProfileDelay: cfg.ProfileDelay,
		Logger:       logger,
	})

	st := store.New(store.Options{
		Backend:  accessor,
		Identity: accounts,
		Fallback: store.Fallback{
			Events: resource.New(cfg.FallbackLocation(cfg.EventsFallback), httpClient),
			Todos:  resource.New(cfg.FallbackLocation(cfg.TodosFallback), httpClient),
		},
		Logger: logger,
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		loader:   loader,
		accessor: accessor,
		accounts: accounts,
		store:    st,
		hub:      hub.New(),
	}, nil
}

func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
