// Package main is the Trakker terminal client.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nhle/trakker/internal/api"
	"github.com/nhle/trakker/internal/app"
	"github.com/nhle/trakker/internal/auth"
	"github.com/nhle/trakker/internal/cache"
	"github.com/nhle/trakker/internal/credential"
	"github.com/nhle/trakker/internal/logger"
	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/service"
	"github.com/nhle/trakker/internal/session"
	"github.com/nhle/trakker/internal/store"
	appsync "github.com/nhle/trakker/internal/sync"
	"github.com/nhle/trakker/internal/theme"
)

// persistDebounce batches cache writes to disk.
const persistDebounce = 2 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "trakker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := pflag.String("config", model.DefaultConfigPath(), "path to the config file")
	logLevel := pflag.String("log-level", "", "log level (debug, info, warn, error)")
	apiURL := pflag.String("api-url", "", "API base URL including /api")
	pflag.Parse()

	// A .env file is optional; TRAKKER_* variables may come from it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}

	logFile, err := logger.OpenFile(cfg.Log.Path)
	if err != nil {
		return err
	}
	defer logFile.Close()

	log := logger.New(logger.Config{
		Writer: logFile,
		Format: cfg.Log.Format,
		Level:  logger.ParseLevel(cfg.Log.Level),
	})
	log.Info("starting", "api", cfg.API.BaseURL, "config", *configPath)

	ring, err := credential.Open()
	if err != nil {
		return fmt.Errorf("opening keyring: %w", err)
	}
	sessions := session.NewStore(ring)

	db, err := store.NewSQLiteStore(cfg.Cache.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	c := cache.New()
	if n, err := appsync.Hydrate(context.Background(), c, db); err != nil {
		log.Warn("restoring cache", "error", err)
	} else {
		log.Debug("cache restored", "entries", n)
	}

	client := api.NewClient(api.Config{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           time.Duration(cfg.API.TimeoutSec) * time.Second,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
	}, sessions, api.WithLogger(log))
	defer client.Close()

	svc := service.New(client, c,
		service.WithStaleTime(time.Duration(cfg.Cache.StaleTimeSec)*time.Second),
		service.WithLogger(log),
	)
	authStore := auth.NewStore(client, sessions, c,
		auth.WithCacheStore(db),
		auth.WithLogger(log),
	)

	persister := appsync.NewPersister(c, db, persistDebounce, log)
	persister.Start()
	defer persister.Stop()

	poller := appsync.New(svc.Boards, time.Duration(cfg.Display.RefreshIntervalSec)*time.Second)

	theme.Apply(cfg.Display.Theme)

	root := app.New(app.Deps{
		Auth:       authStore,
		Services:   svc,
		Cache:      c,
		Sessions:   sessions,
		Poller:     poller,
		Store:      db,
		Config:     cfg,
		ConfigPath: *configPath,
		Log:        log,
	})
	defer root.Close()

	p := tea.NewProgram(root, tea.WithAltScreen())

	client.OnSessionExpired(func() {
		authStore.ForceLogout()
		p.Send(app.SessionExpiredMsg{})
	})

	watchConfig(*configPath, p, log)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	log.Info("exiting")
	return nil
}

// watchConfig forwards config file edits to the program. A missing file
// is not watched.
func watchConfig(path string, p *tea.Program, log *slog.Logger) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	err := model.WatchConfig(path, func(cfg *model.AppConfig, err error) {
		if err != nil {
			log.Warn("reloading config", "error", err)
			return
		}
		p.Send(app.ConfigChangedMsg{Config: cfg})
	})
	if err != nil {
		log.Warn("watching config", "error", err)
	}
}
