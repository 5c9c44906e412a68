package main

import (
	"cmp"
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flix/internal/repositories"
	"github.com/desertthunder/flix/internal/session"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx := context.Background()
	logger := shared.NewLogger(nil)

	if err := shared.LoadEnv(); err != nil {
		logger.Warn("failed to load .env", "error", err)
	}

	configPath := cmp.Or(os.Getenv("FLIX_CONFIG"), "config.toml")
	config := loadConfig(configPath, logger)

	if lvl, err := shared.ParseLogLevel(config.Log.Level); err == nil {
		shared.SetLogLevel(logger, lvl)
	} else {
		logger.Warn("ignoring log level", "error", err)
	}

	var store session.Store
	var history *repositories.SessionRepository
	if config.Session.Store == "memory" {
		store = session.NewMemoryStore()
	} else if db, err := shared.OpenDatabase(config.Database); err != nil {
		logger.Warn("session database unavailable, sessions will not persist", "path", config.Database.Path, "error", err)
		store = session.NewMemoryStore()
	} else {
		defer db.Close()
		history = repositories.NewSessionRepository(db)
		store = history
	}

	manager := session.NewManager(store, logger)
	if err := manager.Restore(ctx); err != nil {
		logger.Warn("starting signed out", "error", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Session:    manager,
		History:    history,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "flix",
		Usage:    "Browse the myFlix movie catalog and manage your favorites",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}

// loadConfig reads path when it exists, then applies environment overrides.
func loadConfig(path string, logger *log.Logger) *shared.Config {
	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if loaded, err := shared.LoadConfig(path); err == nil {
			config = loaded
		} else {
			logger.Warn("failed to load config, using defaults", "path", path, "error", err)
		}
	}

	if err := shared.ApplyEnv(config); err != nil {
		logger.Warn("ignoring environment overrides", "error", err)
	}
	if err := config.Validate(); err != nil {
		logger.Warn("invalid configuration, using defaults", "error", err)
		return shared.DefaultConfig()
	}
	return config
}
