package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/desertthunder/flix/internal/server"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/crypto/bcrypt"
)

// Serve runs the local stub backend until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.config.Server
	if host := cmd.String("host"); host != "" {
		config.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		config.Port = port
	}
	seedPath := config.SeedPath
	if p := cmd.String("seed"); p != "" {
		seedPath = p
	}
	ttl := config.TokenTTL()
	if d := cmd.Duration("token-ttl"); d > 0 {
		ttl = d
	}

	seed, err := server.LoadSeed(seedPath)
	if err != nil {
		return err
	}
	store, err := server.NewSeededStore(seed, bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if config.JWTSecret == "" || config.JWTSecret == "change-me" {
		r.logger.Warn("server.jwt_secret is unset or the default; tokens are only fit for local use")
	}

	logger := shared.WithLogger(r.logger, "component", "server")
	issuer := server.NewTokenIssuer(config.JWTSecret, ttl)
	api := server.NewAPI(store, issuer, logger)
	srv := server.New(config, server.NewRouter(api), logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r.writePlain("Serving %d movies on http://%s (Ctrl+C to stop)\n", len(seed.Movies), config.Addr())
	for _, u := range seed.Users {
		r.writePlain("  sample account: %s / %s\n", u.Username, u.Password)
	}

	if err := srv.Run(ctx, nil); err != nil {
		return fmt.Errorf("stub backend failed: %w", err)
	}
	return nil
}
