package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin exchanges credentials for a token and stores the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	return r.login(ctx, cmd.String("username"), cmd.String("password"))
}

func (r *Runner) login(ctx context.Context, username, password string) error {
	r.logger.Info("signing in", "username", username)

	result, err := r.flix.Login(ctx, username, password)
	if err != nil {
		return err
	}

	if result.User.Username != "" {
		username = result.User.Username
	}
	if err := r.session.SetSession(ctx, username, result.Token); err != nil {
		return err
	}

	r.writePlain("✓ Signed in as %s\n", username)
	if n := len(result.User.FavoriteMovies); n > 0 {
		r.writePlain("  %d favorite movies\n", n)
	}
	return nil
}

// AuthLogout clears the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	username, ok := r.session.Username()
	if !ok {
		return r.writePlain("Not signed in\n")
	}

	if err := r.session.ClearSession(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out %s\n", username)
}

// AuthRegister creates an account and, unless --login=false, signs in with it.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	reg := models.Registration{
		Username: cmd.String("username"),
		Password: cmd.String("password"),
		Email:    cmd.String("email"),
		Birthday: cmd.String("birthday"),
	}

	user, err := r.flix.Register(ctx, reg)
	if err != nil {
		return err
	}
	r.logger.Info("account created", "username", user.Username)
	r.writePlain("✓ Account %s created\n", user.Username)

	if !cmd.Bool("login") {
		return nil
	}
	return r.login(ctx, reg.Username, reg.Password)
}

// AuthStatus shows the stored session and, with --check, whether the API still accepts it.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	s := r.session.Session()
	if s == nil {
		return r.writePlain("Not signed in\n")
	}

	r.writePlain("Signed in as: %s\n", s.Username)
	r.writePlain("Since: %s\n", s.CreatedAt.Local().Format(time.DateTime))
	switch {
	case s.ExpiresAt == nil:
		r.writePlain("Expires: unknown\n")
	case s.Expired(time.Now()):
		r.writePlain("Expires: %s (expired)\n", s.ExpiresAt.Local().Format(time.DateTime))
	default:
		r.writePlain("Expires: %s\n", s.ExpiresAt.Local().Format(time.DateTime))
	}

	if !cmd.Bool("check") {
		return nil
	}

	_, err := r.flix.GetUser(ctx, s.Username)
	switch {
	case err == nil:
		return r.writePlain("Token: ✓ accepted\n")
	case errors.Is(err, shared.ErrUnauthorized):
		if rerr := r.session.Revoke(ctx, err.Error()); rerr != nil {
			r.logger.Warn("failed to clear rejected session", "error", rerr)
		}
		r.writePlain("Token: ✗ rejected, signed out\n")
		return err
	default:
		return err
	}
}

// AuthImport stores the bearer token of a request copied from the browser.
func (r *Runner) AuthImport(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var req *shared.CurlRequest
	var err error
	if curlFile != "" {
		if req, err = shared.ParseCurlFile(curlFile); err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		if req, err = shared.ParseCurlCommand([]byte(curlCmd)); err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	token, err := req.BearerToken()
	if err != nil {
		return err
	}
	if err := r.session.ImportSession(ctx, cmd.String("username"), token); err != nil {
		return err
	}

	username, _ := r.session.Username()
	r.writePlain("✓ Imported session for %s\n", username)

	baseURL, err := req.BaseURL()
	if err != nil || baseURL == r.config.API.BaseURL {
		return nil
	}
	if !cmd.Bool("save-url") {
		r.writePlain("Note: the request was sent to %s but api.base_url is %s (use --save-url to update it)\n", baseURL, r.config.API.BaseURL)
		return nil
	}

	r.config.API.BaseURL = baseURL
	if r.configPath == "" {
		return nil
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return err
	}
	r.logger.Info("api.base_url updated", "url", baseURL, "config", r.configPath)
	return r.writePlain("✓ api.base_url set to %s\n", baseURL)
}

// AuthHistory lists the signed-in user's recent session events.
func (r *Runner) AuthHistory(ctx context.Context, cmd *cli.Command) error {
	if r.history == nil {
		return fmt.Errorf("%w: session history needs the sqlite session store", shared.ErrServiceUnavailable)
	}

	if age := cmd.Duration("prune"); age > 0 {
		n, err := r.history.PruneEvents(ctx, time.Now().Add(-age))
		if err != nil {
			return err
		}
		r.writePlain("Pruned %d events\n", n)
	}

	username, _ := r.session.Username()
	events, err := r.history.Events(ctx, username, cmd.Int("limit"))
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return r.writePlain("No session events\n")
	}

	for _, e := range events {
		r.writePlain("%s  %-9s %s", e.CreatedAt.Local().Format(time.DateTime), e.Kind, e.Username)
		if e.Reason != "" {
			r.writePlain(" (%s)", e.Reason)
		}
		r.writePlain("\n")
	}
	return nil
}
