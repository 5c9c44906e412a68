package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/urfave/cli/v3"
)

// UserShow prints a user record, defaulting to the signed-in user.
func (r *Runner) UserShow(ctx context.Context, cmd *cli.Command) error {
	username := cmd.StringArg("username")
	if username == "" {
		var err error
		if username, err = r.requireSession(); err != nil {
			return err
		}
	}

	user, err := r.flix.GetUser(ctx, username)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}

	r.writePlainHeader(user.Username)
	r.writePlain("Email: %s\n", user.Email)
	if user.Birthday != "" {
		r.writePlain("Birthday: %s\n", user.Birthday)
	}
	r.writePlain("Favorites: %d\n", len(user.FavoriteMovies))
	r.writePlain("ID: %s\n", user.ID)
	return nil
}

// UserUpdate edits the signed-in user's profile.
//
// When the username changes the stored session is re-keyed to the new name.
func (r *Runner) UserUpdate(ctx context.Context, cmd *cli.Command) error {
	username, err := r.requireSession()
	if err != nil {
		return err
	}

	update := models.UserUpdate{
		Username: cmd.String("username"),
		Password: cmd.String("password"),
		Email:    cmd.String("email"),
		Birthday: cmd.String("birthday"),
	}
	if update.IsEmpty() {
		return fmt.Errorf("%w: pass at least one of --username, --password, --email, --birthday", shared.ErrMissingArgument)
	}

	user, err := r.flix.UpdateUser(ctx, username, update)
	if err != nil {
		return err
	}

	if user.Username != "" && user.Username != username {
		token, _ := r.session.Token()
		if err := r.session.SetSession(ctx, user.Username, token); err != nil {
			return err
		}
		r.logger.Info("username changed", "from", username, "to", user.Username)
	}

	return r.writePlain("✓ Profile of %s updated\n", user.Username)
}

// UserDelete deletes the signed-in user's account and signs out.
func (r *Runner) UserDelete(ctx context.Context, cmd *cli.Command) error {
	username, err := r.requireSession()
	if err != nil {
		return err
	}
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: deleting %s cannot be undone, pass --yes to confirm", shared.ErrMissingArgument, username)
	}

	msg, err := r.flix.DeleteUser(ctx, username)
	if err != nil {
		return err
	}
	if err := r.session.ClearSession(ctx); err != nil {
		return err
	}

	if msg == "" {
		msg = fmt.Sprintf("%s was deleted.", username)
	}
	return r.writePlain("✓ %s\n", msg)
}
