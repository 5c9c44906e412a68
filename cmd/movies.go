package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/urfave/cli/v3"
)

var openBrowser = shared.OpenBrowser

// MoviesList prints the catalog, optionally filtered.
func (r *Runner) MoviesList(ctx context.Context, cmd *cli.Command) error {
	featured := cmd.Bool("featured")
	genre := cmd.String("genre")

	r.logger.Info("fetching movies", "featured", featured, "genre", genre)

	movies, err := r.flix.GetMovies(ctx)
	if err != nil {
		return err
	}

	filtered := make([]models.Movie, 0, len(movies))
	for _, m := range movies {
		if featured && !m.Featured {
			continue
		}
		if genre != "" && !strings.EqualFold(m.Genre.Name, genre) {
			continue
		}
		filtered = append(filtered, m)
	}

	if cmd.Bool("json") {
		return r.writeJSON(filtered, cmd.Bool("pretty"))
	}

	favorites := map[string]bool{}
	if username, ok := r.session.Username(); ok {
		if user, err := r.flix.GetUser(ctx, username); err == nil {
			for _, id := range user.FavoriteMovies {
				favorites[id] = true
			}
		} else {
			r.logger.Debug("favorites unavailable", "error", err)
		}
	}

	r.writePlain("Found %d movies:\n\n", len(filtered))
	for i, m := range filtered {
		mark := " "
		if favorites[m.ID] {
			mark = "♥"
		}
		r.writePlain("%s %2d. %s\n", mark, i+1, m.Title)
		r.writePlain("      %s • %s\n", m.Director.Name, m.Genre.Name)
	}
	return nil
}

// MoviesShow prints one movie.
func (r *Runner) MoviesShow(ctx context.Context, cmd *cli.Command) error {
	title := cmd.StringArg("title")
	if title == "" {
		return fmt.Errorf("%w: title", shared.ErrMissingArgument)
	}

	movie, err := r.flix.GetMovie(ctx, title)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(movie, cmd.Bool("pretty"))
	}

	r.writePlainHeader(movie.Title)
	if movie.Description != "" {
		r.writePlain("%s\n\n", movie.Description)
	}
	r.writePlain("Director: %s (%s-%s)\n", movie.Director.Name, shared.YearString(string(movie.Director.Birth)), string(movie.Director.Death))
	r.writePlain("Genre: %s\n", movie.Genre.Name)
	if movie.Featured {
		r.writePlain("Featured: yes\n")
	}
	if movie.ImagePath != "" {
		r.writePlain("Poster: %s\n", movie.ImagePath)
	}
	r.writePlain("ID: %s\n", movie.ID)

	if !cmd.Bool("open") {
		return nil
	}
	if movie.ImagePath == "" {
		return fmt.Errorf("%w: %s has no poster", shared.ErrNotFound, movie.Title)
	}
	return openBrowser(movie.ImagePath)
}

// MoviesDirector prints a director.
func (r *Runner) MoviesDirector(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}

	director, err := r.flix.GetDirector(ctx, name)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(director, cmd.Bool("pretty"))
	}

	r.writePlainHeader(director.Name)
	r.writePlain("Born: %s\n", shared.YearString(string(director.Birth)))
	if director.Death != "" {
		r.writePlain("Died: %s\n", director.Death)
	}
	if director.Bio != "" {
		r.writePlain("\n%s\n", director.Bio)
	}
	return nil
}

// MoviesGenre prints a genre.
func (r *Runner) MoviesGenre(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}

	genre, err := r.flix.GetGenre(ctx, name)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(genre, cmd.Bool("pretty"))
	}

	r.writePlainHeader(genre.Name)
	if genre.Description != "" {
		r.writePlain("%s\n", genre.Description)
	}
	return nil
}
