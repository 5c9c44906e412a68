package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/desertthunder/flix/internal/tasks"
	"github.com/urfave/cli/v3"
)

// loadFavorites signs the synchronizer in as the current user and loads the joined list.
func (r *Runner) loadFavorites(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.Synchronizer, models.Favorites, error) {
	username, err := r.requireSession()
	if err != nil {
		return nil, models.Favorites{}, err
	}

	s := r.newSynchronizer(tasks.SyncOptions{Progress: progress})
	fav, err := s.LoadFavorites(ctx, username)
	if err != nil {
		s.Close()
		return nil, models.Favorites{}, err
	}
	return s, fav, nil
}

// findMovie matches ref against catalog IDs first, then titles (case-insensitive).
func findMovie(catalog []models.Movie, ref string) (models.Movie, bool) {
	for _, m := range catalog {
		if m.ID == ref {
			return m, true
		}
	}
	for _, m := range catalog {
		if strings.EqualFold(m.Title, ref) {
			return m, true
		}
	}
	return models.Movie{}, false
}

func movieRef(cmd *cli.Command) (string, error) {
	ref := strings.TrimSpace(cmd.StringArg("movie"))
	if ref == "" {
		return "", fmt.Errorf("%w: movie title or ID", shared.ErrMissingArgument)
	}
	return ref, nil
}

// FavoritesList prints the materialized favorites list.
func (r *Runner) FavoritesList(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("ids") {
		return r.favoriteIDs(ctx, cmd)
	}

	s, fav, err := r.loadFavorites(ctx, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	if cmd.Bool("json") {
		return r.writeJSON(fav, cmd.Bool("pretty"))
	}
	return r.printFavorites(s.Snapshot().Username, fav)
}

// favoriteIDs prints the server's favorite IDs as stored, including any missing from the catalog.
func (r *Runner) favoriteIDs(ctx context.Context, cmd *cli.Command) error {
	username, err := r.requireSession()
	if err != nil {
		return err
	}

	ids, err := r.flix.GetFavoriteIDs(ctx, username)
	if errors.Is(err, shared.ErrUnauthorized) {
		if rerr := r.session.Revoke(ctx, err.Error()); rerr != nil {
			r.logger.Warn("failed to clear rejected session", "error", rerr)
		}
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(ids, cmd.Bool("pretty"))
	}
	for _, id := range ids {
		r.writePlain("%s\n", id)
	}
	return nil
}

func (r *Runner) printFavorites(username string, fav models.Favorites) error {
	if len(fav.Movies) == 0 {
		r.writePlain("%s has no favorite movies\n", username)
	} else {
		r.writePlain("%s's favorites (%d):\n\n", username, len(fav.Movies))
		for i, m := range fav.Movies {
			r.writePlain("%2d. %s\n", i+1, m.Title)
			r.writePlain("    %s • %s\n", m.Director.Name, m.Genre.Name)
		}
	}

	if fav.Dropped > 0 {
		r.writePlainln("%d favorites are no longer in the catalog: %s", fav.Dropped, strings.Join(fav.Missing, ", "))
	}
	return nil
}

// FavoritesAdd adds a catalog movie to the favorites.
func (r *Runner) FavoritesAdd(ctx context.Context, cmd *cli.Command) error {
	ref, err := movieRef(cmd)
	if err != nil {
		return err
	}

	s, _, err := r.loadFavorites(ctx, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	movie, ok := findMovie(s.Catalog(), ref)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrMovieNotFound, ref)
	}

	fav, err := s.AddFavorite(ctx, "", movie.ID)
	if err != nil {
		return err
	}

	r.writePlain("✓ Added %s to favorites\n\n", movie.Title)
	return r.printFavorites(s.Snapshot().Username, fav)
}

// FavoritesRemove removes a movie from the favorites.
//
// Unknown references are sent as IDs so entries missing from the catalog can still be removed.
func (r *Runner) FavoritesRemove(ctx context.Context, cmd *cli.Command) error {
	ref, err := movieRef(cmd)
	if err != nil {
		return err
	}

	s, _, err := r.loadFavorites(ctx, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	movie, ok := findMovie(s.Catalog(), ref)
	if !ok {
		movie = models.Movie{ID: ref, Title: ref}
	}

	fav, err := s.RemoveFavorite(ctx, "", movie.ID)
	if err != nil {
		return err
	}

	r.writePlain("✓ Removed %s from favorites\n\n", movie.Title)
	return r.printFavorites(s.Snapshot().Username, fav)
}

// FavoritesToggle flips a movie's membership.
func (r *Runner) FavoritesToggle(ctx context.Context, cmd *cli.Command) error {
	ref, err := movieRef(cmd)
	if err != nil {
		return err
	}

	s, _, err := r.loadFavorites(ctx, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	movie, ok := findMovie(s.Catalog(), ref)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrMovieNotFound, ref)
	}

	now, err := s.ToggleFavorite(ctx, movie)
	if err != nil {
		return err
	}

	if now {
		return r.writePlain("♥ %s is now a favorite\n", movie.Title)
	}
	return r.writePlain("  %s is no longer a favorite\n", movie.Title)
}

// FavoritesExport writes the favorites list to files.
func (r *Runner) FavoritesExport(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.ExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		Posters:    cmd.Bool("posters"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
		Client:     r.httpClient,
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchUser, tasks.FetchCatalog:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.BuildFavorites:
				r.writePlain("🎬 %s\n", update.Message)
			case tasks.DownloadPosters:
				r.writePlain("   %s\n", update.Message)
			case tasks.ExportFavorites:
				r.writePlain("\n📝 %s\n", update.Message)
			case tasks.WriteManifest:
				r.writePlain("📋 %s\n", update.Message)
			}
		}
	}()

	result, err := r.export(ctx, progressCh, opts)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n═══════════════════════════════════════\n")
	r.writePlain("Export Complete!\n")
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Movies: %d\n", result.Movies)
	if result.Dropped > 0 {
		r.writePlain("Unavailable: %d\n", result.Dropped)
	}
	for _, f := range result.Files {
		r.writePlain("  - %s\n", f)
	}
	if opts.Posters {
		r.writePlain("Posters: %d downloaded, %d failed\n", result.Downloaded, result.Failed)
		for _, p := range result.Posters {
			if p.Err != nil {
				r.writePlain("  ✗ %s: %v\n", p.Title, p.Err)
			}
		}
	}
	return nil
}

func (r *Runner) export(ctx context.Context, progress chan<- tasks.ProgressUpdate, opts tasks.ExportOpts) (*tasks.ExportResult, error) {
	s, _, err := r.loadFavorites(ctx, progress)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	return s.ExportFavorites(ctx, progress, opts)
}
