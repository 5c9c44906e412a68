package tasks

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/flix/internal/formatter"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

const (
	posterDir    = "posters"
	manifestName = "export_manifest.json"
)

// ExportOpts contains configuration for favorites exports.
type ExportOpts struct {
	Format     string       // Export format: json, csv, markdown, txt
	OutputDir  string       // Output directory (default: favorites_export_{epoch})
	Posters    bool         // Download poster images into {OutputDir}/posters
	NumWorkers int          // Concurrent poster downloads (default: 4, max: 10)
	RateLimit  float64      // Poster requests per second (default: 5)
	Client     *http.Client // Poster download client
}

// PosterResult is the outcome of one poster download.
type PosterResult struct {
	MovieID string
	Title   string
	File    string // Relative to the output directory
	Err     error
}

// ExportResult summarizes a favorites export.
type ExportResult struct {
	OutputDirectory string
	Files           []string
	Movies          int
	Dropped         int
	Posters         []PosterResult
	Downloaded      int
	Failed          int
	ManifestPath    string
}

// ExportFavorites writes the loaded favorites list to opts.OutputDir.
//
// Poster downloads run on a rate-limited worker pool; a failed download is recorded in the manifest and does not fail the export.
func (s *Synchronizer) ExportFavorites(ctx context.Context, progress chan<- ProgressUpdate, opts ExportOpts) (*ExportResult, error) {
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if !formatter.ValidFormat(opts.Format) {
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("favorites_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	snap := s.Snapshot()
	if !snap.Loaded {
		return nil, fmt.Errorf("%w: export favorites", shared.ErrNotLoaded)
	}

	ctx, cancel := s.scope(ctx)
	defer cancel()

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{
		OutputDirectory: opts.OutputDir,
		Movies:          len(snap.Favorites.Movies),
		Dropped:         snap.Favorites.Dropped,
	}

	export := &formatter.FavoritesExport{
		Username:   snap.Username,
		ExportedAt: s.now().UTC(),
		Favorites:  snap.Favorites,
	}

	if opts.Posters {
		posters, err := s.downloadPosters(ctx, progress, snap.Favorites.Movies, opts)
		if err != nil {
			return nil, err
		}
		result.Posters = posters

		export.Posters = make(map[string]string)
		for _, p := range posters {
			if p.Err != nil {
				result.Failed++
				continue
			}
			result.Downloaded++
			export.Posters[p.MovieID] = p.File
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("export canceled: %w", err)
	}

	sendProgress(progress, exportingUpdate(opts.Format, result.Movies))
	files, err := formatter.WriteExport(export, opts.Format, opts.OutputDir)
	if err != nil {
		return nil, err
	}
	result.Files = files

	manifest := &formatter.Manifest{
		Format:     opts.Format,
		Username:   export.Username,
		ExportedAt: export.ExportedAt,
		Movies:     result.Movies,
		Dropped:    result.Dropped,
		Files:      files,
		Downloaded: result.Downloaded,
		Failed:     result.Failed,
	}
	for _, p := range result.Posters {
		manifest.Posters = append(manifest.Posters, formatter.NewManifestEntry(p.MovieID, p.Title, p.File, p.Err))
	}

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	if err := formatter.WriteExportManifest(manifest, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	sendProgress(progress, manifestUpdate(manifestPath))

	s.logger.Info("favorites exported", "format", opts.Format, "dir", opts.OutputDir, "movies", result.Movies, "posters", result.Downloaded, "poster_failures", result.Failed)
	return result, nil
}

// downloadPosters fetches each distinct movie's poster with a pool of workers.
//
// Results come back in the order of movies.
func (s *Synchronizer) downloadPosters(ctx context.Context, prog chan<- ProgressUpdate, movies []models.Movie, opts ExportOpts) ([]PosterResult, error) {
	var todo []models.Movie
	seen := make(map[string]bool)
	for _, m := range movies {
		if m.ImagePath == "" || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		todo = append(todo, m)
	}
	if len(todo) == 0 {
		return nil, nil
	}

	dir := filepath.Join(opts.OutputDir, posterDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create poster directory: %w", err)
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan models.Movie)
	results := make(chan PosterResult, len(todo))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go posterWorker(ctx, &wg, jobs, results, limiter, opts)
	}

	go func() {
		defer close(jobs)
		for _, m := range todo {
			select {
			case jobs <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	byID := make(map[string]PosterResult, len(todo))
	completed := 0
	for res := range results {
		completed++
		byID[res.MovieID] = res
		sendProgress(prog, posterUpdate(completed, len(todo), res))
	}

	ordered := make([]PosterResult, 0, len(byID))
	for _, m := range todo {
		if res, ok := byID[m.ID]; ok {
			ordered = append(ordered, res)
		}
	}
	return ordered, nil
}

// posterWorker downloads posters from the jobs channel.
func posterWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan models.Movie,
	results chan<- PosterResult,
	limiter *rate.Limiter,
	opts ExportOpts,
) {
	defer wg.Done()

	for m := range jobs {
		res := PosterResult{MovieID: m.ID, Title: m.Title}

		if err := limiter.Wait(ctx); err != nil {
			res.Err = err
			results <- res
			continue
		}

		data, err := formatter.DownloadImage(ctx, opts.Client, m.ImagePath)
		if err != nil {
			res.Err = err
			results <- res
			continue
		}

		name := posterFilename(m.ID, m.ImagePath)
		if err := os.WriteFile(filepath.Join(opts.OutputDir, posterDir, name), data, 0644); err != nil {
			res.Err = fmt.Errorf("failed to write poster: %w", err)
			results <- res
			continue
		}

		res.File = path.Join(posterDir, name)
		results <- res
	}
}

// posterFilename derives a safe file name from a movie ID and the poster URL's extension (default .jpg).
func posterFilename(movieID, imageURL string) string {
	ext := ".jpg"
	if u, err := url.Parse(imageURL); err == nil {
		if e := strings.ToLower(path.Ext(u.Path)); e != "" && len(e) <= 5 {
			ext = e
		}
	}

	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, movieID)
	if safe == "" {
		safe = "poster"
	}
	return safe + ext
}
