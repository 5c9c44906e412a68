// package tasks implements the favorites synchronizer.
//
// The core abstraction is Synchronizer, which joins the user record with the movie catalog and keeps the result current across mutations.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/shared"
)

// SyncOptions configures a [Synchronizer].
type SyncOptions struct {
	Notifier Notifier             // Receives user-facing messages (default: discarded)
	Logger   *log.Logger          // Receives detailed errors (default: stderr)
	Progress chan<- ProgressUpdate // Optional load progress

	// OnUnauthorized runs when the server rejects the session. Its context is never cancelled.
	OnUnauthorized func(ctx context.Context, err error)

	now func() time.Time
}

// Snapshot is a copy of the synchronizer state.
type Snapshot struct {
	Username    string
	User        *models.User
	Favorites   models.Favorites
	Loaded      bool
	LoadedAt    time.Time
	CatalogSize int
}

// Synchronizer owns a user's materialized favorites list.
//
// It is safe for concurrent use. Mutations are serialized; reads never wait on the network.
type Synchronizer struct {
	api            services.Catalog
	notifier       Notifier
	logger         *log.Logger
	progress       chan<- ProgressUpdate
	onUnauthorized func(context.Context, error)
	now            func() time.Time

	root   context.Context
	cancel context.CancelFunc

	// mutateMu serializes add, remove and toggle.
	mutateMu sync.Mutex

	mu  sync.RWMutex
	gen uint64

	// epoch changes when the loaded user changes; mutations started in an older epoch are discarded.
	epoch     uint64
	closed    bool
	loaded    bool
	loadedAt  time.Time
	username  string
	user      *models.User
	catalog   []models.Movie
	favorites models.Favorites
}

// NewSynchronizer creates a Synchronizer backed by api.
func NewSynchronizer(api services.Catalog, opts SyncOptions) *Synchronizer {
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.now == nil {
		opts.now = time.Now
	}

	root, cancel := context.WithCancel(context.Background())
	return &Synchronizer{
		api:            api,
		notifier:       opts.Notifier,
		logger:         opts.Logger,
		progress:       opts.Progress,
		onUnauthorized: opts.OnUnauthorized,
		now:            opts.now,
		root:           root,
		cancel:         cancel,
	}
}

// scope derives a context that ends with either ctx or the synchronizer.
func (s *Synchronizer) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.root, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// LoadFavorites fetches the user record and the catalog concurrently and publishes the joined list.
//
// If either fetch fails the other is cancelled and the previous state is kept.
// A load superseded by a newer load or mutation returns [shared.ErrStale] and publishes nothing.
func (s *Synchronizer) LoadFavorites(ctx context.Context, username string) (models.Favorites, error) {
	if username == "" {
		return models.Favorites{}, fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return models.Favorites{}, shared.ErrClosed
	}
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	ctx, cancel := s.scope(ctx)
	defer cancel()

	var (
		user    *models.User
		catalog []models.Movie
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sendProgress(s.progress, fetchUserUpdate(username))
		u, err := s.api.GetUser(gctx, username)
		if err != nil {
			return fmt.Errorf("failed to fetch user: %w", err)
		}
		if u == nil {
			return fmt.Errorf("%w: empty user record", shared.ErrAPIRequest)
		}
		user = u
		return nil
	})
	g.Go(func() error {
		sendProgress(s.progress, fetchCatalogUpdate())
		movies, err := s.api.GetMovies(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch catalog: %w", err)
		}
		catalog = movies
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.Favorites{}, s.fail(ctx, "load favorites", err)
	}

	fav := models.Materialize(user.FavoriteMovies, catalog)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return models.Favorites{}, shared.ErrClosed
	}
	if gen != s.gen {
		s.logger.Debug("discarding superseded load", "username", username)
		return models.Favorites{}, fmt.Errorf("%w: load of %s", shared.ErrStale, username)
	}

	if s.username != username {
		s.epoch++
	}
	s.username = username
	s.user = user.Clone()
	s.catalog = catalog
	s.favorites = fav
	s.loaded = true
	s.loadedAt = s.now()

	if fav.Dropped > 0 {
		s.logger.Warn("favorites reference movies missing from the catalog", "username", username, "dropped", fav.Dropped, "missing", fav.Missing)
	}
	s.logger.Debug("favorites loaded", "username", username, "movies", len(fav.Movies), "catalog", len(catalog))
	sendProgress(s.progress, materializedUpdate(fav))

	return fav.Clone(), nil
}

// AddFavorite adds movieID on the server and re-derives the list from the returned record.
//
// An empty username means the loaded user; any other user is rejected.
func (s *Synchronizer) AddFavorite(ctx context.Context, username, movieID string) (models.Favorites, error) {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()
	return s.mutate(ctx, "add favorite", username, movieID, s.api.AddFavorite)
}

// RemoveFavorite removes movieID on the server and re-derives the list from the returned record.
func (s *Synchronizer) RemoveFavorite(ctx context.Context, username, movieID string) (models.Favorites, error) {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()
	return s.mutate(ctx, "remove favorite", username, movieID, s.api.RemoveFavorite)
}

// ToggleFavorite removes movie if it is a favorite and adds it otherwise.
//
// It reports whether the movie is a favorite afterwards. On failure the membership is unchanged.
func (s *Synchronizer) ToggleFavorite(ctx context.Context, movie models.Movie) (bool, error) {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	if s.IsFavorite(movie.ID) {
		if _, err := s.mutate(ctx, "remove favorite", "", movie.ID, s.api.RemoveFavorite); err != nil {
			return true, err
		}
		s.notifier.Notify(Notification{Level: LevelInfo, Message: fmt.Sprintf("Removed %s from favorites", movieLabel(movie))})
		return false, nil
	}

	if _, err := s.mutate(ctx, "add favorite", "", movie.ID, s.api.AddFavorite); err != nil {
		return false, err
	}
	s.notifier.Notify(Notification{Level: LevelInfo, Message: fmt.Sprintf("Added %s to favorites", movieLabel(movie))})
	return true, nil
}

func movieLabel(m models.Movie) string {
	if m.Title != "" {
		return m.Title
	}
	return m.ID
}

type mutation func(ctx context.Context, username, movieID string) (*models.User, error)

// mutate must be called with mutateMu held.
func (s *Synchronizer) mutate(ctx context.Context, op, username, movieID string, call mutation) (models.Favorites, error) {
	if movieID == "" {
		return models.Favorites{}, fmt.Errorf("%w: movie ID", shared.ErrMissingArgument)
	}

	s.mu.RLock()
	closed, loaded, current, epoch := s.closed, s.loaded, s.username, s.epoch
	s.mu.RUnlock()

	switch {
	case closed:
		return models.Favorites{}, shared.ErrClosed
	case !loaded:
		return models.Favorites{}, fmt.Errorf("%w: %s", shared.ErrNotLoaded, op)
	case username == "":
		username = current
	case username != current:
		return models.Favorites{}, fmt.Errorf("%w: favorites are loaded for %s, not %s", shared.ErrInvalidArgument, current, username)
	}

	ctx, cancel := s.scope(ctx)
	defer cancel()

	user, err := call(ctx, username, movieID)
	if err == nil && user == nil {
		err = fmt.Errorf("%w: empty user record", shared.ErrAPIRequest)
	}
	if err != nil {
		return models.Favorites{}, s.fail(ctx, op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return models.Favorites{}, shared.ErrClosed
	}
	if epoch != s.epoch {
		s.logger.Debug("discarding superseded mutation", "op", op, "username", username, "movie_id", movieID)
		return models.Favorites{}, fmt.Errorf("%w: %s for %s", shared.ErrStale, op, username)
	}

	s.gen++
	s.user = user.Clone()
	s.favorites = models.Materialize(user.FavoriteMovies, s.catalog)
	s.logger.Debug(op, "username", username, "movie_id", movieID, "favorites", len(s.favorites.Movies))

	return s.favorites.Clone(), nil
}

// fail logs err and notifies the user unless the operation was cancelled.
func (s *Synchronizer) fail(ctx context.Context, op string, err error) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()

	if closed {
		return fmt.Errorf("%w: %s abandoned", shared.ErrClosed, op)
	}
	if ctx.Err() != nil {
		s.logger.Debug("operation cancelled", "op", op, "err", err)
		return err
	}

	s.logger.Error("favorites operation failed", "op", op, "err", err)

	n := Notification{Level: LevelError, Message: MessageRetryLater, Err: err}
	switch {
	case errors.Is(err, shared.ErrUnauthorized):
		n.Message = MessageSessionExpired
		s.Reset()
		if s.onUnauthorized != nil {
			s.onUnauthorized(context.WithoutCancel(ctx), err)
		}
	case errors.Is(err, shared.ErrNotAuthenticated):
		n.Message = MessageLoginRequired
	}
	s.notifier.Notify(n)

	return err
}

// IsFavorite reports whether movieID is in the current materialized list.
func (s *Synchronizer) IsFavorite(movieID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.favorites.Contains(movieID)
}

// Favorites returns a copy of the current materialized list.
func (s *Synchronizer) Favorites() models.Favorites {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.favorites.Clone()
}

// Catalog returns a copy of the catalog from the last successful load.
func (s *Synchronizer) Catalog() []models.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Movie(nil), s.catalog...)
}

// Snapshot returns a copy of the current state.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Username:    s.username,
		User:        s.user.Clone(),
		Favorites:   s.favorites.Clone(),
		Loaded:      s.loaded,
		LoadedAt:    s.loadedAt,
		CatalogSize: len(s.catalog),
	}
}

// Reset forgets the loaded state. A rejected session resets the synchronizer before OnUnauthorized runs.
// Loads and mutations already in flight are discarded.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.epoch++
	s.loaded = false
	s.loadedAt = time.Time{}
	s.username = ""
	s.user = nil
	s.catalog = nil
	s.favorites = models.Favorites{}
}

// Close cancels every in-flight request. Later operations return [shared.ErrClosed].
func (s *Synchronizer) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	return nil
}
