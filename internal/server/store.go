package server

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

// ErrUserExists is returned when a username is already taken.
var ErrUserExists = fmt.Errorf("%w: username already exists", shared.ErrValidation)

type account struct {
	user models.User
	hash []byte
}

// Store is the in-memory state of the stub backend.
//
// The catalog is read-only; accounts are keyed by username.
type Store struct {
	mu       sync.RWMutex
	movies   []models.Movie
	accounts map[string]*account
	cost     int
}

// NewStore creates a Store serving movies. A non-positive bcrypt cost uses [bcrypt.DefaultCost].
func NewStore(movies []models.Movie, cost int) *Store {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &Store{
		movies:   slices.Clone(movies),
		accounts: make(map[string]*account),
		cost:     cost,
	}
}

// Movies returns the catalog.
func (s *Store) Movies() []models.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.movies)
}

// Movie finds a movie by title, ignoring case.
func (s *Store) Movie(title string) (models.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.movies {
		if strings.EqualFold(m.Title, title) {
			return m, nil
		}
	}
	return models.Movie{}, fmt.Errorf("%w: %s", shared.ErrMovieNotFound, title)
}

// Director finds a director by name among the catalog's movies.
func (s *Store) Director(name string) (models.Director, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.movies {
		if strings.EqualFold(m.Director.Name, name) {
			return m.Director, nil
		}
	}
	return models.Director{}, fmt.Errorf("%w: director %s", shared.ErrNotFound, name)
}

// Genre finds a genre by name among the catalog's movies.
func (s *Store) Genre(name string) (models.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.movies {
		if strings.EqualFold(m.Genre.Name, name) {
			return m.Genre, nil
		}
	}
	return models.Genre{}, fmt.Errorf("%w: genre %s", shared.ErrNotFound, name)
}

// CreateUser registers a new account.
func (s *Store) CreateUser(r models.Registration) (models.User, error) {
	if err := r.Validate(); err != nil {
		return models.User{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[r.Username]; ok {
		return models.User{}, ErrUserExists
	}

	acc := &account{
		user: models.User{
			ID:             shared.GenerateID(),
			Username:       r.Username,
			Email:          r.Email,
			Birthday:       r.Birthday,
			FavoriteMovies: []string{},
		},
		hash: hash,
	}
	s.accounts[r.Username] = acc
	return *acc.user.Clone(), nil
}

// Authenticate checks a username and password.
func (s *Store) Authenticate(username, password string) (models.User, error) {
	s.mu.RLock()
	acc, ok := s.accounts[username]
	s.mu.RUnlock()

	if !ok {
		return models.User{}, shared.ErrAuthFailed
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return models.User{}, shared.ErrAuthFailed
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return *acc.user.Clone(), nil
}

// User returns the account record for username.
func (s *Store) User(username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[username]
	if !ok {
		return models.User{}, fmt.Errorf("%w: %s", shared.ErrUserNotFound, username)
	}
	return *acc.user.Clone(), nil
}

// UsernameByID returns the current username of the account with the given ID.
func (s *Store) UsernameByID(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for name, acc := range s.accounts {
		if acc.user.ID == id {
			return name, true
		}
	}
	return "", false
}

// UpdateUser applies the non-empty fields of update. Renaming to a taken username fails with [ErrUserExists].
func (s *Store) UpdateUser(username string, update models.UserUpdate) (models.User, error) {
	if update.IsEmpty() {
		return models.User{}, fmt.Errorf("%w: nothing to update", shared.ErrValidation)
	}
	if update.Email != "" && !strings.Contains(update.Email, "@") {
		return models.User{}, fmt.Errorf("%w: email %q is not valid", shared.ErrValidation, update.Email)
	}

	var hash []byte
	if update.Password != "" {
		var err error
		if hash, err = bcrypt.GenerateFromPassword([]byte(update.Password), s.cost); err != nil {
			return models.User{}, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[username]
	if !ok {
		return models.User{}, fmt.Errorf("%w: %s", shared.ErrUserNotFound, username)
	}

	if update.Username != "" && update.Username != username {
		if _, taken := s.accounts[update.Username]; taken {
			return models.User{}, ErrUserExists
		}
		delete(s.accounts, username)
		acc.user.Username = update.Username
		s.accounts[update.Username] = acc
	}
	if update.Email != "" {
		acc.user.Email = update.Email
	}
	if update.Birthday != "" {
		acc.user.Birthday = update.Birthday
	}
	if hash != nil {
		acc.hash = hash
	}
	return *acc.user.Clone(), nil
}

// DeleteUser removes the account for username.
func (s *Store) DeleteUser(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[username]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrUserNotFound, username)
	}
	delete(s.accounts, username)
	return nil
}

// AddFavorite appends movieID to the user's favorites unless already present.
//
// The ID is not checked against the catalog.
func (s *Store) AddFavorite(username, movieID string) (models.User, error) {
	return s.updateFavorites(username, func(ids []string) []string {
		if slices.Contains(ids, movieID) {
			return ids
		}
		return append(ids, movieID)
	})
}

// RemoveFavorite removes movieID from the user's favorites.
func (s *Store) RemoveFavorite(username, movieID string) (models.User, error) {
	return s.updateFavorites(username, func(ids []string) []string {
		return slices.DeleteFunc(ids, func(id string) bool { return id == movieID })
	})
}

func (s *Store) updateFavorites(username string, fn func([]string) []string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[username]
	if !ok {
		return models.User{}, fmt.Errorf("%w: %s", shared.ErrUserNotFound, username)
	}
	acc.user.FavoriteMovies = fn(acc.user.FavoriteMovies)
	return *acc.user.Clone(), nil
}
