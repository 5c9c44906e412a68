// package services defines interface Service for interacting with the myFlix HTTP API
package services

import (
	"context"

	"github.com/desertthunder/flix/internal/models"
)

// Service defines the operations of the myFlix movie API.
//
// Every method except Register and Login sends the session's bearer token.
type Service interface {
	// Register creates a new account.
	Register(ctx context.Context, r models.Registration) (*models.User, error)

	// Login exchanges a username and password for a bearer token and the user record.
	Login(ctx context.Context, username, password string) (*models.LoginResult, error)

	// GetMovies retrieves the full catalog.
	GetMovies(ctx context.Context) ([]models.Movie, error)

	// GetMovie retrieves a movie by title.
	GetMovie(ctx context.Context, title string) (*models.Movie, error)

	// GetDirector retrieves a director by name.
	GetDirector(ctx context.Context, name string) (*models.Director, error)

	// GetGenre retrieves a genre by name.
	GetGenre(ctx context.Context, name string) (*models.Genre, error)

	// GetUser retrieves a user record.
	GetUser(ctx context.Context, username string) (*models.User, error)

	// UpdateUser applies a profile edit and returns the updated record.
	UpdateUser(ctx context.Context, username string, update models.UserUpdate) (*models.User, error)

	// DeleteUser removes an account and returns the server's confirmation text.
	DeleteUser(ctx context.Context, username string) (string, error)

	// GetFavoriteIDs retrieves the IDs on the user's favorites list, in the order they were added.
	GetFavoriteIDs(ctx context.Context, username string) ([]string, error)

	// AddFavorite adds movieID to the user's favorites and returns the updated record.
	AddFavorite(ctx context.Context, username, movieID string) (*models.User, error)

	// RemoveFavorite removes movieID from the user's favorites and returns the updated record.
	RemoveFavorite(ctx context.Context, username, movieID string) (*models.User, error)
}

// Catalog is the read side the favorites synchronizer depends on.
type Catalog interface {
	GetMovies(ctx context.Context) ([]models.Movie, error)
	GetUser(ctx context.Context, username string) (*models.User, error)
	AddFavorite(ctx context.Context, username, movieID string) (*models.User, error)
	RemoveFavorite(ctx context.Context, username, movieID string) (*models.User, error)
}

var (
	_ Service = (*FlixService)(nil)
	_ Catalog = (*FlixService)(nil)
)
