package server

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/desertthunder/flix/internal/models"
)

//go:embed seed.toml
var defaultSeed []byte

// Seed is the initial catalog and accounts of the stub backend.
type Seed struct {
	Movies []SeedMovie `toml:"movies"`
	Users  []SeedUser  `toml:"users"`
}

// SeedMovie is a catalog entry in a seed file.
type SeedMovie struct {
	ID          string `toml:"id"`
	Title       string `toml:"title"`
	Description string `toml:"description"`
	ImagePath   string `toml:"image_path"`
	Featured    bool   `toml:"featured"`
	Director    struct {
		Name  string `toml:"name"`
		Bio   string `toml:"bio"`
		Birth string `toml:"birth"`
		Death string `toml:"death"`
	} `toml:"director"`
	Genre struct {
		Name        string `toml:"name"`
		Description string `toml:"description"`
	} `toml:"genre"`
}

// SeedUser is an account in a seed file. Passwords are stored in plain text and hashed on load.
type SeedUser struct {
	Username  string   `toml:"username"`
	Password  string   `toml:"password"`
	Email     string   `toml:"email"`
	Birthday  string   `toml:"birthday"`
	Favorites []string `toml:"favorites"`
}

// LoadSeed reads a seed file, or the built-in sample when path is empty.
func LoadSeed(path string) (*Seed, error) {
	data := defaultSeed
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
	}

	var seed Seed
	if err := toml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	return &seed, nil
}

// Catalog converts the seed's movies to models.
func (s *Seed) Catalog() []models.Movie {
	movies := make([]models.Movie, 0, len(s.Movies))
	for _, m := range s.Movies {
		movies = append(movies, models.Movie{
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
			ImagePath:   m.ImagePath,
			Featured:    m.Featured,
			Director: models.Director{
				Name:  m.Director.Name,
				Bio:   m.Director.Bio,
				Birth: models.Year(m.Director.Birth),
				Death: models.Year(m.Director.Death),
			},
			Genre: models.Genre{Name: m.Genre.Name, Description: m.Genre.Description},
		})
	}
	return movies
}

// NewSeededStore creates a Store with the seed's catalog and accounts.
func NewSeededStore(seed *Seed, cost int) (*Store, error) {
	store := NewStore(seed.Catalog(), cost)

	for _, u := range seed.Users {
		reg := models.Registration{Username: u.Username, Password: u.Password, Email: u.Email, Birthday: u.Birthday}
		if _, err := store.CreateUser(reg); err != nil {
			return nil, fmt.Errorf("failed to seed user %s: %w", u.Username, err)
		}
		for _, id := range u.Favorites {
			if _, err := store.AddFavorite(u.Username, id); err != nil {
				return nil, err
			}
		}
	}
	return store, nil
}
