package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/flix/internal/models"
)

var (
	_ list.Item = movieItem{}
)

const heart = "♥"

// movieItem wraps [models.Movie] to implement [list.Item].
type movieItem struct {
	movie    models.Movie
	favorite bool
}

func (i movieItem) FilterValue() string { return i.movie.Title }
func (i movieItem) Title() string {
	if i.favorite {
		return heart + " " + i.movie.Title
	}
	return "  " + i.movie.Title
}
func (i movieItem) Description() string {
	parts := make([]string, 0, 3)
	if i.movie.Director.Name != "" {
		parts = append(parts, i.movie.Director.Name)
	}
	if i.movie.Genre.Name != "" {
		parts = append(parts, i.movie.Genre.Name)
	}
	if i.movie.Featured {
		parts = append(parts, "featured")
	}
	return strings.Join(parts, " • ")
}

// movieItems builds list items, marking the movies isFavorite reports.
func movieItems(movies []models.Movie, isFavorite func(string) bool) []list.Item {
	items := make([]list.Item, len(movies))
	for i, m := range movies {
		items[i] = movieItem{movie: m, favorite: isFavorite(m.ID)}
	}
	return items
}
