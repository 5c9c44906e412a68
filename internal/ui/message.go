package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgFavoritesLoaded MsgKind = iota
	MsgFavoriteToggled
	MsgNotification
)

type loadResult struct {
	favorites models.Favorites
	err       error
}

type toggleResult struct {
	movie    models.Movie
	favorite bool
	err      error
}

// favoritesLoadedMsg is the constructor for [MsgFavoritesLoaded]
func favoritesLoadedMsg(fav models.Favorites, err error) Msg {
	return Msg{kind: MsgFavoritesLoaded, data: loadResult{favorites: fav, err: err}}
}

// favoriteToggledMsg is the constructor for [MsgFavoriteToggled]
func favoriteToggledMsg(movie models.Movie, favorite bool, err error) Msg {
	return Msg{kind: MsgFavoriteToggled, data: toggleResult{movie: movie, favorite: favorite, err: err}}
}

// notificationMsg is the constructor for [MsgNotification]
func notificationMsg(n tasks.Notification) Msg {
	return Msg{kind: MsgNotification, data: n}
}
