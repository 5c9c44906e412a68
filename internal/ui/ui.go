package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/desertthunder/flix/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CatalogView ViewState = iota
	FavoritesView
	DetailView
)

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	sync      *tasks.Synchronizer
	notes     *tasks.ChannelNotifier
	username  string
	view      ViewState
	listView  ViewState // list to return to from the detail view
	width     int
	height    int
	catalog   list.Model
	favorites list.Model
	selected  *models.Movie
	loading   bool
	toggling  bool
	spinner   spinner.Model
	status    string
	level     tasks.Level
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model.
//
// notes must be the [tasks.ChannelNotifier] the synchronizer was created with.
func NewModel(ctx context.Context, sync *tasks.Synchronizer, notes *tasks.ChannelNotifier, username string) *Model {
	catalog := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	catalog.Title = "Movies"
	favorites := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	favorites.Title = fmt.Sprintf("%s's favorites", username)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		ctx:       ctx,
		sync:      sync,
		notes:     notes,
		username:  username,
		view:      CatalogView,
		listView:  CatalogView,
		catalog:   catalog,
		favorites: favorites,
		loading:   true,
		spinner:   sp,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init starts loading favorites and listening for notifications.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadFavorites(), m.waitForNotification(), m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.catalog.SetSize(msg.Width-4, msg.Height-8)
		m.favorites.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case spinner.TickMsg:
		if !m.loading && !m.toggling {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgFavoritesLoaded:
		res := msg.data.(loadResult)
		m.loading = false
		if res.err != nil {
			if m.sync.Snapshot().Loaded {
				return m, nil
			}
			m.err = res.err
			return m, nil
		}
		m.err = nil
		return m, m.refreshLists()

	case MsgFavoriteToggled:
		res := msg.data.(toggleResult)
		m.toggling = false
		if res.err != nil {
			if !m.sync.Snapshot().Loaded {
				m.err = res.err
			}
			return m, nil
		}
		return m, m.refreshLists()

	case MsgNotification:
		n := msg.data.(tasks.Notification)
		m.status = n.Message
		m.level = n.Level
		return m, m.waitForNotification()
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %s\n\nPress r to retry, q to quit", m.errorText()))
	}
	if m.loading && !m.sync.Snapshot().Loaded {
		return fmt.Sprintf("%s Loading movies for %s...", m.spinner.View(), m.username)
	}

	var body string
	switch m.view {
	case CatalogView:
		body = m.renderList(m.catalog)
	case FavoritesView:
		body = m.renderList(m.favorites)
	case DetailView:
		body = m.renderDetail()
	}

	return fmt.Sprintf("%s\n%s", body, m.renderStatus())
}

// errorText prefers the user-facing notification over the raw error.
func (m *Model) errorText() string {
	if m.status != "" && m.level == tasks.LevelError {
		return m.status
	}
	return m.err.Error()
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering() {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.reload):
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.loadFavorites(), m.spinner.Tick)
	}

	if m.err != nil || !m.sync.Snapshot().Loaded {
		return m, nil
	}

	switch m.view {
	case CatalogView, FavoritesView:
		return m.handleListKeys(msg)
	case DetailView:
		return m.handleDetailKeys(msg)
	}
	return m, nil
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.tab):
		if m.view == CatalogView {
			m.view = FavoritesView
		} else {
			m.view = CatalogView
		}
		m.listView = m.view
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if movie, ok := m.selectedMovie(); ok {
			m.selected = &movie
			m.view = DetailView
		}
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		if movie, ok := m.selectedMovie(); ok {
			return m, m.toggleFavorite(movie)
		}
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = m.listView
		m.selected = nil
	case key.Matches(msg, m.keys.toggle):
		if m.selected != nil {
			return m, m.toggleFavorite(*m.selected)
		}
	}
	return m, nil
}

func (m *Model) filtering() bool {
	switch m.view {
	case CatalogView:
		return m.catalog.FilterState() == list.Filtering
	case FavoritesView:
		return m.favorites.FilterState() == list.Filtering
	}
	return false
}

func (m *Model) selectedMovie() (models.Movie, bool) {
	var item list.Item
	switch m.view {
	case CatalogView:
		item = m.catalog.SelectedItem()
	case FavoritesView:
		item = m.favorites.SelectedItem()
	}
	if mi, ok := item.(movieItem); ok {
		return mi.movie, true
	}
	return models.Movie{}, false
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case CatalogView:
		m.catalog, cmd = m.catalog.Update(msg)
	case FavoritesView:
		m.favorites, cmd = m.favorites.Update(msg)
	}
	return m, cmd
}

// refreshLists rebuilds both lists from the synchronizer's current state.
func (m *Model) refreshLists() tea.Cmd {
	fav := m.sync.Favorites()
	isFavorite := m.sync.IsFavorite

	title := fmt.Sprintf("%s's favorites", m.username)
	if fav.Dropped > 0 {
		title = fmt.Sprintf("%s (%d unavailable)", title, fav.Dropped)
	}
	m.favorites.Title = title

	return tea.Batch(
		m.catalog.SetItems(movieItems(m.sync.Catalog(), isFavorite)),
		m.favorites.SetItems(movieItems(fav.Movies, isFavorite)),
	)
}

func (m *Model) loadFavorites() tea.Cmd {
	return func() tea.Msg {
		fav, err := m.sync.LoadFavorites(m.ctx, m.username)
		return favoritesLoadedMsg(fav, err)
	}
}

func (m *Model) toggleFavorite(movie models.Movie) tea.Cmd {
	if m.toggling {
		return nil
	}
	m.toggling = true
	return tea.Batch(func() tea.Msg {
		now, err := m.sync.ToggleFavorite(m.ctx, movie)
		return favoriteToggledMsg(movie, now, err)
	}, m.spinner.Tick)
}

func (m *Model) waitForNotification() tea.Cmd {
	if m.notes == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case n := <-m.notes.C():
			return notificationMsg(n)
		case <-m.ctx.Done():
			return nil
		}
	}
}

// quit cancels in-flight requests before leaving.
func (m *Model) quit() tea.Cmd {
	m.sync.Close()
	return tea.Quit
}

func (m *Model) renderList(l list.Model) string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.toggle, m.keys.tab, m.keys.reload, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", l.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderDetail() string {
	if m.selected == nil {
		return ""
	}
	mv := *m.selected

	title := mv.Title
	if m.sync.IsFavorite(mv.ID) {
		title = fmt.Sprintf("%s %s", title, styles.fav.Render(heart))
	}

	width := m.width - 4
	if width < 20 {
		width = 76
	}
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")
	if mv.Description != "" {
		b.WriteString(wrap.Render(mv.Description))
		b.WriteString("\n\n")
	}

	d := mv.Director
	fmt.Fprintf(&b, "%s %s (%s-%s)\n", styles.label.Render("Director:"), d.Name, shared.YearString(string(d.Birth)), string(d.Death))
	if d.Bio != "" {
		b.WriteString(wrap.Render(d.Bio))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s %s\n", styles.label.Render("Genre:"), mv.Genre.Name)
	if mv.Genre.Description != "" {
		b.WriteString(wrap.Render(mv.Genre.Description))
		b.WriteString("\n")
	}
	if mv.Featured {
		b.WriteString("\n" + styles.ok.Render("Featured") + "\n")
	}

	helpKeys := []key.Binding{m.keys.toggle, m.keys.back, m.keys.quit}
	fmt.Fprintf(&b, "\n%s", m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderStatus() string {
	prefix := ""
	if m.loading || m.toggling {
		prefix = m.spinner.View() + " "
	}
	if m.status == "" {
		return prefix
	}
	if m.level == tasks.LevelError {
		return prefix + styles.warn.Render(m.status)
	}
	return prefix + styles.help.Render(m.status)
}
