// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI browses the myFlix catalog and keeps a user's favorites in sync with the server:
//  1. [CatalogView] : Browse every movie, favorites marked with ♥
//  2. [FavoritesView] : The materialized favorites list, in server order
//  3. [DetailView] : Description, director and genre of one movie
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// All network work goes through a [tasks.Synchronizer]; user-facing messages arrive on a [tasks.ChannelNotifier]
// and are shown on the status line.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, f, tab, r, q) with contextual help displayed via charmbracelet/bubbles/help.
// Quitting closes the synchronizer, which cancels any request still in flight.
package ui
