package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/desertthunder/flix/internal/tasks"
	"github.com/desertthunder/flix/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive catalog browser for the signed-in user.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	username, err := r.requireSession()
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	if lvl, err := shared.ParseLogLevel(r.config.Log.Level); err == nil {
		shared.SetLogLevel(fileLogger, lvl)
	}
	r.SetLogger(fileLogger)

	notes := tasks.NewChannelNotifier(16)
	synchronizer := r.newSynchronizer(tasks.SyncOptions{Notifier: notes, Logger: fileLogger})
	defer synchronizer.Close()

	model := ui.NewModel(ctx, synchronizer, notes, username)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if dropped := notes.Dropped(); dropped > 0 {
		fileLogger.Warn("notifications dropped while the TUI was busy", "count", dropped)
	}
	return nil
}
