package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/signctl/internal/shared"
	"github.com/desertthunder/signctl/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive playlist controller.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(ctx, cmd); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	ctrl := r.controller(0)
	defer ctrl.Close()

	model := ui.NewModel(ctx, ctrl, ui.Options{
		ThumbWidth:  r.config.Thumbnails.Width,
		ThumbHeight: r.config.Thumbnails.Height,
		Logger:      fileLogger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
