package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/signctl/internal/state"
	"github.com/desertthunder/signctl/internal/thumbs"
)

// fileRow is one rendered line of the playlist.
type fileRow struct {
	index    int
	name     string
	swatch   string // "" while loading
	faulted  bool
	selected bool
	playing  bool
	hints    state.DragHints
}

func (r fileRow) render(width int) string {
	cursor := "  "
	if r.selected {
		cursor = styles.cursor.Render("> ")
	}

	thumb := r.swatch
	switch {
	case r.faulted:
		thumb = styles.help.Render(thumbs.Placeholder(width))
	case thumb == "":
		thumb = strings.Repeat(" ", max(width, 1))
	}

	label := fmt.Sprintf("%2d. %s", r.index+1, r.name)
	switch {
	case r.hints.Active && r.hints.Source == r.index:
		label = styles.dragged.Render(label + "  ≡")
	case r.hints.Highlighted(r.index):
		label = styles.target.Render(label)
	case r.playing:
		label = styles.playing.Render(label + "  ▶")
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, cursor, thumb, "  ", label)
}
