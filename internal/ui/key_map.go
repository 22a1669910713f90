package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	drag    key.Binding
	play    key.Binding
	back    key.Binding
	remove  key.Binding
	upload  key.Binding
	save    key.Binding
	refresh key.Binding
	yes     key.Binding
	no      key.Binding
	submit  key.Binding
	help    key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		drag:    key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "grab/drop")),
		play:    key.NewBinding(key.WithKeys("enter", "p"), key.WithHelp("enter/p", "play now")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		remove:  key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		upload:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload")),
		save:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "download")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:      key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.drag, k.play, k.remove, k.upload, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.drag, k.back},
		{k.play, k.remove, k.save},
		{k.upload, k.refresh, k.quit},
	}
}
