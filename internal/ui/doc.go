// Package ui implements the interactive terminal controller using bubbletea's Elm architecture.
//
// The screen shows the player's playlist with a thumbnail swatch per file, a "now playing" line with a
// progress bar while something plays, an upload spinner, and the latest notice. Interaction modes:
//  1. [BrowseMode] : move the cursor, play, delete, upload, download, refresh
//  2. [DragMode] : space grabs a row, arrows hover, space drops, esc cancels
//  3. [ConfirmDeleteMode] : y/n before a delete
//  4. [UploadInputMode] and [SaveInputMode] : a text prompt for paths
//
// The (view) [Model] never mutates playlist state itself. It drives a [tasks.Controller] from commands
// and repaints when the controller's [state.ViewState] reports a change. Change notifications arrive
// through a one-slot channel, so bursts of mutations collapse into a single repaint.
//
// Keyboard navigation uses vim-style bindings (j/k, space, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
