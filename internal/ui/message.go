package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/signctl/internal/tasks"
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
	MsgStateChanged MsgKind = iota
	MsgThumbnailLoaded
	MsgActionDone
	MsgProgressUpdate
	MsgUploadComplete
)

type thumbnailData struct {
	name   string
	swatch string
	err    error
}

type actionData struct {
	label string // past-tense description shown on success
	err   error
}

type uploadData struct {
	result *tasks.UploadResult
	err    error
}

// stateChangedMsg is the constructor for [MsgStateChanged]
func stateChangedMsg() Msg {
	return Msg{kind: MsgStateChanged}
}

// thumbnailLoadedMsg is the constructor for [MsgThumbnailLoaded]
func thumbnailLoadedMsg(name, swatch string, err error) Msg {
	return Msg{kind: MsgThumbnailLoaded, data: thumbnailData{name, swatch, err}}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(label string, err error) Msg {
	return Msg{kind: MsgActionDone, data: actionData{label, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// uploadCompleteMsg is the constructor for [MsgUploadComplete]
func uploadCompleteMsg(result *tasks.UploadResult, err error) Msg {
	return Msg{kind: MsgUploadComplete, data: uploadData{result, err}}
}
