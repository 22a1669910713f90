package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/signctl/internal/formatter"
	"github.com/desertthunder/signctl/internal/shared"
	"github.com/desertthunder/signctl/internal/tasks"
	"github.com/desertthunder/signctl/internal/thumbs"
)

// Mode is the current interaction mode of the TUI.
type Mode int

const (
	BrowseMode Mode = iota
	DragMode
	ConfirmDeleteMode
	UploadInputMode
	SaveInputMode
)

// Options configures a [Model].
type Options struct {
	ThumbWidth  int
	ThumbHeight int
	Logger      *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	ctrl    *tasks.Controller
	changes chan struct{}
	logger  *log.Logger

	mode   Mode
	cursor int
	width  int
	height int

	swatches map[string]string
	loading  map[string]bool
	thumbW   int
	thumbH   int

	progressChan chan tasks.ProgressUpdate
	uploadDone   chan uploadData
	progress     tasks.ProgressUpdate
	message      string

	input   textinput.Model
	spinner spinner.Model
	bar     progress.Model
	help    help.Model
	keys    keyMap
}

// NewModel creates a TUI model driving ctrl. The controller must not be started yet.
func NewModel(ctx context.Context, ctrl *tasks.Controller, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}
	if opts.ThumbWidth <= 0 {
		opts.ThumbWidth = thumbs.DefaultWidth
	}
	if opts.ThumbHeight <= 0 {
		opts.ThumbHeight = thumbs.DefaultHeight
	}

	input := textinput.New()
	input.CharLimit = 4096

	m := &Model{
		ctx:      ctx,
		ctrl:     ctrl,
		changes:  make(chan struct{}, 1),
		logger:   shared.WithLogger(opts.Logger, "component", "ui"),
		swatches: map[string]string{},
		loading:  map[string]bool{},
		thumbW:   opts.ThumbWidth,
		thumbH:   opts.ThumbHeight,
		input:    input,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:     help.New(),
		keys:     newKeyMap(),
	}

	// Coalesce change notifications: one pending signal is enough to trigger a repaint.
	ctrl.State().OnChange(func() {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	})
	return m
}

// Init starts the controller and begins listening for state changes.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.start(), m.waitForChange(), m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(msg.Width-8, 10)
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-20, 10)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case BrowseMode:
			return m.handleBrowseKeys(msg)
		case DragMode:
			return m.handleDragKeys(msg)
		case ConfirmDeleteMode:
			return m.handleConfirmKeys(msg)
		case UploadInputMode, SaveInputMode:
			return m.handleInputKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgStateChanged:
		m.clampCursor()
		m.pruneSwatches()
		return m, tea.Batch(m.waitForChange(), m.loadThumbnails())

	case MsgThumbnailLoaded:
		data := msg.data.(thumbnailData)
		delete(m.loading, data.name)
		if data.err == nil && slices.Contains(m.ctrl.State().Order(), data.name) {
			m.swatches[data.name] = data.swatch
		}
		return m, nil

	case MsgActionDone:
		data := msg.data.(actionData)
		if data.err == nil && data.label != "" {
			m.message = data.label
		}
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgUploadComplete:
		data := msg.data.(uploadData)
		m.progressChan, m.uploadDone = nil, nil
		m.progress = tasks.ProgressUpdate{}
		if data.result != nil && data.result.Failed+data.result.Cancelled == 0 {
			m.message = fmt.Sprintf("uploaded %d file(s)", data.result.Succeeded)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	view := m.ctrl.State()
	order := view.Order()
	view.ClearNotice()
	m.message = ""

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.refresh):
		return m, m.action("refreshed", m.ctrl.Refresh)
	case key.Matches(msg, m.keys.upload):
		if view.IsUploading() {
			return m, nil
		}
		m.openInput(UploadInputMode, "files to upload: ", "")
		return m, textinput.Blink
	}

	if len(order) == 0 {
		return m, nil
	}
	// The playlist may have shrunk since the last state change was handled.
	m.cursor = min(max(m.cursor, 0), len(order)-1)
	name := order[m.cursor]

	switch {
	case key.Matches(msg, m.keys.drag):
		if err := m.ctrl.Reorder().StartDrag(m.cursor); err != nil {
			m.logger.Debug("drag rejected", "error", err)
			return m, nil
		}
		m.mode = DragMode
	case key.Matches(msg, m.keys.play):
		return m, m.action("playing "+name, func(ctx context.Context) error { return m.ctrl.Play(ctx, name) })
	case key.Matches(msg, m.keys.remove):
		m.mode = ConfirmDeleteMode
	case key.Matches(msg, m.keys.save):
		m.openInput(SaveInputMode, "save as: ", name)
		return m, textinput.Blink
	}
	return m, nil
}

func (m *Model) handleDragKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	reorder := m.ctrl.Reorder()

	switch {
	case key.Matches(msg, m.keys.quit):
		reorder.CancelDrag()
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		reorder.CancelDrag()
		m.mode = BrowseMode
	case key.Matches(msg, m.keys.up), key.Matches(msg, m.keys.down):
		if key.Matches(msg, m.keys.up) {
			m.moveCursor(-1)
		} else {
			m.moveCursor(1)
		}
		if err := reorder.Hover(m.cursor); err != nil {
			m.mode = BrowseMode
		}
	case key.Matches(msg, m.keys.drag), key.Matches(msg, m.keys.submit):
		m.mode = BrowseMode
		move, err := reorder.Drop(m.cursor)
		if err != nil {
			m.ctrl.State().SetNotice(fmt.Sprintf("reorder rejected: %v", err))
			return m, nil
		}
		if move == nil {
			return m, nil
		}
		return m, m.action("", move.Persist)
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.mode = BrowseMode
		order := m.ctrl.State().Order()
		if m.cursor >= len(order) {
			return m, nil
		}
		name := order[m.cursor]
		return m, m.action("deleted "+name, func(ctx context.Context) error { return m.ctrl.Delete(ctx, name) })
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.mode = BrowseMode
	}
	return m, nil
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.closeInput()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.closeInput()
		if value == "" {
			return m, nil
		}
		if mode == UploadInputMode {
			return m, m.startUpload(strings.Fields(value))
		}
		return m, m.download(value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) openInput(mode Mode, prompt, value string) {
	m.mode = mode
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) closeInput() {
	m.mode = BrowseMode
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.ctrl.State().Order())
	switch {
	case n == 0:
		m.cursor = 0
	case m.cursor >= n:
		m.cursor = n - 1
	case m.cursor < 0:
		m.cursor = 0
	}
}

func (m *Model) start() tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg("", m.ctrl.Start(m.ctx))
	}
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.changes:
			return stateChangedMsg()
		case <-m.ctx.Done():
			return nil
		}
	}
}

// action runs fn off the update loop; failures already reach the view as notices.
func (m *Model) action(label string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg(label, fn(m.ctx))
	}
}

// loadThumbnails requests every swatch that is neither cached, in flight nor faulted.
// pruneSwatches drops cached swatches of files no longer in the playlist.
func (m *Model) pruneSwatches() {
	order := m.ctrl.State().Order()
	for name := range m.swatches {
		if !slices.Contains(order, name) {
			delete(m.swatches, name)
		}
	}
}

func (m *Model) loadThumbnails() tea.Cmd {
	view := m.ctrl.State()
	var cmds []tea.Cmd
	for _, name := range view.Order() {
		if _, ok := m.swatches[name]; ok || m.loading[name] || view.HasFault(name) {
			continue
		}
		m.loading[name] = true
		cmds = append(cmds, m.fetchThumbnail(name))
	}
	return tea.Batch(cmds...)
}

func (m *Model) fetchThumbnail(name string) tea.Cmd {
	w, h := m.thumbW, m.thumbH
	return func() tea.Msg {
		data, err := m.ctrl.Thumbnail(m.ctx, name)
		if err != nil {
			return thumbnailLoadedMsg(name, "", err)
		}
		swatch, err := thumbs.Swatch(data, w, h)
		if err != nil {
			m.ctrl.ReportThumbnailError(name)
			return thumbnailLoadedMsg(name, "", err)
		}
		return thumbnailLoadedMsg(name, swatch, nil)
	}
}

func (m *Model) startUpload(paths []string) tea.Cmd {
	progressChan := make(chan tasks.ProgressUpdate, 16)
	done := make(chan uploadData, 1)
	m.progressChan, m.uploadDone = progressChan, done

	go func() {
		result, err := m.ctrl.Upload(m.ctx, paths, progressChan)
		done <- uploadData{result, err}
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan, done := m.progressChan, m.uploadDone
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}
		update, ok := <-progressChan
		if !ok {
			out := <-done
			return uploadCompleteMsg(out.result, out.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) download(dest string) tea.Cmd {
	order := m.ctrl.State().Order()
	if m.cursor >= len(order) {
		return nil
	}
	name := order[m.cursor]

	return m.action("saved "+dest, func(ctx context.Context) error {
		if dir := filepath.Dir(dest); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
		f, err := os.Create(dest)
		if err != nil {
			m.ctrl.State().SetNotice(fmt.Sprintf("save failed: %v", err))
			return err
		}
		_, err = m.ctrl.Download(ctx, name, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(dest)
		}
		return err
	})
}

// View renders the UI based on the current mode.
func (m *Model) View() string {
	view := m.ctrl.State()
	var b strings.Builder

	b.WriteString(styles.title.Render("signctl • " + m.ctrl.Service().BaseURL()))
	b.WriteString("\n")

	status := view.Status()
	if now := formatter.NowPlaying(status); now != "" {
		b.WriteString(styles.playing.Render("now playing: " + now))
		b.WriteString("\n")
		b.WriteString(m.bar.ViewAs(status.Progress()))
		b.WriteString("\n")
	}

	if view.IsUploading() {
		line := m.progress.Message
		if line == "" {
			line = "uploading..."
		}
		b.WriteString(m.spinner.View() + " " + styles.warn.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.renderRows())

	if notice := view.Notice(); notice != "" {
		b.WriteString("\n" + styles.err.Render(notice) + "\n")
	} else if m.message != "" {
		b.WriteString("\n" + styles.ok.Render(m.message) + "\n")
	}

	b.WriteString("\n")
	switch m.mode {
	case ConfirmDeleteMode:
		if order := view.Order(); m.cursor < len(order) {
			b.WriteString(styles.warn.Render(fmt.Sprintf("delete %s?", order[m.cursor])) + " ")
		}
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no}))
	case UploadInputMode, SaveInputMode:
		b.WriteString(m.input.View() + "\n")
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.submit, m.keys.back}))
	case DragMode:
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.drag, m.keys.back}))
	default:
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m *Model) renderRows() string {
	view := m.ctrl.State()
	order := view.Order()
	if len(order) == 0 {
		return styles.help.Render("no files on the player; press u to upload") + "\n"
	}

	hints := view.DragHints()
	playing := view.Status().Filename

	var b strings.Builder
	for i, name := range order {
		row := fileRow{
			index:    i,
			name:     name,
			swatch:   m.swatches[name],
			faulted:  view.HasFault(name),
			selected: i == m.cursor,
			playing:  name == playing,
			hints:    hints,
		}
		b.WriteString(row.render(m.thumbW))
		b.WriteString("\n")
	}
	return b.String()
}
