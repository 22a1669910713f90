// package testing contains shared testing utilities
package testing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/signctl/internal/models"
)

// Call is one request received by a [FakePlayer].
type Call struct {
	Method   string
	Path     string
	Filename string // upload form file name, or the file named in the path
	Body     []byte // raw body for /api/order
	Start    time.Time
	End      time.Time
}

// FakePlayer is an in-memory signage player behind an [httptest.Server].
//
// It follows the player's semantics: uploads append new names to the order,
// deletes remove them, and /api/order keeps the posted names the player holds,
// in posted order, followed by any held files the body left out.
type FakePlayer struct {
	Server *httptest.Server

	mu          sync.Mutex
	files       []string
	contents    map[string][]byte
	thumbs      map[string][]byte
	status      models.PlaybackStatus
	calls       []Call
	failures    map[string]int
	delays      map[string]time.Duration
	blocks      map[string]chan struct{}
	orderBodies [][]string
}

// NewFakePlayer starts a fake player holding files, closed on test cleanup.
func NewFakePlayer(t *testing.T, files ...string) *FakePlayer {
	t.Helper()

	f := &FakePlayer{
		files:    append([]string{}, files...),
		contents: map[string][]byte{},
		thumbs:   map[string][]byte{},
		failures: map[string]int{},
		delays:   map[string]time.Duration{},
		blocks:   map[string]chan struct{}{},
	}
	for _, name := range files {
		f.contents[name] = []byte("video:" + name)
	}

	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake player.
func (f *FakePlayer) URL() string { return f.Server.URL }

// SetStatus sets the snapshot returned by GET /api/status.
func (f *FakePlayer) SetStatus(s models.PlaybackStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = s
}

// SetThumbnail makes GET /api/thumbnail/{name} return data.
func (f *FakePlayer) SetThumbnail(name string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.thumbs[name] = data
}

// SetOrder replaces the player's order without recording a call.
func (f *FakePlayer) SetOrder(order ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = append([]string{}, order...)
}

// FailWith makes requests whose path starts with prefix answer code; 0 clears it.
func (f *FakePlayer) FailWith(prefix string, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if code == 0 {
		delete(f.failures, prefix)
		return
	}
	f.failures[prefix] = code
}

// Delay makes requests whose path starts with prefix wait d before answering.
func (f *FakePlayer) Delay(prefix string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[prefix] = d
}

// Block holds requests whose path starts with prefix until the returned func is called.
func (f *FakePlayer) Block(prefix string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.blocks[prefix] = ch
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.blocks, prefix)
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Files returns the player's current order.
func (f *FakePlayer) Files() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.files...)
}

// Content returns the stored bytes of an uploaded file.
func (f *FakePlayer) Content(name string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.contents[name]
	return data, ok
}

// Calls returns every recorded call whose path starts with prefix.
func (f *FakePlayer) Calls(prefix string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if strings.HasPrefix(c.Path, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// OrderBodies returns the decoded bodies of every POST /api/order, in arrival order.
func (f *FakePlayer) OrderBodies() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.orderBodies)
}

func (f *FakePlayer) match(table map[string]int, path string) int {
	for prefix, v := range table {
		if strings.HasPrefix(path, prefix) {
			return v
		}
	}
	return 0
}

func (f *FakePlayer) serve(w http.ResponseWriter, r *http.Request) {
	call := Call{Method: r.Method, Path: r.URL.Path, Start: time.Now()}

	f.mu.Lock()
	code := f.match(f.failures, r.URL.Path)
	var delay time.Duration
	for prefix, d := range f.delays {
		if strings.HasPrefix(r.URL.Path, prefix) {
			delay = d
		}
	}
	var block chan struct{}
	for prefix, ch := range f.blocks {
		if strings.HasPrefix(r.URL.Path, prefix) {
			block = ch
		}
	}
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}
	if delay > 0 {
		time.Sleep(delay)
	}

	defer func() {
		call.End = time.Now()
		f.mu.Lock()
		f.calls = append(f.calls, call)
		f.mu.Unlock()
	}()

	if name, ok := strings.CutPrefix(r.URL.Path, "/api/"); ok {
		if _, rest, found := strings.Cut(name, "/"); found {
			call.Filename = rest
		}
	}

	if code != 0 {
		if r.URL.Path == "/api/upload" {
			io.Copy(io.Discard, r.Body)
		}
		http.Error(w, "injected failure", code)
		return
	}

	switch {
	case r.URL.Path == "/api/list" && r.Method == http.MethodGet:
		json.NewEncoder(w).Encode(f.Files())

	case r.URL.Path == "/api/status" && r.Method == http.MethodGet:
		f.mu.Lock()
		status := f.status
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)

	case r.URL.Path == "/api/playlist.m3u" && r.Method == http.MethodGet:
		w.Header().Set("Content-Type", "text/plain")
		for _, name := range f.Files() {
			fmt.Fprintf(w, "%s\n", filepath.Join("/opt/signage/videos", name))
		}

	case r.URL.Path == "/api/order" && r.Method == http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		call.Body = body
		var order []string
		if err := json.Unmarshal(body, &order); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.files = orderedFiles(order, f.files)
		f.orderBodies = append(f.orderBodies, order)
		f.mu.Unlock()
		w.Write([]byte("OK"))

	case r.URL.Path == "/api/upload" && r.Method == http.MethodPost:
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		call.Filename = header.Filename

		f.mu.Lock()
		f.contents[header.Filename] = data
		if !slices.Contains(f.files, header.Filename) {
			f.files = append(f.files, header.Filename)
		}
		f.mu.Unlock()
		w.Write([]byte("OK"))

	case strings.HasPrefix(r.URL.Path, "/api/delete/") && r.Method == http.MethodDelete:
		f.mu.Lock()
		idx := slices.Index(f.files, call.Filename)
		if idx < 0 {
			f.mu.Unlock()
			http.Error(w, "no such file", http.StatusInternalServerError)
			return
		}
		f.files = slices.Delete(f.files, idx, idx+1)
		delete(f.contents, call.Filename)
		f.mu.Unlock()
		w.Write([]byte("OK"))

	case strings.HasPrefix(r.URL.Path, "/api/play/") && r.Method == http.MethodPost:
		w.Write([]byte("OK"))

	case strings.HasPrefix(r.URL.Path, "/api/thumbnail/") && r.Method == http.MethodGet:
		f.mu.Lock()
		data, ok := f.thumbs[call.Filename]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)

	case strings.HasPrefix(r.URL.Path, "/api/download/") && r.Method == http.MethodGet:
		data, ok := f.Content(call.Filename)
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)

	default:
		http.NotFound(w, r)
	}
}

// orderedFiles returns the names of posted found in held, each once, then the rest of held.
func orderedFiles(posted, held []string) []string {
	out := make([]string, 0, len(held))
	for _, name := range posted {
		if slices.Contains(held, name) && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	for _, name := range held {
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	mu       sync.Mutex
	response *http.Response
	err      error
	Calls    int
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// FWriter simulates a failure when writing output
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// WriteTempFile writes content to name inside a fresh temp dir and returns its path.
func WriteTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// Eventually polls cond every few milliseconds until it holds or timeout elapses.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string, args ...any) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !cond() {
		t.Fatalf(msg, args...)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
