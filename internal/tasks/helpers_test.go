package tasks

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/signctl/internal/models"
	"github.com/desertthunder/signctl/internal/services"
	"github.com/desertthunder/signctl/internal/state"
	tu "github.com/desertthunder/signctl/internal/testing"
)

func newPlayerService(t *testing.T, files ...string) (*tu.FakePlayer, *services.SignageService) {
	t.Helper()
	player := tu.NewFakePlayer(t, files...)
	return player, services.NewSignageService(services.SignageOpts{BaseURL: player.URL()})
}

// syncedView returns a view whose order was confirmed from the player.
func syncedView(t *testing.T, svc services.Service) *state.ViewState {
	t.Helper()
	order, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	view := state.New()
	view.SyncOrder(order)
	return view
}

// stubService is a [services.Service] whose Status is scripted and instrumented.
type stubService struct {
	mu       sync.Mutex
	status   *models.PlaybackStatus
	err      error
	delay    time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	calls    atomic.Int32
}

func (s *stubService) Status(ctx context.Context) (*models.PlaybackStatus, error) {
	s.calls.Add(1)
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if n <= seen || s.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	s.mu.Lock()
	delay, status, err := s.delay, s.status, s.err
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if status == nil {
		return &models.PlaybackStatus{}, nil
	}
	cp := *status
	return &cp, nil
}

func (s *stubService) List(context.Context) (models.PlaylistOrder, error) {
	return models.PlaylistOrder{}, nil
}
func (s *stubService) Upload(context.Context, string, io.Reader) error { return nil }
func (s *stubService) Delete(context.Context, string) error { return nil }
func (s *stubService) Play(context.Context, string) error { return nil }
func (s *stubService) SetOrder(context.Context, models.PlaylistOrder) error { return nil }
func (s *stubService) Thumbnail(context.Context, string) ([]byte, error) { return nil, nil }
func (s *stubService) Playlist(context.Context) ([]string, error) { return nil, nil }
func (s *stubService) BaseURL() string { return "stub://" }
func (s *stubService) Download(context.Context, string, io.Writer) (int64, error) {
	return 0, nil
}
