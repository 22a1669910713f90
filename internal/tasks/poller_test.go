package tasks

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/desertthunder/signctl/internal/metrics"
	"github.com/desertthunder/signctl/internal/models"
	"github.com/desertthunder/signctl/internal/shared"
	"github.com/desertthunder/signctl/internal/state"
	tu "github.com/desertthunder/signctl/internal/testing"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatusPoller(t *testing.T) {
	t.Run("Fetches Immediately On Start", func(t *testing.T) {
		player, svc := newPlayerService(t, "a.mp4")
		player.SetStatus(models.PlaybackStatus{Filename: "a.mp4", Elapsed: 4, Duration: 30})

		view := state.New()
		poller := NewStatusPoller(svc, view, time.Hour, nil, nil)
		if err := poller.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		defer poller.Stop()

		tu.Eventually(t, time.Second, func() bool { return view.Status().Filename == "a.mp4" }, "status never fetched")
		if calls := player.Calls("/api/status"); len(calls) != 1 {
			t.Errorf("expected one immediate call, got %d", len(calls))
		}
	})

	t.Run("Polls Every Interval", func(t *testing.T) {
		stub := &stubService{}
		poller := NewStatusPoller(stub, state.New(), 20*time.Millisecond, nil, nil)
		poller.Start(context.Background())
		defer poller.Stop()

		tu.Eventually(t, time.Second, func() bool { return stub.calls.Load() >= 4 }, "expected repeated polls")
	})

	t.Run("Replaces Status Wholesale Without Touching Order", func(t *testing.T) {
		player, svc := newPlayerService(t, "a.mp4", "b.mp4")
		view := syncedView(t, svc)
		view.SetStatus(models.PlaybackStatus{Filename: "a.mp4", Elapsed: 9, Duration: 10})
		player.SetStatus(models.PlaybackStatus{Filename: "b.mp4", Elapsed: 1, Duration: 0})

		poller := NewStatusPoller(svc, view, time.Second, nil, nil)
		if err := poller.Poll(context.Background()); err != nil {
			t.Fatalf("Poll() error = %v", err)
		}

		want := models.PlaybackStatus{Filename: "b.mp4", Elapsed: 1, Duration: 0}
		if got := view.Status(); got != want {
			t.Errorf("expected %+v, got %+v", want, got)
		}
		if !view.Order().Equal(models.PlaylistOrder{"a.mp4", "b.mp4"}) {
			t.Errorf("poll changed the order: %v", view.Order())
		}
		if len(player.Calls("/api/list")) != 1 {
			t.Error("poll must not request the playlist")
		}
	})

	t.Run("Idle Status", func(t *testing.T) {
		_, svc := newPlayerService(t)
		view := state.New()
		view.SetStatus(models.PlaybackStatus{Filename: "old.mp4", Elapsed: 3, Duration: 5})

		poller := NewStatusPoller(svc, view, time.Second, nil, nil)
		if err := poller.Poll(context.Background()); err != nil {
			t.Fatalf("Poll() error = %v", err)
		}
		if view.Status().Playing() {
			t.Errorf("expected idle status, got %+v", view.Status())
		}
	})

	t.Run("Failure Keeps Previous Status", func(t *testing.T) {
		player, svc := newPlayerService(t, "a.mp4")
		player.SetStatus(models.PlaybackStatus{Filename: "a.mp4", Elapsed: 2, Duration: 8})
		m := metrics.New()
		view := state.New()
		poller := NewStatusPoller(svc, view, time.Second, m, nil)

		if err := poller.Poll(context.Background()); err != nil {
			t.Fatalf("Poll() error = %v", err)
		}
		before := view.Status()

		player.FailWith("/api/status", http.StatusBadGateway)
		err := poller.Poll(context.Background())
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		poller.Poll(context.Background())

		if view.Status() != before {
			t.Errorf("failed poll replaced status: %+v", view.Status())
		}
		if view.Notice() != "" {
			t.Errorf("poll failures must not reach the operator, got notice %q", view.Notice())
		}
		if got := testutil.ToFloat64(m.StatusPollFailures); got != 2 {
			t.Errorf("expected 2 counted failures, got %v", got)
		}
	})

	t.Run("Start Twice", func(t *testing.T) {
		poller := NewStatusPoller(&stubService{}, state.New(), time.Hour, nil, nil)
		if err := poller.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if err := poller.Start(context.Background()); !errors.Is(err, shared.ErrPollerRunning) {
			t.Errorf("expected ErrPollerRunning, got %v", err)
		}

		poller.Stop()
		poller.Stop()
		if poller.Running() {
			t.Error("expected poller stopped")
		}
		if err := poller.Start(context.Background()); err != nil {
			t.Errorf("restart after Stop failed: %v", err)
		}
		poller.Stop()
	})

	t.Run("Stop Discards In-Flight Result", func(t *testing.T) {
		player, svc := newPlayerService(t, "a.mp4")
		release := player.Block("/api/status")
		defer release()
		player.SetStatus(models.PlaybackStatus{Filename: "a.mp4", Elapsed: 1, Duration: 2})

		view := state.New()
		poller := NewStatusPoller(svc, view, time.Hour, nil, nil)
		poller.Start(context.Background())
		time.Sleep(30 * time.Millisecond)

		poller.Stop()
		release()
		time.Sleep(30 * time.Millisecond)

		if view.Status().Playing() {
			t.Errorf("result applied after Stop: %+v", view.Status())
		}
	})

	t.Run("Requests Never Overlap", func(t *testing.T) {
		stub := &stubService{delay: 15 * time.Millisecond}
		poller := NewStatusPoller(stub, state.New(), 10*time.Millisecond, nil, nil)
		poller.Start(context.Background())
		time.Sleep(150 * time.Millisecond)
		poller.Stop()

		if stub.calls.Load() < 2 {
			t.Fatalf("expected several polls, got %d", stub.calls.Load())
		}
		if got := stub.maxSeen.Load(); got != 1 {
			t.Errorf("expected at most one request in flight, saw %d", got)
		}
	})

	t.Run("Parent Context Cancellation", func(t *testing.T) {
		stub := &stubService{}
		ctx, cancel := context.WithCancel(context.Background())
		poller := NewStatusPoller(stub, state.New(), 10*time.Millisecond, nil, nil)
		poller.Start(ctx)
		cancel()
		poller.Stop()

		calls := stub.calls.Load()
		time.Sleep(40 * time.Millisecond)
		if stub.calls.Load() != calls {
			t.Error("poller kept polling after its context ended")
		}
	})

	t.Run("Restartable After Parent Cancellation", func(t *testing.T) {
		stub := &stubService{}
		ctx, cancel := context.WithCancel(context.Background())
		poller := NewStatusPoller(stub, state.New(), 10*time.Millisecond, nil, nil)
		if err := poller.Start(ctx); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		cancel()

		tu.Eventually(t, time.Second, func() bool { return !poller.Running() },
			"expected poller to stop running after its context ended")

		if err := poller.Start(context.Background()); err != nil {
			t.Fatalf("expected restart to succeed, got %v", err)
		}
		defer poller.Stop()

		calls := stub.calls.Load()
		tu.Eventually(t, time.Second, func() bool { return stub.calls.Load() > calls },
			"expected the restarted poller to fetch")
	})
}
