package tasks

import (
	"testing"
	"time"

	"github.com/desertthunder/signctl/internal/metrics"
	"github.com/desertthunder/signctl/internal/state"
	tu "github.com/desertthunder/signctl/internal/testing"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestFaultTracker(t *testing.T) {
	t.Run("Marks Immediately And Expires After TTL", func(t *testing.T) {
		view := state.New()
		tracker := NewFaultTracker(view, 80*time.Millisecond, nil, nil)
		defer tracker.Close()

		start := time.Now()
		tracker.OnThumbnailError("x.mp4")
		if !view.HasFault("x.mp4") {
			t.Fatal("expected x.mp4 faulted immediately")
		}

		tu.Eventually(t, time.Second, func() bool { return !view.HasFault("x.mp4") }, "fault never expired")
		if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
			t.Errorf("fault cleared after %v, before its TTL", elapsed)
		}
		if tracker.Pending() != 0 {
			t.Errorf("expected no pending timers, got %d", tracker.Pending())
		}
	})

	t.Run("Default TTL", func(t *testing.T) {
		tracker := NewFaultTracker(state.New(), 0, nil, nil)
		defer tracker.Close()
		if tracker.ttl != 2*time.Second {
			t.Errorf("expected 2s default, got %v", tracker.ttl)
		}
	})

	t.Run("Independent Timers", func(t *testing.T) {
		view := state.New()
		tracker := NewFaultTracker(view, 100*time.Millisecond, nil, nil)
		defer tracker.Close()

		tracker.OnThumbnailError("a.mp4")
		time.Sleep(60 * time.Millisecond)
		tracker.OnThumbnailError("b.mp4")

		tu.Eventually(t, time.Second, func() bool { return !view.HasFault("a.mp4") }, "a.mp4 never expired")
		if !view.HasFault("b.mp4") {
			t.Error("b.mp4 expired together with a.mp4")
		}
		tu.Eventually(t, time.Second, func() bool { return !view.HasFault("b.mp4") }, "b.mp4 never expired")
	})

	t.Run("Re-marking Resets Timer", func(t *testing.T) {
		view := state.New()
		tracker := NewFaultTracker(view, 100*time.Millisecond, nil, nil)
		defer tracker.Close()

		tracker.OnThumbnailError("a.mp4")
		time.Sleep(60 * time.Millisecond)
		tracker.OnThumbnailError("a.mp4")
		if tracker.Pending() != 1 {
			t.Fatalf("expected a single pending timer, got %d", tracker.Pending())
		}

		time.Sleep(60 * time.Millisecond)
		if !view.HasFault("a.mp4") {
			t.Error("fault expired on the first timer after being re-marked")
		}
		tu.Eventually(t, time.Second, func() bool { return !view.HasFault("a.mp4") }, "a.mp4 never expired")
	})

	t.Run("Close Stops Timers", func(t *testing.T) {
		view := state.New()
		tracker := NewFaultTracker(view, 30*time.Millisecond, nil, nil)

		tracker.OnThumbnailError("a.mp4")
		tracker.Close()
		tracker.OnThumbnailError("b.mp4")

		time.Sleep(60 * time.Millisecond)
		if tracker.Pending() != 0 {
			t.Errorf("expected no pending timers after Close, got %d", tracker.Pending())
		}
		if view.HasFault("b.mp4") {
			t.Error("fault recorded after Close")
		}
	})

	t.Run("Metrics", func(t *testing.T) {
		m := metrics.New()
		view := state.New()
		tracker := NewFaultTracker(view, 50*time.Millisecond, m, nil)
		defer tracker.Close()

		tracker.OnThumbnailError("a.mp4")
		tracker.OnThumbnailError("a.mp4")
		tracker.OnThumbnailError("b.mp4")

		if got := testutil.ToFloat64(m.ThumbnailFaultsTotal); got != 3 {
			t.Errorf("expected 3 raised faults, got %v", got)
		}
		if got := testutil.ToFloat64(m.ThumbnailFaultsActive); got != 2 {
			t.Errorf("expected 2 active faults, got %v", got)
		}

		tu.Eventually(t, time.Second, func() bool {
			return testutil.ToFloat64(m.ThumbnailFaultsActive) == 0
		}, "active fault gauge never returned to zero")
	})
}
