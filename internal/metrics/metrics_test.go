package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	t.Run("ObservePlayerRequest", func(t *testing.T) {
		m := New()
		start := time.Now()
		m.ObservePlayerRequest("list", start, nil)
		m.ObservePlayerRequest("list", start, nil)
		m.ObservePlayerRequest("list", start, errors.New("boom"))

		if got := testutil.ToFloat64(m.PlayerRequestsTotal.WithLabelValues("list", "success")); got != 2 {
			t.Errorf("expected 2 successes, got %v", got)
		}
		if got := testutil.ToFloat64(m.PlayerRequestsTotal.WithLabelValues("list", "error")); got != 1 {
			t.Errorf("expected 1 error, got %v", got)
		}
		if got := testutil.CollectAndCount(m.PlayerRequestDuration); got != 1 {
			t.Errorf("expected one histogram series, got %d", got)
		}
	})

	t.Run("Uploads And Reorders", func(t *testing.T) {
		m := New()
		m.UploadFinished(nil)
		m.UploadFinished(errors.New("disk full"))
		m.ReorderFinished("persisted")
		m.ReorderFinished("noop")
		m.ReorderFinished("noop")

		if got := testutil.ToFloat64(m.UploadsTotal.WithLabelValues("error")); got != 1 {
			t.Errorf("expected 1 failed upload, got %v", got)
		}
		if got := testutil.ToFloat64(m.ReordersTotal.WithLabelValues("noop")); got != 2 {
			t.Errorf("expected 2 noop reorders, got %v", got)
		}
	})

	t.Run("Thumbnail Faults", func(t *testing.T) {
		m := New()
		m.ThumbnailFaultRaised(false)
		m.ThumbnailFaultRaised(true)
		m.ThumbnailFaultRaised(false)
		m.ThumbnailFaultCleared()

		if got := testutil.ToFloat64(m.ThumbnailFaultsTotal); got != 3 {
			t.Errorf("expected 3 faults, got %v", got)
		}
		if got := testutil.ToFloat64(m.ThumbnailFaultsActive); got != 1 {
			t.Errorf("expected 1 active fault, got %v", got)
		}
	})

	t.Run("Nil Receiver", func(t *testing.T) {
		var m *Metrics
		m.ObservePlayerRequest("status", time.Now(), nil)
		m.StatusPollFailed()
		m.UploadFinished(nil)
		m.ReorderFinished("persisted")
		m.ThumbnailFaultRaised(false)
		m.ThumbnailFaultCleared()
		if m.Registry() != nil {
			t.Error("expected nil registry")
		}
	})

	t.Run("Handler", func(t *testing.T) {
		m := New()
		m.StatusPollFailed()

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "signctl_status_poll_failures_total 1") {
			t.Errorf("expected poll failure counter in output:\n%s", rec.Body.String())
		}
	})
}
