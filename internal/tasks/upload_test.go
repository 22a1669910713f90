package tasks

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/desertthunder/signctl/internal/metrics"
	"github.com/desertthunder/signctl/internal/shared"
	tu "github.com/desertthunder/signctl/internal/testing"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestUploadPipeline(t *testing.T) {
	newPipeline := func(t *testing.T, files ...string) (*tu.FakePlayer, *Controller) {
		player, svc := newPlayerService(t, files...)
		c := NewController(ControllerOpts{Service: svc})
		t.Cleanup(c.Close)
		return player, c
	}

	t.Run("Sequential Then One Refresh", func(t *testing.T) {
		player, c := newPipeline(t, "a.mp4")
		player.Delay("/api/upload", 20*time.Millisecond)
		p := tu.WriteTempFile(t, "p.mp4", "ppp")
		q := tu.WriteTempFile(t, "q.mp4", "qqqq")

		result, err := c.Upload(context.Background(), []string{p, q}, nil)
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		if result.Succeeded != 2 || result.Failed != 0 || !result.Refreshed {
			t.Errorf("unexpected result %+v", result)
		}

		uploads := player.Calls("/api/upload")
		if len(uploads) != 2 {
			t.Fatalf("expected 2 upload calls, got %d", len(uploads))
		}
		sort.Slice(uploads, func(i, j int) bool { return uploads[i].Start.Before(uploads[j].Start) })
		if uploads[0].Filename != "p.mp4" || uploads[1].Filename != "q.mp4" {
			t.Errorf("unexpected upload order %s, %s", uploads[0].Filename, uploads[1].Filename)
		}
		if uploads[1].Start.Before(uploads[0].End) {
			t.Error("q.mp4 started before p.mp4 completed")
		}

		lists := player.Calls("/api/list")
		if len(lists) != 1 {
			t.Fatalf("expected exactly one list refresh, got %d", len(lists))
		}
		if lists[0].Start.Before(uploads[1].End) {
			t.Error("refresh issued before the last upload completed")
		}

		if got := c.Order(); len(got) != 3 || got[1] != "p.mp4" || got[2] != "q.mp4" {
			t.Errorf("expected refreshed order, got %v", got)
		}
		if data, _ := player.Content("q.mp4"); string(data) != "qqqq" {
			t.Errorf("unexpected content %q", data)
		}
		if result.Files[0].Bytes != 3 || result.Files[1].Bytes != 4 {
			t.Errorf("unexpected byte counts %d, %d", result.Files[0].Bytes, result.Files[1].Bytes)
		}
	})

	t.Run("Uploading Flag", func(t *testing.T) {
		player, c := newPipeline(t)
		release := player.Block("/api/upload")
		defer release()
		p := tu.WriteTempFile(t, "p.mp4", "ppp")

		done := make(chan error, 1)
		go func() {
			_, err := c.Upload(context.Background(), []string{p}, nil)
			done <- err
		}()

		tu.Eventually(t, time.Second, c.State().IsUploading, "uploading flag never set")
		release()
		if err := <-done; err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		if c.State().IsUploading() {
			t.Error("uploading flag left set")
		}
	})

	t.Run("Continues Past Failures", func(t *testing.T) {
		player, c := newPipeline(t)
		m := metrics.New()
		c.uploads.metrics = m
		missing := filepath.Join(t.TempDir(), "gone.mp4")
		q := tu.WriteTempFile(t, "q.mp4", "qqqq")

		result, err := c.Upload(context.Background(), []string{missing, q}, nil)
		if err == nil {
			t.Fatal("expected joined error")
		}
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("expected missing file in error, got %v", err)
		}
		if result.Failed != 1 || result.Succeeded != 1 {
			t.Errorf("unexpected result %+v", result)
		}
		if result.Files[0].Status != UploadError || result.Files[1].Status != UploadDone {
			t.Errorf("unexpected statuses %v, %v", result.Files[0].Status, result.Files[1].Status)
		}
		if c.State().Notice() != "1 of 2 uploads failed" {
			t.Errorf("unexpected notice %q", c.State().Notice())
		}
		if len(player.Calls("/api/list")) != 1 {
			t.Error("expected one refresh even after a failure")
		}
		if got := testutil.ToFloat64(m.UploadsTotal.WithLabelValues("error")); got != 1 {
			t.Errorf("expected 1 failed upload counted, got %v", got)
		}
	})

	t.Run("Rejected By Player", func(t *testing.T) {
		player, c := newPipeline(t)
		player.FailWith("/api/upload", http.StatusInsufficientStorage)
		p := tu.WriteTempFile(t, "p.mp4", "ppp")
		q := tu.WriteTempFile(t, "q.mp4", "qqq")

		result, err := c.Upload(context.Background(), []string{p, q}, nil)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if result.Failed != 2 {
			t.Errorf("expected both files failed, got %+v", result)
		}
		if len(player.Calls("/api/upload")) != 2 {
			t.Error("expected the batch to continue after the first rejection")
		}
		if c.State().Notice() != "2 of 2 uploads failed" {
			t.Errorf("unexpected notice %q", c.State().Notice())
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		player, c := newPipeline(t)
		p := tu.WriteTempFile(t, "p.mp4", "ppp")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := c.Upload(ctx, []string{p}, nil)
		if !errors.Is(err, shared.ErrUploadInterrupted) {
			t.Errorf("expected ErrUploadInterrupted, got %v", err)
		}
		if result.Cancelled != 1 || result.Refreshed {
			t.Errorf("unexpected result %+v", result)
		}
		if len(player.Calls("/api/upload")) != 0 || len(player.Calls("/api/list")) != 0 {
			t.Error("cancelled batch reached the player")
		}
	})

	t.Run("Empty Batch", func(t *testing.T) {
		_, c := newPipeline(t)
		if _, err := c.Upload(context.Background(), nil, nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Progress Updates", func(t *testing.T) {
		_, c := newPipeline(t)
		p := tu.WriteTempFile(t, "p.mp4", "ppp")
		progress := make(chan ProgressUpdate, 10)

		if _, err := c.Upload(context.Background(), []string{p}, progress); err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		close(progress)

		var phases []Phase
		for u := range progress {
			phases = append(phases, u.Phase)
		}
		want := []Phase{UploadFile, UploadComplete, RefreshList}
		if len(phases) != len(want) {
			t.Fatalf("expected %v, got %v", want, phases)
		}
		for i := range want {
			if phases[i] != want[i] {
				t.Errorf("phase %d: expected %v, got %v", i, want[i], phases[i])
			}
		}
	})

	t.Run("Full Progress Channel Does Not Block", func(t *testing.T) {
		_, c := newPipeline(t)
		p := tu.WriteTempFile(t, "p.mp4", "ppp")
		progress := make(chan ProgressUpdate)

		if _, err := c.Upload(context.Background(), []string{p}, progress); err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
	})
}

func TestUploadStatusString(t *testing.T) {
	tests := map[UploadStatus]string{
		UploadPending:    "pending",
		UploadRunning:    "uploading",
		UploadDone:       "done",
		UploadError:      "failed",
		UploadCancelled:  "cancelled",
		UploadStatus(99): "unknown",
	}
	for status, want := range tests {
		if got := status.String(); got != want {
			t.Errorf("UploadStatus(%d).String() = %q, want %q", status, got, want)
		}
	}
}
