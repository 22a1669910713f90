package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/signctl/internal/metrics"
	"github.com/desertthunder/signctl/internal/services"
	"github.com/desertthunder/signctl/internal/shared"
	"github.com/desertthunder/signctl/internal/state"
)

// UploadStatus is the outcome of one file in a batch.
type UploadStatus int

const (
	UploadPending UploadStatus = iota
	UploadRunning
	UploadDone
	UploadError
	UploadCancelled
)

func (s UploadStatus) String() string {
	switch s {
	case UploadPending:
		return "pending"
	case UploadRunning:
		return "uploading"
	case UploadDone:
		return "done"
	case UploadError:
		return "failed"
	case UploadCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// FileResult describes one file of an upload batch.
type FileResult struct {
	Path   string       // Local path as given
	Name   string       // Name sent to the player
	Status UploadStatus // Final status
	Bytes  int64        // Bytes read from disk
	Err    error        // Failure, if any
}

// UploadResult summarizes an upload batch.
type UploadResult struct {
	Files      []FileResult
	Succeeded  int
	Failed     int
	Cancelled  int
	Refreshed  bool  // The follow-up list refresh ran
	RefreshErr error // Error from that refresh
}

// Err joins the per-file failures, or returns nil when every file made it.
func (r *UploadResult) Err() error {
	var errs []error
	for _, f := range r.Files {
		if f.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Name, f.Err))
		}
	}
	return errors.Join(errs...)
}

// RefreshFunc re-reads the playlist from the player into the view.
type RefreshFunc func(ctx context.Context) error

// UploadPipeline sends local files to the player one at a time.
type UploadPipeline struct {
	svc     services.Service
	view    *state.ViewState
	refresh RefreshFunc
	metrics *metrics.Metrics
	logger  *log.Logger

	// mu serializes batches so two never interleave.
	mu sync.Mutex
}

func NewUploadPipeline(svc services.Service, view *state.ViewState, refresh RefreshFunc, m *metrics.Metrics, logger *log.Logger) *UploadPipeline {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &UploadPipeline{
		svc:     svc,
		view:    view,
		refresh: refresh,
		metrics: m,
		logger:  shared.WithLogger(logger, "component", "upload"),
	}
}

// Upload sends paths strictly in sequence, then refreshes the playlist once.
//
// A failed file does not stop the batch. A cancelled ctx stops it: remaining files are
// marked cancelled and no refresh is issued. The returned error joins every per-file failure.
func (p *UploadPipeline) Upload(ctx context.Context, paths []string, progress chan<- ProgressUpdate) (*UploadResult, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files to upload", shared.ErrMissingArgument)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	total := len(paths)
	result := &UploadResult{Files: make([]FileResult, total)}
	for i, path := range paths {
		result.Files[i] = FileResult{Path: path, Name: filepath.Base(path), Status: UploadPending}
	}

	p.view.SetUploading(true)
	p.logger.Info("upload batch started", "files", total)

	for i := range result.Files {
		file := &result.Files[i]

		if err := ctx.Err(); err != nil {
			file.Status = UploadCancelled
			file.Err = fmt.Errorf("%w: %v", shared.ErrUploadInterrupted, err)
			result.Cancelled++
			sendProgress(progress, uploadSkippedUpdate(i+1, total, file))
			continue
		}

		file.Status = UploadRunning
		sendProgress(progress, uploadingUpdate(i+1, total, file.Name))

		n, err := p.uploadOne(ctx, file.Path, file.Name)
		file.Bytes = n
		p.metrics.UploadFinished(err)
		if err != nil {
			file.Status = UploadError
			file.Err = err
			result.Failed++
			p.logger.Warn("upload failed", "file", file.Name, "error", err)
			sendProgress(progress, uploadFailedUpdate(i+1, total, file))
			continue
		}

		file.Status = UploadDone
		result.Succeeded++
		p.logger.Debug("upload finished", "file", file.Name, "bytes", n)
		sendProgress(progress, uploadedUpdate(i+1, total, file))
	}

	p.view.SetUploading(false)

	if failed := result.Failed + result.Cancelled; failed > 0 {
		p.view.SetNotice(fmt.Sprintf("%d of %d uploads failed", failed, total))
	}

	if ctx.Err() == nil && p.refresh != nil {
		sendProgress(progress, refreshUpdate())
		result.Refreshed = true
		result.RefreshErr = p.refresh(ctx)
	}

	p.logger.Info("upload batch finished", "succeeded", result.Succeeded, "failed", result.Failed, "cancelled", result.Cancelled)
	return result, result.Err()
}

func (p *UploadPipeline) uploadOne(ctx context.Context, path, name string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	counter := &countingReader{r: f}
	err = p.svc.Upload(ctx, name, counter)
	return counter.n.Load(), err
}

// countingReader counts bytes read; the service may read from another goroutine.
type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	c.n.Add(int64(n))
	return n, err
}
