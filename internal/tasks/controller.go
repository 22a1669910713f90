package tasks

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/signctl/internal/metrics"
	"github.com/desertthunder/signctl/internal/models"
	"github.com/desertthunder/signctl/internal/services"
	"github.com/desertthunder/signctl/internal/shared"
	"github.com/desertthunder/signctl/internal/state"
)

// ControllerOpts contains configuration for a [Controller].
type ControllerOpts struct {
	Service      services.Service
	PollInterval time.Duration // 0 uses DefaultPollInterval
	FaultTTL     time.Duration // 0 uses DefaultFaultTTL
	Metrics      *metrics.Metrics
	Logger       *log.Logger
}

// Controller owns the [state.ViewState] and every component that writes to it.
type Controller struct {
	svc     services.Service
	view    *state.ViewState
	poller  *StatusPoller
	faults  *FaultTracker
	uploads *UploadPipeline
	reorder *ReorderController
	metrics *metrics.Metrics
	logger  *log.Logger

	closeOnce sync.Once
}

func NewController(opts ControllerOpts) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NopLogger()
	}

	view := state.New()
	c := &Controller{
		svc:     opts.Service,
		view:    view,
		metrics: opts.Metrics,
		logger:  shared.WithLogger(logger, "component", "controller"),
	}
	c.poller = NewStatusPoller(opts.Service, view, opts.PollInterval, opts.Metrics, logger)
	c.faults = NewFaultTracker(view, opts.FaultTTL, opts.Metrics, logger)
	c.uploads = NewUploadPipeline(opts.Service, view, c.Refresh, opts.Metrics, logger)
	c.reorder = NewReorderController(opts.Service, view, opts.Metrics, logger)
	return c
}

func (c *Controller) State() *state.ViewState { return c.view }
func (c *Controller) Reorder() *ReorderController { return c.reorder }
func (c *Controller) Poller() *StatusPoller { return c.poller }
func (c *Controller) Faults() *FaultTracker { return c.faults }
func (c *Controller) Service() services.Service { return c.svc }
func (c *Controller) Uploads() *UploadPipeline { return c.uploads }

// Start loads the playlist and starts status polling. A failed initial load is reported
// through the notice and does not prevent polling.
func (c *Controller) Start(ctx context.Context) error {
	if c.view.Disposed() {
		return shared.ErrDisposed
	}
	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("initial playlist load failed", "error", err)
	}
	return c.poller.Start(ctx)
}

// Close stops polling and fault timers and freezes the view. It is idempotent.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.reorder.CancelDrag()
		c.poller.Stop()
		c.faults.Close()
		c.view.Dispose()
		c.logger.Debug("controller closed")
	})
}

// Refresh replaces the order with the player's. On failure the previous order stays.
func (c *Controller) Refresh(ctx context.Context) error {
	if c.view.Disposed() {
		return shared.ErrDisposed
	}
	order, err := c.svc.List(ctx)
	if err != nil {
		c.logger.Warn("failed to refresh playlist", "error", err)
		c.view.SetNotice(fmt.Sprintf("refresh failed: %v", err))
		return fmt.Errorf("failed to refresh playlist: %w", err)
	}
	c.view.SyncOrder(order)
	return nil
}

// Delete removes name from the player and reloads the playlist whether or not it succeeded.
//
// A failed reload after a successful delete leaves the refresh notice set and is not
// returned, since the file is gone either way.
func (c *Controller) Delete(ctx context.Context, name string) error {
	if c.view.Disposed() {
		return shared.ErrDisposed
	}
	err := c.svc.Delete(ctx, name)
	if rerr := c.Refresh(ctx); rerr != nil {
		c.logger.Debug("playlist may be stale after delete", "file", name, "error", rerr)
	}

	if err != nil {
		c.logger.Warn("delete failed", "file", name, "error", err)
		c.view.SetNotice(fmt.Sprintf("delete %s failed: %v", name, err))
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	c.logger.Info("deleted", "file", name)
	return nil
}

// Play asks the player to switch to name now.
func (c *Controller) Play(ctx context.Context, name string) error {
	if c.view.Disposed() {
		return shared.ErrDisposed
	}
	if err := c.svc.Play(ctx, name); err != nil {
		c.logger.Warn("play failed", "file", name, "error", err)
		c.view.SetNotice(fmt.Sprintf("play %s failed: %v", name, err))
		return fmt.Errorf("failed to play %s: %w", name, err)
	}
	c.logger.Info("playing", "file", name)
	return nil
}

// Upload runs an upload batch; see [UploadPipeline.Upload].
func (c *Controller) Upload(ctx context.Context, paths []string, progress chan<- ProgressUpdate) (*UploadResult, error) {
	if c.view.Disposed() {
		return nil, shared.ErrDisposed
	}
	return c.uploads.Upload(ctx, paths, progress)
}

// Thumbnail fetches the image for name unless it is faulted. A failed fetch marks the fault.
func (c *Controller) Thumbnail(ctx context.Context, name string) ([]byte, error) {
	if c.view.Disposed() {
		return nil, shared.ErrDisposed
	}
	if c.faults.Faulted(name) {
		return nil, shared.ErrThumbnailFaulted
	}
	data, err := c.svc.Thumbnail(ctx, name)
	if err != nil {
		if ctx.Err() == nil {
			c.faults.OnThumbnailError(name)
		}
		return nil, err
	}
	return data, nil
}

// ReportThumbnailError marks name faulted for images that arrived but could not be shown.
func (c *Controller) ReportThumbnailError(name string) {
	c.faults.OnThumbnailError(name)
}

// Download streams the original file into w.
func (c *Controller) Download(ctx context.Context, name string, w io.Writer) (int64, error) {
	if c.view.Disposed() {
		return 0, shared.ErrDisposed
	}
	n, err := c.svc.Download(ctx, name, w)
	if err != nil {
		c.logger.Warn("download failed", "file", name, "error", err)
		c.view.SetNotice(fmt.Sprintf("download %s failed: %v", name, err))
		return n, err
	}
	c.logger.Info("downloaded", "file", name, "bytes", n)
	return n, nil
}

// Playlist returns the player's M3U entries.
func (c *Controller) Playlist(ctx context.Context) ([]string, error) {
	return c.svc.Playlist(ctx)
}

// Order is shorthand for the view's current order.
func (c *Controller) Order() models.PlaylistOrder {
	return c.view.Order()
}
