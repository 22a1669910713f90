package tasks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/signctl/internal/metrics"
	"github.com/desertthunder/signctl/internal/services"
	"github.com/desertthunder/signctl/internal/shared"
	"github.com/desertthunder/signctl/internal/state"
)

// DefaultPollInterval is the status refresh period.
const DefaultPollInterval = time.Second

// StatusPoller keeps the view's playback snapshot current.
//
// Fetches run on a single goroutine, so at most one status request is ever in flight.
// Each request is bounded by the interval and a slow answer simply delays the next tick.
type StatusPoller struct {
	svc      services.Service
	view     *state.ViewState
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	failing atomic.Bool
}

func NewStatusPoller(svc services.Service, view *state.ViewState, interval time.Duration, m *metrics.Metrics, logger *log.Logger) *StatusPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &StatusPoller{
		svc:      svc,
		view:     view,
		interval: interval,
		metrics:  m,
		logger:   shared.WithLogger(logger, "component", "poller"),
	}
}

// Start fetches immediately and then once per interval until Stop or ctx ends.
func (p *StatusPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return shared.ErrPollerRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)

	p.logger.Debug("status poller started", "interval", p.interval)
	return nil
}

// run polls until ctx ends. If the loop exits on its own, because the parent
// context was cancelled, it clears the running state so Start can be called again.
func (p *StatusPoller) run(ctx context.Context, done chan struct{}) {
	defer func() {
		p.mu.Lock()
		if p.done == done {
			p.cancel()
			p.cancel, p.done = nil, nil
			p.logger.Debug("status poller exited", "error", ctx.Err())
		}
		p.mu.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.Poll(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Poll performs one status fetch. On failure the previous snapshot stays in place.
func (p *StatusPoller) Poll(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	status, err := p.svc.Status(reqCtx)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err != nil {
		p.metrics.StatusPollFailed()
		if p.failing.CompareAndSwap(false, true) {
			p.logger.Warn("status poll failed", "error", err)
		} else {
			p.logger.Debug("status poll still failing", "error", err)
		}
		return fmt.Errorf("failed to poll status: %w", err)
	}

	if p.failing.CompareAndSwap(true, false) {
		p.logger.Info("status poll recovered")
	}
	p.view.SetStatus(*status)
	return nil
}

// Stop cancels the loop, including a request in flight, and waits for it to exit.
func (p *StatusPoller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.logger.Debug("status poller stopped")
}

func (p *StatusPoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}
