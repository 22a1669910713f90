package tasks

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/signctl/internal/metrics"
	"github.com/desertthunder/signctl/internal/shared"
	"github.com/desertthunder/signctl/internal/state"
)

// DefaultFaultTTL is how long a failed thumbnail stays on the fallback glyph.
const DefaultFaultTTL = 2 * time.Second

// FaultTracker records thumbnail failures in the view and clears each one after a fixed TTL.
//
// Every identifier has its own timer; a repeated failure restarts it.
type FaultTracker struct {
	view    *state.ViewState
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *log.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func NewFaultTracker(view *state.ViewState, ttl time.Duration, m *metrics.Metrics, logger *log.Logger) *FaultTracker {
	if ttl <= 0 {
		ttl = DefaultFaultTTL
	}
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &FaultTracker{
		view:    view,
		ttl:     ttl,
		metrics: m,
		logger:  shared.WithLogger(logger, "component", "faults"),
		timers:  map[string]*time.Timer{},
	}
}

// OnThumbnailError marks id faulted now and schedules its expiry.
func (f *FaultTracker) OnThumbnailError(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}

	old, renewed := f.timers[id]
	if renewed {
		old.Stop()
	}
	f.view.MarkFault(id)
	f.metrics.ThumbnailFaultRaised(renewed)
	f.logger.Debug("thumbnail faulted", "file", id, "renewed", renewed, "ttl", f.ttl)

	// expire takes f.mu, so it cannot observe timer before the assignment below.
	var timer *time.Timer
	timer = time.AfterFunc(f.ttl, func() { f.expire(id, timer) })
	f.timers[id] = timer
}

func (f *FaultTracker) expire(id string, timer *time.Timer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.timers[id] != timer {
		return
	}
	delete(f.timers, id)
	f.view.ClearFault(id)
	f.metrics.ThumbnailFaultCleared()
	f.logger.Debug("thumbnail fault expired", "file", id)
}

// Faulted reports whether id is currently on the fallback glyph.
func (f *FaultTracker) Faulted(id string) bool {
	return f.view.HasFault(id)
}

// Pending returns the number of scheduled expiries.
func (f *FaultTracker) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

// Close stops every pending timer. Later errors are ignored.
func (f *FaultTracker) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for id, t := range f.timers {
		t.Stop()
		delete(f.timers, id)
	}
}
