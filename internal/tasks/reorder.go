package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/signctl/internal/metrics"
	"github.com/desertthunder/signctl/internal/models"
	"github.com/desertthunder/signctl/internal/services"
	"github.com/desertthunder/signctl/internal/shared"
	"github.com/desertthunder/signctl/internal/state"
)

// Reorder outcomes reported to metrics.
const (
	ReorderCommitted = "committed"
	ReorderNoop      = "noop"
	ReorderCancelled = "cancelled"
	ReorderRejected  = "rejected"
	ReorderFailed    = "failed"
	ReorderStale     = "stale"
)

// DragSession is an in-progress drag. At most one exists at a time.
type DragSession struct {
	Source   int
	Hover    int
	HasHover bool
}

// ReorderController is the drag gesture state machine:
//
//	Idle -> Dragging(src) -> Dragging(src, hover) -> Committed | Cancelled -> Idle
//
// A committed drop is applied to the view at once and returned as a [Move], whose
// Persist sends the new order to the player.
type ReorderController struct {
	svc     services.Service
	view    *state.ViewState
	metrics *metrics.Metrics
	logger  *log.Logger

	mu      sync.Mutex
	session *DragSession
	seq     uint64

	// persistMu serializes persistence calls; persisted is the newest seq the player accepted.
	persistMu sync.Mutex
	persisted uint64
}

func NewReorderController(svc services.Service, view *state.ViewState, m *metrics.Metrics, logger *log.Logger) *ReorderController {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &ReorderController{
		svc:     svc,
		view:    view,
		metrics: m,
		logger:  shared.WithLogger(logger, "component", "reorder"),
	}
}

func (r *ReorderController) inRange(i int) bool {
	return i >= 0 && i < len(r.view.Order())
}

// abort ends the session as rejected. Callers hold r.mu.
func (r *ReorderController) abort() {
	r.session = nil
	r.view.ClearDragHints()
	r.metrics.ReorderFinished(ReorderRejected)
}

// StartDrag begins a drag at row i.
func (r *ReorderController) StartDrag(i int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		return shared.ErrDragActive
	}
	if !r.inRange(i) {
		r.metrics.ReorderFinished(ReorderRejected)
		return fmt.Errorf("%w: drag source %d", shared.ErrIndexOutOfRange, i)
	}

	r.session = &DragSession{Source: i}
	r.view.SetDragHints(state.DragHints{Active: true, Source: i})
	return nil
}

// Hover records the row under the pointer. The order is untouched.
func (r *ReorderController) Hover(j int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return shared.ErrNoDrag
	}
	if !r.inRange(j) {
		r.abort()
		return fmt.Errorf("%w: hover %d", shared.ErrIndexOutOfRange, j)
	}

	r.session.Hover, r.session.HasHover = j, true
	r.view.SetDragHints(state.DragHints{Active: true, Source: r.session.Source, Hover: j, HasHover: true})
	return nil
}

// Drop commits the drag at row j.
//
// Dropping on the source row ends the session with a nil Move. Otherwise the item is spliced
// out of its row and reinserted at j, the new order is shown immediately, and the returned
// Move must be persisted by the caller.
func (r *ReorderController) Drop(j int) (*Move, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.session
	if s == nil {
		return nil, shared.ErrNoDrag
	}
	r.session = nil
	r.view.ClearDragHints()

	if j == s.Source {
		r.metrics.ReorderFinished(ReorderNoop)
		return nil, nil
	}

	next, err := r.view.Order().Move(s.Source, j)
	if err != nil {
		r.metrics.ReorderFinished(ReorderRejected)
		return nil, err
	}

	r.view.SetOrder(next)
	r.seq++
	r.logger.Debug("reorder applied", "from", s.Source, "to", j, "seq", r.seq)
	return &Move{ctrl: r, Seq: r.seq, From: s.Source, To: j, Order: next}, nil
}

// CancelDrag returns to Idle from any state. The order is untouched.
func (r *ReorderController) CancelDrag() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return
	}
	r.session = nil
	r.view.ClearDragHints()
	r.metrics.ReorderFinished(ReorderCancelled)
}

// Session returns a copy of the active drag, if any.
func (r *ReorderController) Session() (DragSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return DragSession{}, false
	}
	return *r.session, true
}

// Apply installs a complete order chosen outside a drag gesture.
// order must be a permutation of the current playlist.
func (r *ReorderController) Apply(order models.PlaylistOrder) (*Move, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		return nil, shared.ErrDragActive
	}
	if !order.IsPermutationOf(r.view.Order()) {
		r.metrics.ReorderFinished(ReorderRejected)
		return nil, fmt.Errorf("%w: %v", shared.ErrNotPermutation, order)
	}

	next := order.Clone()
	r.view.SetOrder(next)
	r.seq++
	return &Move{ctrl: r, Seq: r.seq, From: -1, To: -1, Order: next}, nil
}

// Move is a committed reorder waiting to be confirmed by the player.
type Move struct {
	ctrl *ReorderController

	Seq   uint64
	From  int // -1 for [ReorderController.Apply]
	To    int
	Order models.PlaylistOrder
}

// Persist sends the move's order to the player.
//
// Calls are serialized; a move older than one already accepted is skipped so the player
// ends up holding the most recently issued order. On failure the view rolls back to the
// last confirmed order, unless a newer local order has replaced this one, and a notice is set.
func (m *Move) Persist(ctx context.Context) error {
	r := m.ctrl
	r.persistMu.Lock()
	defer r.persistMu.Unlock()

	if m.Seq <= r.persisted {
		r.metrics.ReorderFinished(ReorderStale)
		r.logger.Debug("skipping superseded reorder", "seq", m.Seq, "persisted", r.persisted)
		return nil
	}

	if err := r.svc.SetOrder(ctx, m.Order); err != nil {
		r.metrics.ReorderFinished(ReorderFailed)
		rolledBack := r.view.RollbackOrder(m.Order)
		r.logger.Warn("failed to persist order", "seq", m.Seq, "rolled_back", rolledBack, "error", err)
		if rolledBack {
			r.view.SetNotice(fmt.Sprintf("reorder failed, previous order restored: %v", err))
		} else {
			r.view.SetNotice(fmt.Sprintf("reorder failed: %v", err))
		}
		return fmt.Errorf("failed to persist order: %w", err)
	}

	r.persisted = m.Seq
	if !r.view.ConfirmOrder(m.Order) {
		r.logger.Debug("playlist changed while persisting, keeping refreshed order", "seq", m.Seq)
	}
	r.metrics.ReorderFinished(ReorderCommitted)
	return nil
}
