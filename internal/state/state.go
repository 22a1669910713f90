// package state holds the controller's view of the player: playlist order, playback status,
// thumbnail faults, drag hints, the uploading flag and a transient operator notice.
//
// Every mutation is atomic under one mutex and visible to the next read. Reads return copies.
// Once [ViewState.Dispose] is called all mutations are silently dropped, so results of requests
// still in flight cannot touch a torn-down view.
package state

import (
	"slices"
	"sync"

	"github.com/desertthunder/signctl/internal/models"
)

// DragHints are the read-only rendering hints of an active drag.
type DragHints struct {
	Active   bool
	Source   int
	Hover    int
	HasHover bool
}

// Highlighted reports whether row i should render as the drop target.
func (h DragHints) Highlighted(i int) bool {
	return h.Active && h.HasHover && h.Hover == i && h.Hover != h.Source
}

// ViewState is the aggregate the controller reads and writes.
type ViewState struct {
	mu        sync.Mutex
	order     models.PlaylistOrder
	confirmed models.PlaylistOrder
	status    models.PlaybackStatus
	faults    map[string]struct{}
	uploading bool
	drag      DragHints
	notice    string
	disposed  bool
	onChange  func()
}

// New returns an empty view: no files, idle status, no faults.
func New() *ViewState {
	return &ViewState{
		order:     models.PlaylistOrder{},
		confirmed: models.PlaylistOrder{},
		faults:    map[string]struct{}{},
	}
}

// OnChange registers fn to run after each effective mutation, outside the lock.
func (v *ViewState) OnChange(fn func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onChange = fn
}

// update runs fn under the lock unless disposed, then fires the change hook if fn reports a change.
func (v *ViewState) update(fn func() bool) bool {
	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		return false
	}
	changed := fn()
	hook := v.onChange
	v.mu.Unlock()

	if changed && hook != nil {
		hook()
	}
	return changed
}

// Order returns a copy of the current playlist order.
func (v *ViewState) Order() models.PlaylistOrder {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.order.Clone()
}

// SetOrder replaces the displayed order without touching the confirmed one.
func (v *ViewState) SetOrder(order models.PlaylistOrder) {
	next := order.Clone()
	v.update(func() bool {
		if v.order.Equal(next) {
			return false
		}
		v.order = next
		return true
	})
}

// SyncOrder installs an order fetched from the player as both displayed and confirmed.
func (v *ViewState) SyncOrder(order models.PlaylistOrder) {
	next := order.Clone()
	v.update(func() bool {
		v.confirmed = next.Clone()
		if v.order.Equal(next) {
			return false
		}
		v.order = next
		return true
	})
}

// ConfirmOrder records order as accepted by the player.
//
// It is ignored when order names a different set of files than the confirmed
// order, which happens when a refresh lands while the move is in flight.
// It reports whether order was recorded.
func (v *ViewState) ConfirmOrder(order models.PlaylistOrder) bool {
	next := order.Clone()
	var ok bool
	v.update(func() bool {
		if ok = next.IsPermutationOf(v.confirmed); ok {
			v.confirmed = next
		}
		return false
	})
	return ok
}

// ConfirmedOrder returns the last order the player is known to hold.
func (v *ViewState) ConfirmedOrder() models.PlaylistOrder {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.confirmed.Clone()
}

// RollbackOrder restores the confirmed order if the displayed order still equals expected
// and holds the same files. It reports whether the rollback happened.
func (v *ViewState) RollbackOrder(expected models.PlaylistOrder) bool {
	return v.update(func() bool {
		if !v.order.Equal(expected) || v.order.Equal(v.confirmed) || !v.confirmed.IsPermutationOf(v.order) {
			return false
		}
		v.order = v.confirmed.Clone()
		return true
	})
}

// Status returns the last playback snapshot.
func (v *ViewState) Status() models.PlaybackStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// SetStatus replaces the playback snapshot wholesale.
func (v *ViewState) SetStatus(s models.PlaybackStatus) {
	v.update(func() bool {
		if v.status == s {
			return false
		}
		v.status = s
		return true
	})
}

// Faults returns the faulted identifiers in sorted order.
func (v *ViewState) Faults() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, 0, len(v.faults))
	for id := range v.faults {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// HasFault reports whether id is currently faulted.
func (v *ViewState) HasFault(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.faults[id]
	return ok
}

func (v *ViewState) MarkFault(id string) {
	v.update(func() bool {
		if _, ok := v.faults[id]; ok {
			return false
		}
		v.faults[id] = struct{}{}
		return true
	})
}

func (v *ViewState) ClearFault(id string) {
	v.update(func() bool {
		if _, ok := v.faults[id]; !ok {
			return false
		}
		delete(v.faults, id)
		return true
	})
}

func (v *ViewState) IsUploading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.uploading
}

func (v *ViewState) SetUploading(uploading bool) {
	v.update(func() bool {
		if v.uploading == uploading {
			return false
		}
		v.uploading = uploading
		return true
	})
}

func (v *ViewState) DragHints() DragHints {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.drag
}

func (v *ViewState) SetDragHints(h DragHints) {
	v.update(func() bool {
		if v.drag == h {
			return false
		}
		v.drag = h
		return true
	})
}

func (v *ViewState) ClearDragHints() {
	v.SetDragHints(DragHints{})
}

// Notice returns the transient operator-visible message, if any.
func (v *ViewState) Notice() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.notice
}

func (v *ViewState) SetNotice(msg string) {
	v.update(func() bool {
		if v.notice == msg {
			return false
		}
		v.notice = msg
		return true
	})
}

func (v *ViewState) ClearNotice() {
	v.SetNotice("")
}

// Dispose freezes the view. It is idempotent.
func (v *ViewState) Dispose() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.disposed = true
	v.onChange = nil
}

func (v *ViewState) Disposed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.disposed
}
