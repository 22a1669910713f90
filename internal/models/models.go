// package models defines the data model shared by the player client and the controller
package models

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/desertthunder/signctl/internal/shared"
)

// PlaylistOrder is the ordered sequence of media filenames on the player.
type PlaylistOrder []string

// Clone returns an independent copy. A nil order clones to an empty, non-nil one.
func (o PlaylistOrder) Clone() PlaylistOrder {
	out := make(PlaylistOrder, len(o))
	copy(out, o)
	return out
}

// Index returns the position of name, or -1.
func (o PlaylistOrder) Index(name string) int {
	return slices.Index(o, name)
}

// Contains reports whether name is in the order.
func (o PlaylistOrder) Contains(name string) bool {
	return o.Index(name) >= 0
}

// Equal reports whether both orders hold the same names in the same positions.
func (o PlaylistOrder) Equal(other PlaylistOrder) bool {
	return slices.Equal(o, other)
}

// IsPermutationOf reports whether o holds exactly the names of other, each once.
func (o PlaylistOrder) IsPermutationOf(other PlaylistOrder) bool {
	if len(o) != len(other) {
		return false
	}
	seen := make(map[string]int, len(other))
	for _, name := range other {
		seen[name]++
	}
	for _, name := range o {
		if seen[name] == 0 {
			return false
		}
		seen[name]--
	}
	return true
}

// Move returns a new order with the entry at from removed and reinserted at to.
//
// to indexes the sequence after removal, so Move(0, 2) on [a b c] yields [b c a].
func (o PlaylistOrder) Move(from, to int) (PlaylistOrder, error) {
	if from < 0 || from >= len(o) {
		return nil, fmt.Errorf("%w: source %d (len %d)", shared.ErrIndexOutOfRange, from, len(o))
	}
	if to < 0 || to >= len(o) {
		return nil, fmt.Errorf("%w: target %d (len %d)", shared.ErrIndexOutOfRange, to, len(o))
	}

	next := o.Clone()
	moved := next[from]
	next = slices.Delete(next, from, from+1)
	next = slices.Insert(next, to, moved)
	return next, nil
}

// PlaybackStatus is the player's report of the current item.
//
// An empty Filename means the player is idle; on the wire it is null.
type PlaybackStatus struct {
	Filename string  `json:"filename"`
	Elapsed  float64 `json:"elapsed"`
	Duration float64 `json:"duration"`
}

// IdleStatus is the status reported before anything plays.
func IdleStatus() PlaybackStatus {
	return PlaybackStatus{}
}

// Playing reports whether a file is loaded.
func (s PlaybackStatus) Playing() bool {
	return s.Filename != ""
}

// Progress returns elapsed/duration clamped to [0, 1].
func (s PlaybackStatus) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	p := s.Elapsed / s.Duration
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// MarshalJSON writes an idle status with a null filename, matching the player.
func (s PlaybackStatus) MarshalJSON() ([]byte, error) {
	var name *string
	if s.Filename != "" {
		name = &s.Filename
	}
	return json.Marshal(struct {
		Filename *string `json:"filename"`
		Elapsed  float64 `json:"elapsed"`
		Duration float64 `json:"duration"`
	}{name, s.Elapsed, s.Duration})
}
