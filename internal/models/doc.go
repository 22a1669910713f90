// Package models defines the data exchanged with the signage player and mirrored by the controller.
//
//   - [PlaylistOrder] : ordered filenames defining playback order; filenames are the only identity
//   - [PlaybackStatus] : snapshot of what is playing and how far along it is
//
// [PlaylistOrder.Move] implements splice semantics: the entry at the source index is removed and
// reinserted at the target index of the shortened sequence. Reorders are always permutations.
package models
