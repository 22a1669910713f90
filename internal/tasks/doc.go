// Package tasks implements the controller core: everything that reads from or writes to the
// player on behalf of the operator and mirrors the result into a [state.ViewState].
//
// # Components
//
//  1. [StatusPoller] : fetches playback status immediately and then once per interval
//     - One goroutine, so requests never overlap
//     - A failed poll keeps the previous snapshot and is only logged and counted
//     - Stop cancels the request in flight; its result is discarded
//
//  2. [UploadPipeline] : uploads a batch of local files strictly one at a time
//     - Sets the uploading flag for the duration of the batch
//     - Continues past per-file failures and reports "N of M uploads failed"
//     - Ends with exactly one playlist refresh
//
//  3. [ReorderController] : drag gesture state machine (start, hover, drop, cancel)
//     - Drop applies the spliced order to the view before any network call
//     - [Move.Persist] sends the full order; calls are serialized in issue order
//     - A failed persist rolls back to the last confirmed order
//
//  4. [FaultTracker] : marks failed thumbnails and clears each one after its TTL
//
// [Controller] owns the view and all four components and adds the direct actions
// (refresh, delete, play, download, thumbnail). Close tears everything down.
//
// # Progress Reporting
//
// Upload batches accept an optional channel of [ProgressUpdate] values.
// Updates use select with default to prevent blocking.
package tasks
