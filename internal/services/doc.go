// Package services defines the [Service] interface for the signage player and implements it over HTTP.
//
// # Player API
//
// [SignageService] maps each [Service] method onto one endpoint of the player's web API:
//
//   - List: GET /api/list, a JSON array of filenames
//   - Status: GET /api/status, {filename, elapsed, duration}
//   - Upload: POST /api/upload, multipart field "file"
//   - Delete: DELETE /api/delete/{filename}
//   - Play: POST /api/play/{filename}
//   - SetOrder: POST /api/order, the full order as a JSON array
//   - Thumbnail: GET /api/thumbnail/{filename}
//   - Download: GET /api/download/{filename}
//   - Playlist: GET /api/playlist.m3u
//
// Filenames are path-escaped. Uploads are streamed through an [io.Pipe] so large videos are never buffered.
//
// # Transport
//
// [NewHTTPClient] wraps the default transport in a [RetryTransport], which retries GETs that failed
// before the player answered. Writes are never retried. An optional token bucket
// ([golang.org/x/time/rate]) spaces out requests to slow players.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : transport failure, non-2xx answer or undecodable body
//   - [shared.ErrFileNotFound] : player answered 404
//   - [shared.ErrMissingArgument] : upload without a file name
//
// Non-2xx answers are returned as [*StatusError], which carries the status code and a truncated body.
package services
