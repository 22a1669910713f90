// package services defines interface Service for talking to the signage player's HTTP API
package services

import (
	"context"
	"io"

	"github.com/desertthunder/signctl/internal/models"
)

// Operation names used for logging and metrics labels.
const (
	OpList      = "list"
	OpStatus    = "status"
	OpUpload    = "upload"
	OpDelete    = "delete"
	OpPlay      = "play"
	OpOrder     = "order"
	OpThumbnail = "thumbnail"
	OpDownload  = "download"
	OpPlaylist  = "playlist"
)

// Service defines the remote contract of a signage player.
type Service interface {
	// List returns the playlist in playback order.
	List(ctx context.Context) (models.PlaylistOrder, error)

	// Status returns the current playback snapshot.
	Status(ctx context.Context) (*models.PlaybackStatus, error)

	// Upload sends the content of r as a new media file called name.
	Upload(ctx context.Context, name string, r io.Reader) error

	// Delete removes a media file from the player.
	Delete(ctx context.Context, name string) error

	// Play asks the player to switch to name immediately.
	Play(ctx context.Context, name string) error

	// SetOrder replaces the playback order with order.
	SetOrder(ctx context.Context, order models.PlaylistOrder) error

	// Thumbnail returns the image bytes of the file's preview frame.
	Thumbnail(ctx context.Context, name string) ([]byte, error)

	// Download copies the original file into w and returns the byte count.
	Download(ctx context.Context, name string, w io.Writer) (int64, error)

	// Playlist returns the absolute paths the player feeds to its video backend.
	Playlist(ctx context.Context) ([]string, error)

	// BaseURL returns the player's API root.
	BaseURL() string
}
