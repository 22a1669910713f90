package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Player API errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrFileNotFound       = fmt.Errorf("file not found")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Controller errors
	ErrDisposed          = fmt.Errorf("controller disposed")
	ErrPollerRunning     = fmt.Errorf("status poller already running")
	ErrDragActive        = fmt.Errorf("drag already in progress")
	ErrNoDrag            = fmt.Errorf("no drag in progress")
	ErrIndexOutOfRange   = fmt.Errorf("index out of range")
	ErrNotPermutation    = fmt.Errorf("order is not a permutation of the playlist")
	ErrThumbnailFaulted  = fmt.Errorf("thumbnail recently failed")
	ErrUploadInterrupted = fmt.Errorf("upload batch interrupted")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
