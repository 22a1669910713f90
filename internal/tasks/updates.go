package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	UploadFile Phase = iota
	UploadComplete
	UploadFailed
	UploadSkipped
	RefreshList
)

func (p Phase) String() string {
	switch p {
	case UploadFile:
		return "upload_file"
	case UploadComplete:
		return "upload_complete"
	case UploadFailed:
		return "upload_failed"
	case UploadSkipped:
		return "upload_skipped"
	case RefreshList:
		return "refresh_list"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func uploadingUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadFile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Uploading %s...", step, total, name),
	}
}

func uploadedUpdate(step, total int, res *FileResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadComplete,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d bytes)", step, total, res.Name, res.Bytes),
		Data:    res,
	}
}

func uploadFailedUpdate(step, total int, res *FileResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Name, res.Err),
		Data:    res,
	}
}

func uploadSkippedUpdate(step, total int, res *FileResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadSkipped,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] - %s skipped", step, total, res.Name),
		Data:    res,
	}
}

func refreshUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   RefreshList,
		Step:    1,
		Total:   1,
		Message: "Refreshing playlist...",
	}
}
