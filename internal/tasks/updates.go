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
	Percent int    // Rounded completion percentage
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	PreloadStart Phase = iota
	PreloadItem
	PreloadDone
)

func (p Phase) String() string {
	switch p {
	case PreloadStart:
		return "preload_start"
	case PreloadItem:
		return "preload_item"
	case PreloadDone:
		return "preload_done"
	default:
		return ""
	}
}

func preloadStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PreloadStart,
		Total:   total,
		Message: fmt.Sprintf("Preloading %d recordings...", total),
	}
}

func preloadItemUpdate(step, total, percent int, item ItemResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PreloadItem,
		Step:    step,
		Total:   total,
		Percent: percent,
		Message: fmt.Sprintf("Track %02d %s (%d%%)", item.Index, item.Outcome, percent),
		Data:    item,
	}
}

func preloadDoneUpdate(res *PreloadResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PreloadDone,
		Step:    res.Total,
		Total:   res.Total,
		Percent: 100,
		Message: fmt.Sprintf("Preload complete: %d loaded, %d failed, %d timed out", res.Loaded, res.Failed, res.TimedOut),
		Data:    res,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
