// Package feed drives a scrollable results feed until no new items load.
package feed

import (
	"context"
	"fmt"

	"github.com/jonathan/mapleads/internal/types"
)

// EndSentinel is the text the results panel shows once every listing has loaded.
const EndSentinel = "You've reached the end of the list"

// Source is a live (or recorded) results feed.
type Source interface {
	// Exists reports whether the feed container is present.
	Exists(ctx context.Context) (bool, error)
	// ScrollToEnd scrolls the feed container to its current bottom.
	ScrollToEnd(ctx context.Context) error
	ItemCount(ctx context.Context) (int, error)
	ScrollHeight(ctx context.Context) (int64, error)
	// ContainsText reports whether the visible page text contains text.
	ContainsText(ctx context.Context, text string) (bool, error)
	// Snapshot copies every item currently in the feed, in document order.
	Snapshot(ctx context.Context) ([]types.ItemSnapshot, error)
}

// Phase names a stage of a scan.
type Phase string

const (
	PhaseStarting   Phase = "starting"
	PhaseScrolling  Phase = "scrolling"
	PhaseExtracting Phase = "extracting"
)

// ProgressEvent reports scan progress.
type ProgressEvent struct {
	ItemsSoFar int   `json:"itemsSoFar"`
	Phase      Phase `json:"phase"`
}

// Status renders the event as a short human-readable line.
func (e ProgressEvent) Status() string {
	switch e.Phase {
	case PhaseStarting:
		return "Starting Scroll..."
	case PhaseScrolling:
		return fmt.Sprintf("Scrolling (%d found)", e.ItemsSoFar)
	default:
		return fmt.Sprintf("Extracting %d items", e.ItemsSoFar)
	}
}

// ProgressCallback receives progress events. It may be nil.
type ProgressCallback func(ProgressEvent)

// ScanError is returned when the source fails during a scan.
type ScanError struct {
	Op    string
	Cause error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("feed scan failed during %s: %v", e.Op, e.Cause)
}

func (e *ScanError) Unwrap() error {
	return e.Cause
}
