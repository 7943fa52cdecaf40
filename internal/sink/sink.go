package sink

import (
	"context"
	"errors"
)

// Sink option validation errors.
var (
	// ErrInvalidConcurrency is returned when the download concurrency is
	// not positive.
	ErrInvalidConcurrency = errors.New("sink: concurrency must be positive")

	// ErrNoDownloadDir is returned when no destination directory is set.
	ErrNoDownloadDir = errors.New("sink: download directory is required")
)

// Sink receives the final set of absolute resource URLs from a crawl.
// Implementations own all persistence side effects.
type Sink interface {
	// Deliver hands the resource URLs to the sink. The slice is already
	// deduplicated and sorted by the caller. Deliver returns the number
	// of resources it acted on.
	Deliver(ctx context.Context, urls []string) (int, error)
}
