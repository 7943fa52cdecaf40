package sink

import (
	"context"
	"fmt"
	"io"
)

// ListSink writes resource URLs to an io.Writer, one per line. It is the
// dry-run sink: no file is touched, no network request is made.
type ListSink struct {
	w io.Writer
}

// NewListSink creates a ListSink writing to w.
func NewListSink(w io.Writer) *ListSink {
	return &ListSink{w: w}
}

// Deliver prints each URL on its own line and returns the line count.
func (l *ListSink) Deliver(_ context.Context, urls []string) (int, error) {
	for _, u := range urls {
		if _, err := fmt.Fprintln(l.w, u); err != nil {
			return 0, fmt.Errorf("sink: failed to write resource list: %w", err)
		}
	}
	return len(urls), nil
}
