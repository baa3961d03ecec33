// Define a common contract for all acquisition sources
// Ensure consistency

package source

import (
	"context"
	"errors"
)

// ErrRateLimited signals an explicit "too many requests" response (or its
// rendered equivalent). The controller cools down and retries the same page
// without counting it as a failure.
var ErrRateLimited = errors.New("rate limited by source")

// RawRecord is one source-native record, untyped. The normalizer is the only
// component allowed to assume anything about its shape.
type RawRecord map[string]any

// PageResult is what a fetcher returns for one page.
type PageResult struct {
	Raw []RawRecord
	// TotalCount is the source-reported total across all pages. 0 means the
	// source does not report one and the short-page heuristic applies.
	TotalCount int
}

// Fetcher fetches one page of raw records. Implementations must keep
// per-item parse failures to themselves: a bad item is logged and skipped,
// never an error for the whole page.
type Fetcher interface {
	FetchPage(ctx context.Context, page int) (*PageResult, error)

	// PageSize is the full-page item count used for completion math. Scroll
	// cursors without a fixed page size return 0; the controller then pages
	// until an empty batch.
	PageSize() int

	// Name is the platform name (Jumpit, Remember, ...).
	Name() string

	// Label is the search facet or category this fetcher was built for.
	Label() string
}
