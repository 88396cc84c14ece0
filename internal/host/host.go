// Package host defines the browser tab primitives the rest of tabtidy is
// written against. Implementations live in internal/server (live extension
// bridge) and internal/firefox (read-only session file).
package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/lotas/tabtidy/internal/types"
)

// Filter narrows a Query. The zero value matches every tab.
type Filter struct {
	CurrentWindow bool
	Pinned        *bool
}

// Matches reports whether a tab passes the pinned part of the filter.
// Window scoping is the host's job.
func (f Filter) Matches(t types.LiveTab) bool {
	return f.Pinned == nil || *f.Pinned == t.Pinned
}

// TabHost is the browser's tab API.
type TabHost interface {
	// Query returns tabs in browser order.
	Query(ctx context.Context, f Filter) ([]types.LiveTab, error)
	// Create opens a tab and returns once the browser has realised it.
	Create(ctx context.Context, url string, active bool) (types.LiveTab, error)
	// Update changes the active state of a tab.
	Update(ctx context.Context, id int, active bool) error
	// Remove closes the given tabs in a single call.
	Remove(ctx context.Context, ids []int) error
}

// ErrReadOnly is returned by hosts that can only be queried.
var ErrReadOnly = errors.New("tab host is read-only")

// OperationError reports a host call that was rejected, together with how
// many operations of the same request had already succeeded. Nothing is
// rolled back.
type OperationError struct {
	Op        string
	Succeeded int
	Err       error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("host %s failed after %d succeeded: %v", e.Op, e.Succeeded, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// NonPinnedIDs returns the ids of the unpinned tabs, in order.
func NonPinnedIDs(tabs []types.LiveTab) []int {
	ids := make([]int, 0, len(tabs))
	for _, t := range tabs {
		if !t.Pinned {
			ids = append(ids, t.ID)
		}
	}
	return ids
}
