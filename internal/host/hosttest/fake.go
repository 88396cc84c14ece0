// Package hosttest provides an in-memory host.TabHost for tests.
package hosttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/lotas/tabtidy/internal/host"
	"github.com/lotas/tabtidy/internal/types"
)

// Call records one host invocation.
type Call struct {
	Op     string // "query", "create", "update", "remove"
	URL    string
	Active bool
	IDs    []int
}

// Fake keeps a single window of tabs in memory. Like a real browser it
// refuses to close the last tab of the window.
type Fake struct {
	mu     sync.Mutex
	tabs   []types.LiveTab
	nextID int
	calls  []Call

	// FailCreateAfter makes Create fail once this many creates succeeded
	// (negative disables).
	FailCreateAfter int
	// FailRemove makes every Remove fail.
	FailRemove bool
	created    int
}

// New returns a Fake holding the given tabs. IDs of zero are assigned.
func New(tabs ...types.LiveTab) *Fake {
	f := &Fake{nextID: 1, FailCreateAfter: -1}
	for _, t := range tabs {
		if t.ID == 0 {
			t.ID = f.nextID
		}
		if t.ID >= f.nextID {
			f.nextID = t.ID + 1
		}
		t.Index = len(f.tabs)
		f.tabs = append(f.tabs, t)
	}
	return f
}

// Query implements host.TabHost.
func (f *Fake) Query(_ context.Context, filter host.Filter) ([]types.LiveTab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "query"})
	var out []types.LiveTab
	for _, t := range f.tabs {
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Create implements host.TabHost.
func (f *Fake) Create(_ context.Context, url string, active bool) (types.LiveTab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "create", URL: url, Active: active})
	if f.FailCreateAfter >= 0 && f.created >= f.FailCreateAfter {
		return types.LiveTab{}, fmt.Errorf("create %s: rejected", url)
	}
	f.created++
	t := types.LiveTab{ID: f.nextID, URL: url, Index: len(f.tabs), Active: active}
	f.nextID++
	f.tabs = append(f.tabs, t)
	return t, nil
}

// Update implements host.TabHost.
func (f *Fake) Update(_ context.Context, id int, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "update", IDs: []int{id}, Active: active})
	found := false
	for i := range f.tabs {
		if f.tabs[i].ID == id {
			f.tabs[i].Active = active
			found = true
		} else if active {
			f.tabs[i].Active = false
		}
	}
	if !found {
		return fmt.Errorf("no tab with id %d", id)
	}
	return nil
}

// Remove implements host.TabHost.
func (f *Fake) Remove(_ context.Context, ids []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "remove", IDs: append([]int(nil), ids...)})
	if f.FailRemove {
		return fmt.Errorf("remove rejected")
	}
	drop := make(map[int]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	var kept []types.LiveTab
	for _, t := range f.tabs {
		if !drop[t.ID] {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return fmt.Errorf("cannot close the last tab of the window")
	}
	f.tabs = kept
	return nil
}

// Tabs returns the current tabs.
func (f *Fake) Tabs() []types.LiveTab {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.LiveTab(nil), f.tabs...)
}

// Calls returns every recorded call in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Ops returns the op names of the recorded calls, in order.
func (f *Fake) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ops := make([]string, len(f.calls))
	for i, c := range f.calls {
		ops[i] = c.Op
	}
	return ops
}
