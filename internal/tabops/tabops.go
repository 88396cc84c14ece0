// Package tabops performs bulk actions on the live tabs of the current
// window without ever leaving the window empty.
package tabops

import (
	"context"
	"fmt"

	"github.com/lotas/tabtidy/internal/analyzer"
	"github.com/lotas/tabtidy/internal/applog"
	"github.com/lotas/tabtidy/internal/host"
	"github.com/lotas/tabtidy/internal/types"
)

// DefaultPlaceholderURL is opened when a close would empty the window.
const DefaultPlaceholderURL = "chrome://newtab"

// Orchestrator issues tab actions against a host.
type Orchestrator struct {
	host        host.TabHost
	placeholder string
}

// New returns an Orchestrator. An empty placeholderURL selects
// DefaultPlaceholderURL.
func New(h host.TabHost, placeholderURL string) *Orchestrator {
	if placeholderURL == "" {
		placeholderURL = DefaultPlaceholderURL
	}
	return &Orchestrator{host: h, placeholder: placeholderURL}
}

var (
	unpinned      = false
	currentWindow = host.Filter{CurrentWindow: true}
	openUnpinned  = host.Filter{CurrentWindow: true, Pinned: &unpinned}
)

// CloseTabs closes targets. openNonPinned is the caller's view of the
// unpinned tabs currently open in the window. When targets would cover all
// of them, an inactive placeholder tab is created first and the close is
// only issued once the host has confirmed it. If the placeholder cannot be
// created nothing is closed. A rejected close reports the placeholder, when
// one was opened, as the operation that succeeded before it.
func (o *Orchestrator) CloseTabs(ctx context.Context, targets, openNonPinned []int) (int, error) {
	if len(targets) == 0 {
		return 0, nil
	}
	done := 0
	if len(targets) >= len(openNonPinned) {
		tab, err := o.host.Create(ctx, o.placeholder, false)
		if err != nil {
			applog.Error("tabs.close.placeholder", err, "targets", len(targets))
			return 0, &host.OperationError{Op: "create", Err: err}
		}
		applog.Info("tabs.close.placeholder", "id", tab.ID, "url", o.placeholder)
		done++
	}
	if err := o.host.Remove(ctx, targets); err != nil {
		applog.Error("tabs.close", err, "targets", len(targets), "placeholder", done > 0)
		return 0, &host.OperationError{Op: "remove", Succeeded: done, Err: err}
	}
	applog.Info("tabs.closed", "count", len(targets))
	return len(targets), nil
}

// CloseInWindow closes targets after reading the open unpinned tabs of the
// current window from the host.
func (o *Orchestrator) CloseInWindow(ctx context.Context, targets []int) (int, error) {
	if len(targets) == 0 {
		return 0, nil
	}
	open, err := o.host.Query(ctx, openUnpinned)
	if err != nil {
		return 0, fmt.Errorf("query open tabs: %w", err)
	}
	return o.CloseTabs(ctx, targets, host.NonPinnedIDs(open))
}

// CloseDuplicates closes every tab of the current window whose URL already
// appears in an earlier tab. Pinned tabs are never closed.
func (o *Orchestrator) CloseDuplicates(ctx context.Context) (int, error) {
	tabs, err := o.host.Query(ctx, currentWindow)
	if err != nil {
		return 0, fmt.Errorf("query tabs: %w", err)
	}
	dupes := analyzer.FindDuplicates(tabs)
	var targets []int
	for _, t := range tabs {
		if dupes[t.ID] && !t.Pinned {
			targets = append(targets, t.ID)
		}
	}
	return o.CloseTabs(ctx, targets, host.NonPinnedIDs(tabs))
}

// CloseSaved closes the unpinned tabs of the current window whose URL is
// among snapshots, as done after saving a group.
func (o *Orchestrator) CloseSaved(ctx context.Context, snapshots []types.TabSnapshot) (int, error) {
	saved := make(map[string]bool, len(snapshots))
	for _, s := range snapshots {
		saved[s.URL] = true
	}
	tabs, err := o.host.Query(ctx, currentWindow)
	if err != nil {
		return 0, fmt.Errorf("query tabs: %w", err)
	}
	var targets []int
	for _, t := range tabs {
		if !t.Pinned && saved[t.URL] {
			targets = append(targets, t.ID)
		}
	}
	return o.CloseTabs(ctx, targets, host.NonPinnedIDs(tabs))
}

// Restore opens every snapshot of g as an inactive tab, in order. On a host
// rejection the tabs already opened stay open and the error reports how
// many there were.
func (o *Orchestrator) Restore(ctx context.Context, g types.TabGroup) (int, error) {
	for i, s := range g.Snapshots {
		if _, err := o.host.Create(ctx, s.URL, false); err != nil {
			applog.Error("tabs.restore", err, "group", g.ID, "restored", i)
			return i, &host.OperationError{Op: "create", Succeeded: i, Err: err}
		}
	}
	applog.Info("tabs.restored", "group", g.ID, "count", len(g.Snapshots))
	return len(g.Snapshots), nil
}

// Focus activates a tab.
func (o *Orchestrator) Focus(ctx context.Context, id int) error {
	if err := o.host.Update(ctx, id, true); err != nil {
		return &host.OperationError{Op: "update", Err: err}
	}
	return nil
}

// Capture snapshots tabs of the current window in browser order. With ids
// empty every tab is captured; otherwise only the listed ones.
func (o *Orchestrator) Capture(ctx context.Context, ids []int) ([]types.TabSnapshot, error) {
	tabs, err := o.host.Query(ctx, currentWindow)
	if err != nil {
		return nil, fmt.Errorf("query tabs: %w", err)
	}
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	snaps := make([]types.TabSnapshot, 0, len(tabs))
	for _, t := range tabs {
		if len(ids) == 0 || want[t.ID] {
			snaps = append(snaps, t.Snapshot())
		}
	}
	return snaps, nil
}
