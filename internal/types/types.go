package types

import "time"

// TabSnapshot is a tab captured at save time. It is never mutated afterwards;
// restoring creates a new live tab from it.
type TabSnapshot struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	IconRef string `json:"favIconUrl,omitempty"`
}

// TabGroup is a named, ordered set of snapshots persisted as one unit.
type TabGroup struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Snapshots []TabSnapshot
}

// LiveTab is a tab as reported by the browser. The core treats it as
// read-only input.
type LiveTab struct {
	ID         int
	WindowID   int
	Index      int
	Title      string
	URL        string
	FavIconURL string
	Pinned     bool
	Active     bool
}

// Snapshot captures the tab's current title, URL and icon.
func (t LiveTab) Snapshot() TabSnapshot {
	return TabSnapshot{
		Title:   t.Title,
		URL:     t.URL,
		IconRef: t.FavIconURL,
	}
}

// Profile represents a Firefox profile.
type Profile struct {
	Name       string
	Path       string // absolute path to profile directory
	IsDefault  bool
	IsRelative bool
}

// Stats holds aggregate statistics over the saved groups.
type Stats struct {
	Groups int
	Tabs   int
	Bytes  int
}

// ViewMode controls how the current tabs are listed.
type ViewMode string

const (
	ViewList    ViewMode = "list"
	ViewGrouped ViewMode = "grouped"
)
