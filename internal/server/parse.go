package server

import (
	"encoding/json"
	"fmt"

	"github.com/lotas/tabtidy/internal/types"
)

type wireTab struct {
	ID         int    `json:"id"`
	WindowID   int    `json:"windowId"`
	Index      int    `json:"index"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	FavIconURL string `json:"favIconUrl"`
	Pinned     bool   `json:"pinned"`
	Active     bool   `json:"active"`
}

func (wt wireTab) live() types.LiveTab {
	return types.LiveTab{
		ID:         wt.ID,
		WindowID:   wt.WindowID,
		Index:      wt.Index,
		Title:      wt.Title,
		URL:        wt.URL,
		FavIconURL: wt.FavIconURL,
		Pinned:     wt.Pinned,
		Active:     wt.Active,
	}
}

// ParseTabs converts a raw JSON tab array into live tabs, keeping order.
// A missing array is an empty window.
func ParseTabs(raw json.RawMessage) ([]types.LiveTab, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var wire []wireTab
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("parse tabs: %w", err)
	}
	tabs := make([]types.LiveTab, len(wire))
	for i, wt := range wire {
		tabs[i] = wt.live()
	}
	return tabs, nil
}

// ParseTab converts a raw JSON tab into a live tab.
func ParseTab(raw json.RawMessage) (types.LiveTab, error) {
	var wt wireTab
	if err := json.Unmarshal(raw, &wt); err != nil {
		return types.LiveTab{}, fmt.Errorf("parse tab: %w", err)
	}
	return wt.live(), nil
}

// ParseSnapshot converts a "snapshot" event, pushed by the extension when the
// window changes, into the window's tabs.
func ParseSnapshot(msg IncomingMsg) ([]types.LiveTab, error) {
	if msg.Type != "snapshot" {
		return nil, fmt.Errorf("parse snapshot: unexpected message type %q", msg.Type)
	}
	return ParseTabs(msg.Tabs)
}
