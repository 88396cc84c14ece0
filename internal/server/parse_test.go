package server

import (
	"encoding/json"
	"testing"
)

func TestParseSnapshot(t *testing.T) {
	snapshot := `{
		"type": "snapshot",
		"tabs": [
			{"id": 1, "url": "https://example.com", "title": "Example", "windowId": 1, "index": 0, "pinned": true},
			{"id": 2, "url": "https://other.com", "title": "Other", "windowId": 1, "index": 1, "active": true, "favIconUrl": "https://other.com/f.ico"}
		]
	}`

	var msg IncomingMsg
	if err := json.Unmarshal([]byte(snapshot), &msg); err != nil {
		t.Fatal(err)
	}

	tabs, err := ParseSnapshot(msg)
	if err != nil {
		t.Fatal(err)
	}
	if len(tabs) != 2 {
		t.Fatalf("expected 2 tabs, got %d", len(tabs))
	}
	if !tabs[0].Pinned || tabs[0].URL != "https://example.com" {
		t.Errorf("tab 0 = %+v", tabs[0])
	}
	if tabs[1].ID != 2 || tabs[1].Index != 1 || !tabs[1].Active || tabs[1].FavIconURL != "https://other.com/f.ico" {
		t.Errorf("tab 1 = %+v", tabs[1])
	}
}

func TestParseSnapshotWrongType(t *testing.T) {
	if _, err := ParseSnapshot(IncomingMsg{Type: "result"}); err == nil {
		t.Error("expected error for non-snapshot message")
	}
}

func TestParseTab(t *testing.T) {
	raw := json.RawMessage(`{"id": 42, "url": "https://example.com", "title": "Example", "windowId": 3, "index": 5}`)
	tab, err := ParseTab(raw)
	if err != nil {
		t.Fatal(err)
	}
	if tab.ID != 42 || tab.WindowID != 3 || tab.Index != 5 || tab.Title != "Example" {
		t.Errorf("tab = %+v", tab)
	}
}

func TestParseTabsEmpty(t *testing.T) {
	tabs, err := ParseTabs(nil)
	if err != nil || len(tabs) != 0 {
		t.Errorf("ParseTabs(nil) = %v, %v", tabs, err)
	}
	if _, err := ParseTabs(json.RawMessage(`{"not":"an array"}`)); err == nil {
		t.Error("expected error for non-array tabs")
	}
}
