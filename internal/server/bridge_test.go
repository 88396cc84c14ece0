package server

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/lotas/tabtidy/internal/host"
	"github.com/lotas/tabtidy/internal/host/hosttest"
	"github.com/lotas/tabtidy/internal/tabops"
	"github.com/lotas/tabtidy/internal/types"
	"nhooyr.io/websocket"
)

// fakeExtension answers bridge commands from an in-memory window.
func fakeExtension(ctx context.Context, conn *websocket.Conn, window *hosttest.Fake) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var cmd OutgoingMsg
		if err := json.Unmarshal(data, &cmd); err != nil {
			return
		}

		reply := IncomingMsg{Type: "result", ID: cmd.ID}
		var opErr error
		switch cmd.Action {
		case "query":
			var tabs []types.LiveTab
			tabs, opErr = window.Query(ctx, host.Filter{CurrentWindow: cmd.CurrentWindow, Pinned: cmd.Pinned})
			reply.Tabs = encodeTabs(tabs)
		case "create":
			var tab types.LiveTab
			tab, opErr = window.Create(ctx, cmd.URL, cmd.Active != nil && *cmd.Active)
			if opErr == nil {
				reply.Tab = encodeTab(tab)
			}
		case "update":
			opErr = window.Update(ctx, cmd.TabID, cmd.Active != nil && *cmd.Active)
		case "close":
			opErr = window.Remove(ctx, cmd.TabIDs)
		}
		ok := opErr == nil
		reply.OK = &ok
		if opErr != nil {
			reply.Error = opErr.Error()
		}
		out, _ := json.Marshal(reply)
		if err := conn.Write(ctx, websocket.MessageText, out); err != nil {
			return
		}
	}
}

func encodeTab(t types.LiveTab) json.RawMessage {
	b, _ := json.Marshal(wireTab{
		ID: t.ID, WindowID: t.WindowID, Index: t.Index, Title: t.Title,
		URL: t.URL, FavIconURL: t.FavIconURL, Pinned: t.Pinned, Active: t.Active,
	})
	return b
}

func encodeTabs(tabs []types.LiveTab) json.RawMessage {
	raw := make([]json.RawMessage, len(tabs))
	for i, t := range tabs {
		raw[i] = encodeTab(t)
	}
	b, _ := json.Marshal(raw)
	return b
}

func bridgeTo(t *testing.T, window *hosttest.Fake) (*Bridge, context.Context) {
	t.Helper()
	srv := New(0)
	conn, ctx := dial(t, srv)
	go fakeExtension(ctx, conn, window)
	return NewBridge(srv, time.Second), ctx
}

func TestBridgeQueryAppliesPinnedFilter(t *testing.T) {
	window := hosttest.New(
		types.LiveTab{ID: 1, URL: "https://a.example", Pinned: true},
		types.LiveTab{ID: 2, URL: "https://b.example"},
	)
	b, ctx := bridgeTo(t, window)

	unpinned := false
	tabs, err := b.Query(ctx, host.Filter{CurrentWindow: true, Pinned: &unpinned})
	if err != nil {
		t.Fatal(err)
	}
	if len(tabs) != 1 || tabs[0].ID != 2 {
		t.Errorf("tabs = %+v, want only tab 2", tabs)
	}
}

func TestBridgeCreateAndRemove(t *testing.T) {
	window := hosttest.New(types.LiveTab{ID: 1, URL: "https://a.example"})
	b, ctx := bridgeTo(t, window)

	tab, err := b.Create(ctx, "https://new.example", false)
	if err != nil {
		t.Fatal(err)
	}
	if tab.ID == 0 || tab.URL != "https://new.example" {
		t.Errorf("created tab = %+v", tab)
	}
	if err := b.Remove(ctx, []int{1}); err != nil {
		t.Fatal(err)
	}
	if got := window.Tabs(); len(got) != 1 || got[0].ID != tab.ID {
		t.Errorf("window after remove = %+v", got)
	}
}

func TestBridgeUpdateRejected(t *testing.T) {
	window := hosttest.New(types.LiveTab{ID: 1, URL: "https://a.example"})
	b, ctx := bridgeTo(t, window)
	if err := b.Update(ctx, 99, true); err == nil {
		t.Error("expected error for unknown tab")
	}
}

func TestBridgeSafeCloseEndToEnd(t *testing.T) {
	window := hosttest.New(
		types.LiveTab{ID: 1, URL: "https://a.example"},
		types.LiveTab{ID: 2, URL: "https://a.example"},
	)
	b, ctx := bridgeTo(t, window)

	n, err := tabops.New(b, "").CloseInWindow(ctx, []int{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("closed %d, want 2", n)
	}
	left := window.Tabs()
	if len(left) != 1 || left[0].URL != tabops.DefaultPlaceholderURL {
		t.Errorf("window = %+v, want only the placeholder", left)
	}
}

func TestBridgeCreateFailureSurfaces(t *testing.T) {
	window := hosttest.New(types.LiveTab{ID: 1, URL: "https://a.example"})
	window.FailCreateAfter = 0
	b, ctx := bridgeTo(t, window)

	_, err := tabops.New(b, "").CloseInWindow(ctx, []int{1})
	var opErr *host.OperationError
	if !errors.As(err, &opErr) || opErr.Op != "create" {
		t.Fatalf("err = %v, want create OperationError", err)
	}
	if len(window.Tabs()) != 1 {
		t.Error("nothing may be closed when the placeholder fails")
	}
}
