package server

import (
	"context"
	"fmt"
	"time"

	"github.com/lotas/tabtidy/internal/host"
	"github.com/lotas/tabtidy/internal/types"
)

// Bridge implements host.TabHost over the extension connection. Every call
// waits for the extension's reply, bounded by the configured timeout.
type Bridge struct {
	srv     *Server
	timeout time.Duration
}

var _ host.TabHost = (*Bridge)(nil)

// NewBridge returns a Bridge over srv. A zero timeout waits for ctx alone.
func NewBridge(srv *Server, timeout time.Duration) *Bridge {
	return &Bridge{srv: srv, timeout: timeout}
}

func (b *Bridge) call(ctx context.Context, msg OutgoingMsg) (IncomingMsg, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	return b.srv.Call(ctx, msg)
}

// Query implements host.TabHost.
func (b *Bridge) Query(ctx context.Context, f host.Filter) ([]types.LiveTab, error) {
	reply, err := b.call(ctx, OutgoingMsg{Action: "query", CurrentWindow: f.CurrentWindow, Pinned: f.Pinned})
	if err != nil {
		return nil, err
	}
	tabs, err := ParseTabs(reply.Tabs)
	if err != nil {
		return nil, err
	}
	out := tabs[:0]
	for _, t := range tabs {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Create implements host.TabHost. The extension replies once the tab exists.
func (b *Bridge) Create(ctx context.Context, url string, active bool) (types.LiveTab, error) {
	reply, err := b.call(ctx, OutgoingMsg{Action: "create", URL: url, Active: &active})
	if err != nil {
		return types.LiveTab{}, err
	}
	if len(reply.Tab) == 0 {
		return types.LiveTab{}, fmt.Errorf("create: reply has no tab")
	}
	return ParseTab(reply.Tab)
}

// Update implements host.TabHost.
func (b *Bridge) Update(ctx context.Context, id int, active bool) error {
	_, err := b.call(ctx, OutgoingMsg{Action: "update", TabID: id, Active: &active})
	return err
}

// Remove implements host.TabHost.
func (b *Bridge) Remove(ctx context.Context, ids []int) error {
	_, err := b.call(ctx, OutgoingMsg{Action: "close", TabIDs: ids})
	return err
}

// Events returns the extension's pushed events, such as "snapshot" and
// "tab.removed".
func (b *Bridge) Events() <-chan IncomingMsg {
	return b.srv.Messages()
}
