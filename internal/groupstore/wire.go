package groupstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lotas/tabtidy/internal/types"
)

// wireGroup is the persisted shape of a group, shared with the browser
// extension's backups.
type wireGroup struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Timestamp int64               `json:"timestamp"`
	Tabs      []types.TabSnapshot `json:"tabs"`
}

// Decode parses a savedGroups document. A null document is an empty
// collection.
func Decode(raw json.RawMessage) ([]types.TabGroup, error) {
	var wire []wireGroup
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode saved groups: %w", err)
	}
	groups := make([]types.TabGroup, 0, len(wire))
	for _, w := range wire {
		groups = append(groups, types.TabGroup{
			ID:        w.ID,
			Name:      w.Name,
			CreatedAt: time.UnixMilli(w.Timestamp),
			Snapshots: w.Tabs,
		})
	}
	return groups, nil
}

// Encode renders groups in the persisted shape. An empty collection encodes
// as [] rather than null.
func Encode(groups []types.TabGroup) (json.RawMessage, error) {
	wire := make([]wireGroup, 0, len(groups))
	for _, g := range groups {
		tabs := g.Snapshots
		if tabs == nil {
			tabs = []types.TabSnapshot{}
		}
		wire = append(wire, wireGroup{
			ID:        g.ID,
			Name:      g.Name,
			Timestamp: g.CreatedAt.UnixMilli(),
			Tabs:      tabs,
		})
	}
	b, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encode saved groups: %w", err)
	}
	return b, nil
}
