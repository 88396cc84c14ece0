package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lotas/tabtidy/internal/groupstore"
	"github.com/lotas/tabtidy/internal/storage"
	"github.com/lotas/tabtidy/internal/types"
)

// ErrInvalidBackup is returned for backups without a savedGroups array.
var ErrInvalidBackup = errors.New("invalid backup file format")

// Backup is a parsed backup file: the saved groups plus any other keys the
// store held when it was exported.
type Backup struct {
	Groups []types.TabGroup
	Other  map[string]json.RawMessage
}

// Dump exports every key of the store as one indented JSON object.
func Dump(ctx context.Context, docs storage.Store) ([]byte, error) {
	all, err := docs.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("export store: %w", err)
	}
	b, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// FileName is the default name of a backup written at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("tabtidy-backup-%d.json", t.UnixMilli())
}

// ParseBackup validates a backup file without touching any store.
func ParseBackup(data []byte) (*Backup, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	raw, ok := top[groupstore.Key]
	if !ok || len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: %s must be an array", ErrInvalidBackup, groupstore.Key)
	}
	groups, err := groupstore.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	delete(top, groupstore.Key)
	return &Backup{Groups: groups, Other: top}, nil
}

// Restore replaces the saved groups with the backup's and writes its other
// keys back unchanged. Keys absent from the backup are left alone.
func Restore(ctx context.Context, docs storage.Store, groups *groupstore.Store, b *Backup) error {
	if err := groups.Replace(ctx, b.Groups); err != nil {
		return fmt.Errorf("import groups: %w", err)
	}
	for key, value := range b.Other {
		if err := docs.Set(ctx, key, value); err != nil {
			return fmt.Errorf("import %s: %w", key, err)
		}
	}
	return nil
}

// Size returns the byte size of the whole store serialised as compact JSON.
func Size(ctx context.Context, docs storage.Store) (int, error) {
	all, err := docs.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("export store: %w", err)
	}
	b, err := json.Marshal(all)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}
