// Package groupstore persists the collection of saved tab groups as a single
// JSON document.
//
// The document store only offers whole-value get/set, so every mutation is a
// read → compute → write cycle. Cycles issued through one Store are
// serialised: a second cycle does not read before the previous one has
// written. Another process writing the same key between our read and our
// write is not detected, and its change is lost when we write. That risk is
// accepted for a single-user local store.
package groupstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lotas/tabtidy/internal/applog"
	"github.com/lotas/tabtidy/internal/storage"
	"github.com/lotas/tabtidy/internal/types"
	"golang.org/x/sync/semaphore"
)

// Key is the document key holding the collection.
const Key = "savedGroups"

const defaultMaxNamePrompts = 3

// phase is the store's mutation state.
type phase int32

const (
	phaseIdle phase = iota
	phaseMutating
)

// Store owns the saved-group collection.
type Store struct {
	docs  storage.Store
	token *semaphore.Weighted
	phase atomic.Int32

	newID          func() string
	now            func() time.Time
	maxNamePrompts int
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the default UUIDv7 id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithClock sets the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMaxNamePrompts bounds how many times Save asks for a different name
// after an overwrite is declined.
func WithMaxNamePrompts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxNamePrompts = n
		}
	}
}

// New returns a Store over docs.
func New(docs storage.Store, opts ...Option) *Store {
	s := &Store{
		docs:           docs,
		token:          semaphore.NewWeighted(1),
		newID:          func() string { return uuid.Must(uuid.NewV7()).String() },
		now:            time.Now,
		maxNamePrompts: defaultMaxNamePrompts,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Busy reports whether a read-modify-write cycle is in flight.
func (s *Store) Busy() bool {
	return phase(s.phase.Load()) == phaseMutating
}

// List returns the collection, newest first.
func (s *Store) List(ctx context.Context) ([]types.TabGroup, error) {
	return s.read(ctx)
}

// Get returns the group with the given id; ok is false if it does not exist.
func (s *Store) Get(ctx context.Context, id string) (types.TabGroup, bool, error) {
	groups, err := s.read(ctx)
	if err != nil {
		return types.TabGroup{}, false, err
	}
	for _, g := range groups {
		if g.ID == id {
			return g, true, nil
		}
	}
	return types.TabGroup{}, false, nil
}

// FindByName returns the groups whose name equals name, ignoring case.
func (s *Store) FindByName(ctx context.Context, name string) ([]types.TabGroup, error) {
	groups, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	var out []types.TabGroup
	for _, g := range groups {
		if sameName(g.Name, name) {
			out = append(out, g)
		}
	}
	return out, nil
}

// Delete removes one group. Deleting an unknown id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.DeleteMany(ctx, []string{id})
}

// DeleteMany removes every group whose id is in ids in a single cycle. The
// remaining groups keep their relative order. Unknown ids are ignored.
func (s *Store) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	removed := 0
	err := s.mutate(ctx, func(groups []types.TabGroup) ([]types.TabGroup, bool, error) {
		kept := groups[:0:0]
		for _, g := range groups {
			if drop[g.ID] {
				removed++
				continue
			}
			kept = append(kept, g)
		}
		return kept, removed > 0, nil
	})
	if err != nil {
		return err
	}
	applog.Info("groups.deleted", "requested", len(ids), "removed", removed)
	return nil
}

// RemoveSnapshot removes the snapshot at index from a group. When that
// leaves the group empty the group itself is deleted and groupDeleted is
// true. An unknown group id is a no-op.
func (s *Store) RemoveSnapshot(ctx context.Context, groupID string, index int) (groupDeleted bool, err error) {
	return s.removeSnapshot(ctx, groupID, index, nil)
}

// RemoveSnapshotURL is RemoveSnapshot for callers holding an older copy of
// the group: the snapshot at index must still have url, otherwise nothing
// is removed and ErrSnapshotMoved is returned.
func (s *Store) RemoveSnapshotURL(ctx context.Context, groupID string, index int, url string) (groupDeleted bool, err error) {
	return s.removeSnapshot(ctx, groupID, index, func(snap types.TabSnapshot) bool {
		return snap.URL == url
	})
}

func (s *Store) removeSnapshot(ctx context.Context, groupID string, index int, match func(types.TabSnapshot) bool) (groupDeleted bool, err error) {
	err = s.mutate(ctx, func(groups []types.TabGroup) ([]types.TabGroup, bool, error) {
		for i, g := range groups {
			if g.ID != groupID {
				continue
			}
			if index < 0 || index >= len(g.Snapshots) {
				return nil, false, &ValidationError{
					Field:  "index",
					Reason: fmt.Sprintf("%d out of range for group with %d tabs", index, len(g.Snapshots)),
				}
			}
			if match != nil && !match(g.Snapshots[index]) {
				return nil, false, ErrSnapshotMoved
			}
			out := make([]types.TabGroup, 0, len(groups))
			out = append(out, groups[:i]...)
			if len(g.Snapshots) == 1 {
				groupDeleted = true
			} else {
				snaps := make([]types.TabSnapshot, 0, len(g.Snapshots)-1)
				snaps = append(snaps, g.Snapshots[:index]...)
				snaps = append(snaps, g.Snapshots[index+1:]...)
				g.Snapshots = snaps
				out = append(out, g)
			}
			out = append(out, groups[i+1:]...)
			return out, true, nil
		}
		return groups, false, nil
	})
	if err == nil {
		applog.Info("groups.tab.removed", "group", groupID, "index", index, "group_deleted", groupDeleted)
	}
	return groupDeleted, err
}

// Clear removes every saved group.
func (s *Store) Clear(ctx context.Context) error {
	err := s.mutate(ctx, func([]types.TabGroup) ([]types.TabGroup, bool, error) {
		return []types.TabGroup{}, true, nil
	})
	if err == nil {
		applog.Info("groups.cleared")
	}
	return err
}

// Replace overwrites the collection with groups, e.g. from a backup.
func (s *Store) Replace(ctx context.Context, groups []types.TabGroup) error {
	if err := validateCollection(groups); err != nil {
		return err
	}
	err := s.mutate(ctx, func([]types.TabGroup) ([]types.TabGroup, bool, error) {
		return append([]types.TabGroup{}, groups...), true, nil
	})
	if err == nil {
		applog.Info("groups.replaced", "groups", len(groups))
	}
	return err
}

// mutate runs one read-modify-write cycle while holding the mutation token.
// fn reports whether the collection changed; unchanged collections are not
// written back.
func (s *Store) mutate(ctx context.Context, fn func([]types.TabGroup) ([]types.TabGroup, bool, error)) error {
	if err := s.token.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("wait for pending group write: %w", err)
	}
	s.phase.Store(int32(phaseMutating))
	defer func() {
		s.phase.Store(int32(phaseIdle))
		s.token.Release(1)
	}()

	groups, err := s.read(ctx)
	if err != nil {
		return err
	}
	next, changed, err := fn(groups)
	if err != nil || !changed {
		return err
	}
	return s.write(ctx, next)
}

func (s *Store) read(ctx context.Context) ([]types.TabGroup, error) {
	raw, ok, err := s.docs.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("read saved groups: %w", err)
	}
	if !ok {
		return []types.TabGroup{}, nil
	}
	return Decode(raw)
}

func (s *Store) write(ctx context.Context, groups []types.TabGroup) error {
	raw, err := Encode(groups)
	if err != nil {
		return err
	}
	if err := s.docs.Set(ctx, Key, raw); err != nil {
		return fmt.Errorf("write saved groups: %w", err)
	}
	return nil
}

// freshID returns an id not used by any group in groups.
func (s *Store) freshID(groups []types.TabGroup) (string, error) {
	used := make(map[string]bool, len(groups))
	for _, g := range groups {
		used[g.ID] = true
	}
	for range 8 {
		if id := s.newID(); id != "" && !used[id] {
			return id, nil
		}
	}
	return "", errors.New("could not generate a unique group id")
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func validateCollection(groups []types.TabGroup) error {
	seen := make(map[string]bool, len(groups))
	for i, g := range groups {
		if g.ID == "" {
			return &ValidationError{Field: "id", Reason: fmt.Sprintf("group %d has no id", i)}
		}
		if seen[g.ID] {
			return &ValidationError{Field: "id", Reason: fmt.Sprintf("duplicate group id %q", g.ID)}
		}
		seen[g.ID] = true
		if strings.TrimSpace(g.Name) == "" {
			return &ValidationError{Field: "name", Reason: fmt.Sprintf("group %q has no name", g.ID)}
		}
		if len(g.Snapshots) == 0 {
			return &ValidationError{Field: "snapshots", Reason: fmt.Sprintf("group %q has no tabs", g.ID)}
		}
	}
	return nil
}
