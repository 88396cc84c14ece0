package groupstore

import (
	"context"
	"errors"
	"strings"

	"github.com/lotas/tabtidy/internal/applog"
	"github.com/lotas/tabtidy/internal/types"
)

var (
	// ErrNameTaken is returned by Save when the name collides with an
	// existing group and no Prompter was given.
	ErrNameTaken = errors.New("a group with this name already exists")
	// ErrCancelled is returned when the user gives up choosing a name.
	ErrCancelled = errors.New("save cancelled")
	// ErrTooManyPrompts is returned when the rename prompt limit is reached.
	ErrTooManyPrompts = errors.New("too many name prompts")
	// ErrSnapshotMoved is returned by RemoveSnapshotURL when the group was
	// changed since the caller read it.
	ErrSnapshotMoved = errors.New("saved group changed, reload and try again")
)

// ValidationError rejects input before the store is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// Prompter asks the user how to resolve a name collision.
type Prompter interface {
	// ConfirmOverwrite asks whether the existing group called name should be
	// replaced.
	ConfirmOverwrite(ctx context.Context, name string) (bool, error)
	// PromptName asks for a different name after rejected was declined.
	// ok=false cancels the save.
	PromptName(ctx context.Context, rejected string) (name string, ok bool, err error)
}

// Overwrite is a Prompter that always replaces the existing group.
type Overwrite struct{}

func (Overwrite) ConfirmOverwrite(context.Context, string) (bool, error) { return true, nil }

func (Overwrite) PromptName(context.Context, string) (string, bool, error) { return "", false, nil }

// Save stores snapshots as a new group called name and returns its id. The
// group is prepended, so the collection stays newest first.
//
// If a group with the same name (ignoring case) exists, p decides: confirming
// removes every group with that name before the new one is added under a
// fresh id; declining asks for another name and starts over from a fresh
// read of the collection. After the configured number of declined names Save
// gives up with ErrTooManyPrompts.
func (s *Store) Save(ctx context.Context, name string, snapshots []types.TabSnapshot, p Prompter) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if len(snapshots) == 0 {
		return "", &ValidationError{Field: "snapshots", Reason: "no tabs to save"}
	}

	prompts := 0
	for {
		id, err := s.insert(ctx, name, snapshots, false)
		if !errors.Is(err, ErrNameTaken) {
			return id, err
		}
		if p == nil {
			return "", err
		}

		ok, err := p.ConfirmOverwrite(ctx, name)
		if err != nil {
			return "", err
		}
		if ok {
			return s.insert(ctx, name, snapshots, true)
		}

		if prompts >= s.maxNamePrompts {
			return "", ErrTooManyPrompts
		}
		prompts++
		next, ok, err := p.PromptName(ctx, name)
		if err != nil {
			return "", err
		}
		next = strings.TrimSpace(next)
		if !ok || next == "" {
			return "", ErrCancelled
		}
		name = next
	}
}

func (s *Store) insert(ctx context.Context, name string, snapshots []types.TabSnapshot, overwrite bool) (string, error) {
	var id string
	replaced := 0
	err := s.mutate(ctx, func(groups []types.TabGroup) ([]types.TabGroup, bool, error) {
		kept := make([]types.TabGroup, 0, len(groups)+1)
		kept = append(kept, types.TabGroup{}) // new group goes first
		for _, g := range groups {
			if sameName(g.Name, name) {
				if !overwrite {
					return nil, false, ErrNameTaken
				}
				replaced++
				continue
			}
			kept = append(kept, g)
		}

		var err error
		id, err = s.freshID(groups)
		if err != nil {
			return nil, false, err
		}
		kept[0] = types.TabGroup{
			ID:        id,
			Name:      name,
			CreatedAt: s.now(),
			Snapshots: append([]types.TabSnapshot(nil), snapshots...),
		}
		return kept, true, nil
	})
	if err != nil {
		return "", err
	}
	applog.Info("groups.saved", "id", id, "name", name, "tabs", len(snapshots), "replaced", replaced)
	return id, nil
}
