// Package settings stores user preferences as one JSON document next to the
// saved groups.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/lotas/tabtidy/internal/applog"
	"github.com/lotas/tabtidy/internal/storage"
	"github.com/lotas/tabtidy/internal/types"
)

// Key is the document key holding the settings.
const Key = "settings"

// CloseAfterSave controls what happens to saved tabs.
type CloseAfterSave string

const (
	ClosePrompt CloseAfterSave = "prompt"
	CloseAlways CloseAfterSave = "always"
	CloseNever  CloseAfterSave = "never"
)

type General struct {
	DefaultView  types.ViewMode `json:"defaultView"`
	ShowTabCount bool           `json:"showTabCount"`
}

type TabManagement struct {
	CloseAfterSave     CloseAfterSave `json:"closeAfterSave"`
	DuplicateDetection bool           `json:"duplicateDetection"`
}

// Settings is the persisted preferences document.
type Settings struct {
	General       General       `json:"general"`
	TabManagement TabManagement `json:"tabManagement"`
}

// Defaults returns the settings used when none are stored.
func Defaults() Settings {
	return Settings{
		General:       General{DefaultView: types.ViewList, ShowTabCount: true},
		TabManagement: TabManagement{CloseAfterSave: ClosePrompt, DuplicateDetection: true},
	}
}

// Validate rejects unknown enum values.
func (s Settings) Validate() error {
	switch s.General.DefaultView {
	case types.ViewList, types.ViewGrouped:
	default:
		return fmt.Errorf("general.defaultView: unknown view %q", s.General.DefaultView)
	}
	switch s.TabManagement.CloseAfterSave {
	case ClosePrompt, CloseAlways, CloseNever:
	default:
		return fmt.Errorf("tabManagement.closeAfterSave: unknown mode %q", s.TabManagement.CloseAfterSave)
	}
	return nil
}

// Load reads the stored settings. Missing or unreadable settings yield the
// defaults; only a failing store is an error.
func Load(ctx context.Context, docs storage.Store) (Settings, error) {
	raw, ok, err := docs.Get(ctx, Key)
	if err != nil {
		return Defaults(), fmt.Errorf("read settings: %w", err)
	}
	if !ok {
		return Defaults(), nil
	}
	s := Defaults()
	if err := json.Unmarshal(raw, &s); err != nil {
		applog.Warn("settings.corrupt", "error", err.Error())
		return Defaults(), nil
	}
	if err := s.Validate(); err != nil {
		applog.Warn("settings.invalid", "error", err.Error())
		return Defaults(), nil
	}
	return s, nil
}

// Save validates and stores s.
func Save(ctx context.Context, docs storage.Store, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := docs.Set(ctx, Key, raw); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	applog.Info("settings.saved")
	return nil
}

// Reset stores the defaults.
func Reset(ctx context.Context, docs storage.Store) error {
	return Save(ctx, docs, Defaults())
}

// Fields lists the dotted names accepted by Set, sorted.
func Fields() []string {
	names := make([]string, 0, len(setters))
	for k := range setters {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

var setters = map[string]func(*Settings, string) error{
	"general.defaultView": func(s *Settings, v string) error {
		s.General.DefaultView = types.ViewMode(v)
		return nil
	},
	"general.showTabCount": func(s *Settings, v string) error {
		b, err := strconv.ParseBool(v)
		s.General.ShowTabCount = b
		return err
	},
	"tabManagement.closeAfterSave": func(s *Settings, v string) error {
		s.TabManagement.CloseAfterSave = CloseAfterSave(v)
		return nil
	},
	"tabManagement.duplicateDetection": func(s *Settings, v string) error {
		b, err := strconv.ParseBool(v)
		s.TabManagement.DuplicateDetection = b
		return err
	},
}

// Set assigns one field by its dotted JSON name, e.g.
// "general.defaultView". The result is validated.
func (s *Settings) Set(field, value string) error {
	set, ok := setters[field]
	if !ok {
		return fmt.Errorf("unknown setting %q", field)
	}
	next := *s
	if err := set(&next, value); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}
