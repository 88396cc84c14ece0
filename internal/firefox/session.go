package firefox

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lotas/tabtidy/internal/host"
	"github.com/lotas/tabtidy/internal/types"
	"github.com/pierrec/lz4/v4"
)

// mozlz4 header: 8-byte magic "mozLz40\x00"
var mozLz4Magic = []byte("mozLz40\x00")

// DecompressMozLz4 decompresses data in Mozilla's mozlz4 format: the magic,
// a little-endian uint32 uncompressed size, then one lz4 block.
func DecompressMozLz4(data []byte) ([]byte, error) {
	const headerSize = 12

	if len(data) < headerSize {
		return nil, fmt.Errorf("mozlz4: data too short (%d bytes)", len(data))
	}
	if string(data[:len(mozLz4Magic)]) != string(mozLz4Magic) {
		return nil, fmt.Errorf("mozlz4: invalid header magic")
	}

	dst := make([]byte, binary.LittleEndian.Uint32(data[8:12]))
	n, err := lz4.UncompressBlock(data[headerSize:], dst)
	if err != nil {
		return nil, fmt.Errorf("mozlz4: decompress failed: %w", err)
	}
	return dst[:n], nil
}

type rawEntry struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type rawTab struct {
	Entries []rawEntry `json:"entries"`
	Index   int        `json:"index"` // 1-based into Entries
	Image   string     `json:"image"`
	Pinned  bool       `json:"pinned"`
}

type rawWindow struct {
	Tabs     []rawTab `json:"tabs"`
	Selected int      `json:"selected"` // 1-based into Tabs
}

type rawSession struct {
	Windows        []rawWindow `json:"windows"`
	SelectedWindow int         `json:"selectedWindow"` // 1-based into Windows
}

// Session is the tab layout read from a session file. Tab ids are assigned
// in file order starting at 1; windows are numbered from 1.
type Session struct {
	Windows        [][]types.LiveTab
	SelectedWindow int
}

// ParseSession parses decompressed session JSON.
func ParseSession(data []byte) (*Session, error) {
	var raw rawSession
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse session JSON: %w", err)
	}

	s := &Session{SelectedWindow: raw.SelectedWindow}
	if s.SelectedWindow < 1 || s.SelectedWindow > len(raw.Windows) {
		s.SelectedWindow = 1
	}
	nextID := 1
	for w, window := range raw.Windows {
		var tabs []types.LiveTab
		for i, rt := range window.Tabs {
			if len(rt.Entries) == 0 {
				continue
			}
			entry := rt.Entries[len(rt.Entries)-1]
			if rt.Index >= 1 && rt.Index <= len(rt.Entries) {
				entry = rt.Entries[rt.Index-1]
			}
			tabs = append(tabs, types.LiveTab{
				ID:         nextID,
				WindowID:   w + 1,
				Index:      len(tabs),
				Title:      entry.Title,
				URL:        entry.URL,
				FavIconURL: rt.Image,
				Pinned:     rt.Pinned,
				Active:     i+1 == window.Selected,
			})
			nextID++
		}
		s.Windows = append(s.Windows, tabs)
	}
	return s, nil
}

// Tabs returns the tabs of the selected window, or of every window.
func (s *Session) Tabs(currentWindow bool) []types.LiveTab {
	if currentWindow {
		if len(s.Windows) == 0 {
			return nil
		}
		return s.Windows[s.SelectedWindow-1]
	}
	var all []types.LiveTab
	for _, w := range s.Windows {
		all = append(all, w...)
	}
	return all
}

// sessionFile returns the newest session file in a profile: recovery.jsonlz4
// for a running browser, previous.jsonlz4 after a clean shutdown.
func sessionFile(profileDir string) (string, error) {
	backupDir := filepath.Join(profileDir, "sessionstore-backups")
	for _, name := range []string{"recovery.jsonlz4", "previous.jsonlz4"} {
		p := filepath.Join(backupDir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no session file found in %s", backupDir)
}

// ReadSessionFile reads and parses the session file of a profile.
func ReadSessionFile(profileDir string) (*Session, error) {
	path, err := sessionFile(profileDir)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	decompressed, err := DecompressMozLz4(data)
	if err != nil {
		return nil, fmt.Errorf("decompress session file: %w", err)
	}
	return ParseSession(decompressed)
}

// SessionHost is a read-only host.TabHost over a profile's session file. It
// lets groups be saved from a browser without the extension; every mutating
// call fails with host.ErrReadOnly.
type SessionHost struct {
	profileDir string
}

var _ host.TabHost = (*SessionHost)(nil)

// NewSessionHost returns a SessionHost reading from profileDir.
func NewSessionHost(profileDir string) *SessionHost {
	return &SessionHost{profileDir: profileDir}
}

// Query re-reads the session file on every call.
func (h *SessionHost) Query(_ context.Context, f host.Filter) ([]types.LiveTab, error) {
	s, err := ReadSessionFile(h.profileDir)
	if err != nil {
		return nil, err
	}
	var out []types.LiveTab
	for _, t := range s.Tabs(f.CurrentWindow) {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (h *SessionHost) Create(context.Context, string, bool) (types.LiveTab, error) {
	return types.LiveTab{}, host.ErrReadOnly
}

func (h *SessionHost) Update(context.Context, int, bool) error { return host.ErrReadOnly }

func (h *SessionHost) Remove(context.Context, []int) error { return host.ErrReadOnly }
