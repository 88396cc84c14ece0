package firefox

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lotas/tabtidy/internal/analyzer"
	"github.com/lotas/tabtidy/internal/host"
	"github.com/lotas/tabtidy/internal/tabops"
	"github.com/pierrec/lz4/v4"
)

func writeProfile(t *testing.T, sessionJSON string) string {
	t.Helper()
	profileDir := t.TempDir()
	backupDir := filepath.Join(profileDir, "sessionstore-backups")
	os.MkdirAll(backupDir, 0755)

	jsonBytes := []byte(sessionJSON)
	compressed := make([]byte, lz4.CompressBlockBound(len(jsonBytes)))
	n, err := lz4.CompressBlock(jsonBytes, compressed, nil)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}

	mozlz4 := make([]byte, 0, 12+n)
	mozlz4 = append(mozlz4, []byte("mozLz40\x00")...)
	sizeBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(sizeBuf, uint32(len(jsonBytes)))
	mozlz4 = append(mozlz4, sizeBuf...)
	mozlz4 = append(mozlz4, compressed[:n]...)

	os.WriteFile(filepath.Join(backupDir, "recovery.jsonlz4"), mozlz4, 0644)
	return profileDir
}

func TestIntegration_CaptureFromSessionFile(t *testing.T) {
	profileDir := writeProfile(t, `{
		"version": ["sessionrestore", 1],
		"selectedWindow": 1,
		"windows": [{
			"selected": 3,
			"tabs": [
				{"entries": [{"url": "https://example.com", "title": "Example"}], "index": 1, "pinned": true},
				{"entries": [{"url": "https://example.com", "title": "Example Dup"}], "index": 1},
				{"entries": [{"url": "https://other.com/page", "title": "Other"}], "index": 1}
			]
		}]
	}`)

	h := NewSessionHost(profileDir)
	ctx := context.Background()

	snaps, err := tabops.New(h, "").Capture(ctx, nil)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(snaps))
	}
	if snaps[2].Title != "Other" {
		t.Errorf("snapshot order lost: %+v", snaps)
	}

	tabs, err := h.Query(ctx, host.Filter{CurrentWindow: true})
	if err != nil {
		t.Fatal(err)
	}
	if dupes := analyzer.DuplicateIDs(tabs); len(dupes) != 1 || dupes[0] != 2 {
		t.Errorf("expected tab 2 reported as duplicate, got %v", dupes)
	}
	if !tabs[2].Active {
		t.Error("selected tab should be active")
	}

	unpinned := false
	open, err := h.Query(ctx, host.Filter{CurrentWindow: true, Pinned: &unpinned})
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 2 {
		t.Errorf("expected 2 unpinned tabs, got %d", len(open))
	}
}

func TestSessionHostIsReadOnly(t *testing.T) {
	profileDir := writeProfile(t, `{"windows": [{"tabs": [{"entries": [{"url": "https://a.example"}], "index": 1}]}]}`)
	o := tabops.New(NewSessionHost(profileDir), "")
	ctx := context.Background()

	if _, err := o.CloseInWindow(ctx, []int{1}); !errors.Is(err, host.ErrReadOnly) {
		t.Errorf("close: err = %v, want ErrReadOnly", err)
	}
	if err := o.Focus(ctx, 1); !errors.Is(err, host.ErrReadOnly) {
		t.Errorf("focus: err = %v, want ErrReadOnly", err)
	}
}

func TestSessionHostMissingFile(t *testing.T) {
	if _, err := NewSessionHost(t.TempDir()).Query(context.Background(), host.Filter{}); err == nil {
		t.Error("expected error for profile without session file")
	}
}
