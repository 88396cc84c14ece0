package firefox

import (
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/pierrec/lz4/v4"
)

func TestDecompressMozLz4(t *testing.T) {
	t.Run("valid mozlz4 payload", func(t *testing.T) {
		original := []byte(`{"windows":[{"tabs":[]}]}`)

		// Compress with lz4 block compression.
		dst := make([]byte, lz4.CompressBlockBound(len(original)))
		n, err := lz4.CompressBlock(original, dst, nil)
		if err != nil {
			t.Fatalf("lz4.CompressBlock failed: %v", err)
		}
		compressed := dst[:n]

		// Build mozlz4 payload: 8-byte magic + 4-byte LE uint32 size + compressed data.
		magic := []byte("mozLz40\x00")
		sizeBytes := make([]byte, 4)
		binary.LittleEndian.PutUint32(sizeBytes, uint32(len(original)))

		payload := make([]byte, 0, len(magic)+len(sizeBytes)+len(compressed))
		payload = append(payload, magic...)
		payload = append(payload, sizeBytes...)
		payload = append(payload, compressed...)

		result, err := DecompressMozLz4(payload)
		if err != nil {
			t.Fatalf("DecompressMozLz4 returned error: %v", err)
		}
		if string(result) != string(original) {
			t.Errorf("expected %q, got %q", string(original), string(result))
		}
	})

	t.Run("invalid header returns error", func(t *testing.T) {
		// Wrong magic bytes.
		bad := []byte("BADMAGIC\x00\x00\x00\x00some data here")
		_, err := DecompressMozLz4(bad)
		if err == nil {
			t.Fatal("expected error for invalid header, got nil")
		}
	})

	t.Run("too short data returns error", func(t *testing.T) {
		short := []byte("mozLz40")
		_, err := DecompressMozLz4(short)
		if err == nil {
			t.Fatal("expected error for too-short data, got nil")
		}
	})
}

func TestParseSession(t *testing.T) {
	session := map[string]interface{}{
		"selectedWindow": 2,
		"windows": []map[string]interface{}{
			{
				"selected": 1,
				"tabs": []map[string]interface{}{
					{"entries": []map[string]interface{}{{"url": "https://first.example", "title": "First"}}, "index": 1},
				},
			},
			{
				"selected": 2,
				"tabs": []map[string]interface{}{
					{
						"entries": []map[string]interface{}{
							{"url": "https://example.com", "title": "Example"},
						},
						"index":  1,
						"image":  "https://example.com/favicon.ico",
						"pinned": true,
					},
					{"entries": []map[string]interface{}{}},
					{
						"entries": []map[string]interface{}{
							{"url": "https://old.com", "title": "Old Page"},
							{"url": "https://current.com", "title": "Current Page"},
						},
						"index": 2,
					},
				},
			},
		},
	}

	data, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}

	s, err := ParseSession(data)
	if err != nil {
		t.Fatalf("ParseSession returned error: %v", err)
	}
	if len(s.Windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(s.Windows))
	}

	current := s.Tabs(true)
	if len(current) != 2 {
		t.Fatalf("expected 2 tabs in selected window, got %d", len(current))
	}
	tab0, tab1 := current[0], current[1]
	if tab0.ID != 2 || tab0.WindowID != 2 || tab0.Index != 0 {
		t.Errorf("tab0 ids: %+v", tab0)
	}
	if !tab0.Pinned || tab0.FavIconURL != "https://example.com/favicon.ico" {
		t.Errorf("tab0 fields: %+v", tab0)
	}
	// index=2 means entries[1] is the current page.
	if tab1.URL != "https://current.com" || tab1.Title != "Current Page" {
		t.Errorf("tab1 URL/title: %q %q", tab1.URL, tab1.Title)
	}
	// selected counts raw tabs, and raw tab 2 has no entries.
	if tab0.Active || tab1.Active {
		t.Errorf("no surviving tab sits at the selected raw position: %+v", current)
	}

	if all := s.Tabs(false); len(all) != 3 {
		t.Errorf("expected 3 tabs across windows, got %d", len(all))
	}
}

func TestParseSessionSelectedWindowOutOfRange(t *testing.T) {
	s, err := ParseSession([]byte(`{"selectedWindow": 9, "windows": [{"selected": 1, "tabs": [{"entries": [{"url": "https://a.example"}], "index": 1}]}]}`))
	if err != nil {
		t.Fatal(err)
	}
	tabs := s.Tabs(true)
	if len(tabs) != 1 || !tabs[0].Active {
		t.Errorf("tabs = %+v", tabs)
	}
}
