package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lotas/tabtidy/internal/analyzer"
	"github.com/lotas/tabtidy/internal/export"
	"github.com/lotas/tabtidy/internal/selection"
	"github.com/lotas/tabtidy/internal/types"
)

// savedRow is one visible row of the saved panel: a group header, or one of
// an expanded group's snapshots.
type savedRow struct {
	group *types.TabGroup
	index int // snapshot index, -1 for the group row
}

// SavedView lists the saved groups, newest first.
type SavedView struct {
	Groups       []types.TabGroup
	Query        string
	Expanded     map[string]bool // group id -> expanded
	ShowTabCount bool
	Selected     *selection.Set[string]
	Cursor       listCursor
	Width        int
}

func NewSavedView(sel *selection.Set[string]) SavedView {
	return SavedView{
		Expanded:     make(map[string]bool),
		ShowTabCount: true,
		Selected:     sel,
	}
}

// SetGroups replaces the group list. Expansion state of groups that no
// longer exist is dropped.
func (v *SavedView) SetGroups(groups []types.TabGroup) {
	v.Groups = groups
	live := make(map[string]bool, len(groups))
	for _, g := range groups {
		live[g.ID] = true
	}
	for id := range v.Expanded {
		if !live[id] {
			delete(v.Expanded, id)
		}
	}
	v.Cursor.Clamp(len(v.Rows()))
}

// Filtered returns the groups matching the search query.
func (v SavedView) Filtered() []types.TabGroup {
	return analyzer.FilterGroups(v.Groups, v.Query)
}

// FilteredIDs returns the ids of the filtered groups.
func (v SavedView) FilteredIDs() []string {
	groups := v.Filtered()
	ids := make([]string, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}
	return ids
}

// Rows returns the visible rows.
func (v SavedView) Rows() []savedRow {
	groups := v.Filtered()
	var rows []savedRow
	for i := range groups {
		g := &groups[i]
		rows = append(rows, savedRow{group: g, index: -1})
		if v.Expanded[g.ID] {
			for j := range g.Snapshots {
				rows = append(rows, savedRow{group: g, index: j})
			}
		}
	}
	return rows
}

// Current returns the row under the cursor.
func (v SavedView) Current() (savedRow, bool) {
	rows := v.Rows()
	if v.Cursor.Pos < 0 || v.Cursor.Pos >= len(rows) {
		return savedRow{}, false
	}
	return rows[v.Cursor.Pos], true
}

func (v *SavedView) MoveUp()   { v.Cursor.Up() }
func (v *SavedView) MoveDown() { v.Cursor.Down(len(v.Rows())) }

// Toggle expands or collapses the group under the cursor. On a snapshot row
// it collapses the parent and moves the cursor onto it.
func (v *SavedView) Toggle() {
	row, ok := v.Current()
	if !ok {
		return
	}
	id := row.group.ID
	if row.index >= 0 {
		v.Expanded[id] = false
		for i, r := range v.Rows() {
			if r.index < 0 && r.group.ID == id {
				v.Cursor.Pos = i
				break
			}
		}
		v.Cursor.Clamp(len(v.Rows()))
		return
	}
	v.Expanded[id] = !v.Expanded[id]
}

// View renders the panel.
func (v SavedView) View() string {
	rows := v.Rows()
	if len(rows) == 0 {
		if v.Query != "" {
			return "No saved groups match."
		}
		return "No saved groups yet. Press s on the Current panel to save one."
	}

	cursorStyle := lipgloss.NewStyle().Bold(true).Reverse(true)
	nameStyle := lipgloss.NewStyle().Bold(true)
	metaStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	urlStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	var b strings.Builder
	start, end := v.Cursor.window(len(rows))
	for i := start; i < end; i++ {
		row := rows[i]
		g := row.group
		var line string
		if row.index < 0 {
			icon := "▶"
			if v.Expanded[g.ID] {
				icon = "▼"
			}
			prefix := ""
			if v.Selected.Active() {
				prefix = "[ ] "
				if v.Selected.Contains(g.ID) {
					prefix = "[x] "
				}
			}
			meta := " " + export.FormatDate(g.CreatedAt)
			if v.ShowTabCount {
				meta = fmt.Sprintf(" (%d tabs)%s", len(g.Snapshots), meta)
			}
			name := truncate(g.Name, v.Width-lipgloss.Width(prefix+meta)-4)
			line = prefix + icon + " " + nameStyle.Render(name) + metaStyle.Render(meta)
		} else {
			s := g.Snapshots[row.index]
			title := s.Title
			if title == "" {
				title = s.URL
			}
			line = "    " + truncate(title, v.Width/2) + " " + urlStyle.Render(truncate(s.URL, v.Width/2-6))
		}

		if i == v.Cursor.Pos {
			line = cursorStyle.Render(padRight(line, v.Width))
		}
		b.WriteString(line)
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
