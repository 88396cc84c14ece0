package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lotas/tabtidy/internal/analyzer"
	"github.com/lotas/tabtidy/internal/selection"
	"github.com/lotas/tabtidy/internal/types"
)

// tabRow is one visible row of the current-window panel: a domain header in
// grouped mode, or a tab.
type tabRow struct {
	domain string
	count  int
	tab    *types.LiveTab
}

// TabsView lists the tabs of the current window.
type TabsView struct {
	Tabs      []types.LiveTab
	Query     string
	Mode      types.ViewMode
	Collapsed map[string]bool // domain -> collapsed
	Dupes     map[int]bool
	MarkDupes bool
	Selected  *selection.Set[int]
	Cursor    listCursor
	Width     int
}

func NewTabsView(sel *selection.Set[int], mode types.ViewMode) TabsView {
	return TabsView{
		Mode:      mode,
		Collapsed: make(map[string]bool),
		Dupes:     make(map[int]bool),
		Selected:  sel,
	}
}

// SetTabs replaces the tab list, keeping the cursor in range.
func (v *TabsView) SetTabs(tabs []types.LiveTab) {
	v.Tabs = tabs
	v.Dupes = analyzer.FindDuplicates(tabs)
	v.Cursor.Clamp(len(v.Rows()))
}

// Filtered returns the tabs matching the search query, in window order.
func (v TabsView) Filtered() []types.LiveTab {
	return analyzer.Filter(v.Tabs, v.Query)
}

// FilteredIDs returns the ids of the filtered tabs.
func (v TabsView) FilteredIDs() []int {
	tabs := v.Filtered()
	ids := make([]int, len(tabs))
	for i, t := range tabs {
		ids[i] = t.ID
	}
	return ids
}

// Rows returns the visible rows.
func (v TabsView) Rows() []tabRow {
	tabs := v.Filtered()
	var rows []tabRow
	if v.Mode != types.ViewGrouped {
		for i := range tabs {
			rows = append(rows, tabRow{tab: &tabs[i]})
		}
		return rows
	}
	for _, g := range analyzer.GroupByDomain(tabs) {
		rows = append(rows, tabRow{domain: g.Domain, count: len(g.Tabs)})
		if v.Collapsed[g.Domain] {
			continue
		}
		for i := range g.Tabs {
			rows = append(rows, tabRow{tab: &g.Tabs[i]})
		}
	}
	return rows
}

// Current returns the row under the cursor.
func (v TabsView) Current() (tabRow, bool) {
	rows := v.Rows()
	if v.Cursor.Pos < 0 || v.Cursor.Pos >= len(rows) {
		return tabRow{}, false
	}
	return rows[v.Cursor.Pos], true
}

func (v *TabsView) MoveUp()   { v.Cursor.Up() }
func (v *TabsView) MoveDown() { v.Cursor.Down(len(v.Rows())) }

// ToggleMode switches between the flat and the by-domain list.
func (v *TabsView) ToggleMode() {
	if v.Mode == types.ViewGrouped {
		v.Mode = types.ViewList
	} else {
		v.Mode = types.ViewGrouped
	}
	v.Cursor.Reset()
}

// ToggleDomain collapses or expands the domain under the cursor.
func (v *TabsView) ToggleDomain() bool {
	row, ok := v.Current()
	if !ok || row.tab != nil {
		return false
	}
	v.Collapsed[row.domain] = !v.Collapsed[row.domain]
	return true
}

// View renders the panel.
func (v TabsView) View() string {
	rows := v.Rows()
	if len(rows) == 0 {
		if v.Query != "" {
			return "No tabs found."
		}
		return "No open tabs."
	}

	cursorStyle := lipgloss.NewStyle().Bold(true).Reverse(true)
	dupStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	pinStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	domainStyle := lipgloss.NewStyle().Bold(true)
	countStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	var b strings.Builder
	start, end := v.Cursor.window(len(rows))
	for i := start; i < end; i++ {
		row := rows[i]
		var line string
		if row.tab == nil {
			icon := "▼"
			if v.Collapsed[row.domain] {
				icon = "▶"
			}
			line = domainStyle.Render(icon+" "+row.domain) + countStyle.Render(fmt.Sprintf(" %d", row.count))
		} else {
			t := row.tab
			prefix := "  "
			if v.Selected.Active() {
				prefix = "[ ] "
				if v.Selected.Contains(t.ID) {
					prefix = "[x] "
				}
			}
			if v.Mode == types.ViewGrouped {
				prefix = "  " + prefix
			}
			marker := ""
			if t.Pinned {
				marker += pinStyle.Render("📌")
			}
			if v.MarkDupes && v.Dupes[t.ID] {
				marker += dupStyle.Render("⇄")
			}
			if marker != "" {
				marker += " "
			}
			title := t.Title
			if title == "" {
				title = t.URL
			}
			line = prefix + marker + truncate(title, v.Width-lipgloss.Width(prefix+marker)-2)
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
