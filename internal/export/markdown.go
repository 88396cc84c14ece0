package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/lotas/tabtidy/internal/types"
)

// FormatDate renders a save date as YYYY/MM/DD.
func FormatDate(t time.Time) string {
	return t.Format("2006/01/02")
}

// Markdown formats saved groups as a markdown document, newest first.
func Markdown(groups []types.TabGroup) string {
	var b strings.Builder

	b.WriteString("# Saved tab groups\n")

	for _, g := range groups {
		n := len(g.Snapshots)
		noun := "tabs"
		if n == 1 {
			noun = "tab"
		}
		fmt.Fprintf(&b, "\n## %s (%d %s)\n\n", g.Name, n, noun)
		fmt.Fprintf(&b, "> Saved %s\n\n", FormatDate(g.CreatedAt))

		for _, s := range g.Snapshots {
			title := s.Title
			if title == "" {
				title = s.URL
			}
			fmt.Fprintf(&b, "- [%s](%s)\n", title, s.URL)
		}
	}

	return b.String()
}
