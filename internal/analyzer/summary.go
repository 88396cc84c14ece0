package analyzer

import (
	"fmt"

	"github.com/lotas/tabtidy/internal/types"
)

// ComputeStats counts saved groups and their tabs. bytes is the size of the
// stored data and is passed through.
func ComputeStats(groups []types.TabGroup, bytes int) types.Stats {
	stats := types.Stats{Groups: len(groups), Bytes: bytes}
	for _, g := range groups {
		stats.Tabs += len(g.Snapshots)
	}
	return stats
}

// FormatSize renders a byte count in kilobytes with two decimals.
func FormatSize(bytes int) string {
	return fmt.Sprintf("%.2f KB", float64(bytes)/1024)
}

// Describe renders stats the way the settings page shows them.
func Describe(s types.Stats) string {
	return fmt.Sprintf("%d groups, %d tabs saved (%s)", s.Groups, s.Tabs, FormatSize(s.Bytes))
}
