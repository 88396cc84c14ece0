package analyzer

import "github.com/lotas/tabtidy/internal/types"

// FindDuplicates returns the ids of tabs whose URL already appeared earlier
// in tabs. The first tab with a given URL is never reported. URLs are
// compared as exact strings.
func FindDuplicates(tabs []types.LiveTab) map[int]bool {
	first := make(map[string]int, len(tabs))
	dupes := make(map[int]bool)
	for _, tab := range tabs {
		if _, seen := first[tab.URL]; seen {
			dupes[tab.ID] = true
			continue
		}
		first[tab.URL] = tab.ID
	}
	return dupes
}

// DuplicateIDs returns the ids reported by FindDuplicates in tab order.
func DuplicateIDs(tabs []types.LiveTab) []int {
	dupes := FindDuplicates(tabs)
	ids := make([]int, 0, len(dupes))
	for _, tab := range tabs {
		if dupes[tab.ID] {
			ids = append(ids, tab.ID)
		}
	}
	return ids
}

// DuplicateOf maps every duplicate tab id to the id of the first tab with
// the same URL.
func DuplicateOf(tabs []types.LiveTab) map[int]int {
	first := make(map[string]int, len(tabs))
	out := make(map[int]int)
	for _, tab := range tabs {
		if id, seen := first[tab.URL]; seen {
			out[tab.ID] = id
			continue
		}
		first[tab.URL] = tab.ID
	}
	return out
}
