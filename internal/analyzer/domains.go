package analyzer

import (
	"net/url"
	"strings"

	"github.com/lotas/tabtidy/internal/types"
)

// OtherDomain collects tabs whose URL has no host or does not parse.
const OtherDomain = "Other"

// DomainGroup is a run of tabs sharing a host name.
type DomainGroup struct {
	Domain string
	Tabs   []types.LiveTab
}

// Domain returns the host name of rawURL, or OtherDomain.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return OtherDomain
	}
	return u.Hostname()
}

// GroupByDomain buckets tabs by host name. Buckets appear in the order their
// first tab appears, and tabs keep their relative order inside a bucket.
func GroupByDomain(tabs []types.LiveTab) []DomainGroup {
	index := make(map[string]int)
	var groups []DomainGroup
	for _, tab := range tabs {
		d := Domain(tab.URL)
		i, ok := index[d]
		if !ok {
			i = len(groups)
			index[d] = i
			groups = append(groups, DomainGroup{Domain: d})
		}
		groups[i].Tabs = append(groups[i].Tabs, tab)
	}
	return groups
}

// Filter returns the tabs whose title or URL contains query, ignoring case.
// A blank query returns every tab.
func Filter(tabs []types.LiveTab, query string) []types.LiveTab {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]types.LiveTab(nil), tabs...)
	}
	var out []types.LiveTab
	for _, tab := range tabs {
		if strings.Contains(strings.ToLower(tab.Title), q) || strings.Contains(strings.ToLower(tab.URL), q) {
			out = append(out, tab)
		}
	}
	return out
}

// FilterGroups returns the saved groups whose name, or any snapshot title or
// URL, contains query, ignoring case.
func FilterGroups(groups []types.TabGroup, query string) []types.TabGroup {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]types.TabGroup(nil), groups...)
	}
	var out []types.TabGroup
	for _, g := range groups {
		if strings.Contains(strings.ToLower(g.Name), q) {
			out = append(out, g)
			continue
		}
		for _, s := range g.Snapshots {
			if strings.Contains(strings.ToLower(s.Title), q) || strings.Contains(strings.ToLower(s.URL), q) {
				out = append(out, g)
				break
			}
		}
	}
	return out
}
