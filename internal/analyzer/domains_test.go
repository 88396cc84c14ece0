package analyzer

import (
	"testing"

	"github.com/lotas/tabtidy/internal/types"
)

func TestGroupByDomain(t *testing.T) {
	tabs := []types.LiveTab{
		{ID: 1, URL: "https://go.dev/doc"},
		{ID: 2, URL: "https://github.com/a"},
		{ID: 3, URL: "about:blank"},
		{ID: 4, URL: "https://go.dev/blog"},
		{ID: 5, URL: "://broken"},
	}

	groups := GroupByDomain(tabs)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	want := []struct {
		domain string
		ids    []int
	}{
		{"go.dev", []int{1, 4}},
		{"github.com", []int{2}},
		{OtherDomain, []int{3, 5}},
	}
	for i, w := range want {
		if groups[i].Domain != w.domain {
			t.Errorf("group %d domain = %q, want %q", i, groups[i].Domain, w.domain)
		}
		if len(groups[i].Tabs) != len(w.ids) {
			t.Errorf("group %d has %d tabs, want %d", i, len(groups[i].Tabs), len(w.ids))
			continue
		}
		for j, id := range w.ids {
			if groups[i].Tabs[j].ID != id {
				t.Errorf("group %d tab %d = %d, want %d", i, j, groups[i].Tabs[j].ID, id)
			}
		}
	}
}

func TestFilter(t *testing.T) {
	tabs := []types.LiveTab{
		{ID: 1, Title: "Go Documentation", URL: "https://go.dev/doc"},
		{ID: 2, Title: "Issues", URL: "https://github.com/golang/go/issues"},
		{ID: 3, Title: "News", URL: "https://news.example"},
	}

	tests := []struct {
		query string
		want  []int
	}{
		{"", []int{1, 2, 3}},
		{"  ", []int{1, 2, 3}},
		{"GO", []int{1, 2}},
		{"issues", []int{2}},
		{"nothing", nil},
	}
	for _, tt := range tests {
		got := Filter(tabs, tt.query)
		if len(got) != len(tt.want) {
			t.Errorf("Filter(%q) returned %d tabs, want %d", tt.query, len(got), len(tt.want))
			continue
		}
		for i, id := range tt.want {
			if got[i].ID != id {
				t.Errorf("Filter(%q)[%d] = %d, want %d", tt.query, i, got[i].ID, id)
			}
		}
	}
}

func TestFilterGroups(t *testing.T) {
	groups := []types.TabGroup{
		{ID: "1", Name: "Research", Snapshots: []types.TabSnapshot{{Title: "Paper", URL: "https://arxiv.org"}}},
		{ID: "2", Name: "Shopping", Snapshots: []types.TabSnapshot{{Title: "Cart", URL: "https://shop.example"}}},
	}
	if got := FilterGroups(groups, "research"); len(got) != 1 || got[0].ID != "1" {
		t.Errorf("name match failed: %v", got)
	}
	if got := FilterGroups(groups, "SHOP.example"); len(got) != 1 || got[0].ID != "2" {
		t.Errorf("url match failed: %v", got)
	}
	if got := FilterGroups(groups, ""); len(got) != 2 {
		t.Errorf("blank query should match all, got %d", len(got))
	}
}
