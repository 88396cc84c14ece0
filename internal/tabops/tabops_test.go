package tabops

import (
	"context"
	"errors"
	"testing"

	"github.com/lotas/tabtidy/internal/host"
	"github.com/lotas/tabtidy/internal/host/hosttest"
	"github.com/lotas/tabtidy/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func window() *hosttest.Fake {
	return hosttest.New(
		types.LiveTab{ID: 1, URL: "https://pinned.example", Pinned: true},
		types.LiveTab{ID: 2, URL: "https://a.example"},
		types.LiveTab{ID: 3, URL: "https://b.example"},
		types.LiveTab{ID: 4, URL: "https://a.example"},
	)
}

func TestCloseTabsEmptyTargets(t *testing.T) {
	fake := window()
	n, err := New(fake, "").CloseTabs(context.Background(), nil, []int{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, fake.Calls())
}

func TestCloseTabsSubsetNoPlaceholder(t *testing.T) {
	fake := window()
	n, err := New(fake, "").CloseTabs(context.Background(), []int{3}, []int{2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"remove"}, fake.Ops())
}

func TestCloseTabsAllCreatesPlaceholderFirst(t *testing.T) {
	fake := hosttest.New(
		types.LiveTab{ID: 1, URL: "https://a.example"},
		types.LiveTab{ID: 2, URL: "https://b.example"},
	)
	n, err := New(fake, "about:newtab").CloseTabs(context.Background(), []int{1, 2}, []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "create", calls[0].Op)
	assert.Equal(t, "about:newtab", calls[0].URL)
	assert.False(t, calls[0].Active)
	assert.Equal(t, "remove", calls[1].Op)

	left := fake.Tabs()
	require.Len(t, left, 1)
	assert.Equal(t, "about:newtab", left[0].URL)
}

func TestCloseTabsPlaceholderFailureClosesNothing(t *testing.T) {
	fake := hosttest.New(types.LiveTab{ID: 1, URL: "https://a.example"})
	fake.FailCreateAfter = 0

	n, err := New(fake, "").CloseTabs(context.Background(), []int{1}, []int{1})
	assert.Equal(t, 0, n)
	var opErr *host.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "create", opErr.Op)
	assert.Equal(t, []string{"create"}, fake.Ops())
	assert.Len(t, fake.Tabs(), 1)
}

func TestCloseTabsRemoveRejectedAfterPlaceholder(t *testing.T) {
	fake := hosttest.New(
		types.LiveTab{ID: 1, URL: "https://a.example"},
		types.LiveTab{ID: 2, URL: "https://b.example"},
	)
	fake.FailRemove = true

	n, err := New(fake, "").CloseTabs(context.Background(), []int{1, 2}, []int{1, 2})
	assert.Equal(t, 0, n)
	var opErr *host.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "remove", opErr.Op)
	assert.Equal(t, 1, opErr.Succeeded, "the placeholder create went through")
	assert.Equal(t, []string{"create", "remove"}, fake.Ops())
	assert.Len(t, fake.Tabs(), 3, "placeholder stays open")
}

func TestCloseTabsRemoveRejected(t *testing.T) {
	fake := window()
	fake.FailRemove = true
	_, err := New(fake, "").CloseTabs(context.Background(), []int{2}, []int{2, 3})
	var opErr *host.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "remove", opErr.Op)
	assert.Equal(t, 0, opErr.Succeeded)
}

func TestCloseInWindowLeavesAtLeastOneTab(t *testing.T) {
	fake := hosttest.New(
		types.LiveTab{ID: 1, URL: "https://a.example"},
		types.LiveTab{ID: 2, URL: "https://b.example"},
		types.LiveTab{ID: 3, URL: "https://c.example"},
	)
	n, err := New(fake, "").CloseInWindow(context.Background(), []int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, fake.Tabs(), 1)
	assert.Equal(t, DefaultPlaceholderURL, fake.Tabs()[0].URL)
}

func TestCloseDuplicates(t *testing.T) {
	fake := window()
	n, err := New(fake, "").CloseDuplicates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"query", "remove"}, fake.Ops())

	var ids []int
	for _, tab := range fake.Tabs() {
		ids = append(ids, tab.ID)
	}
	assert.Equal(t, []int{1, 2, 3}, ids)
}

func TestCloseDuplicatesSkipsPinned(t *testing.T) {
	fake := hosttest.New(
		types.LiveTab{ID: 1, URL: "https://a.example"},
		types.LiveTab{ID: 2, URL: "https://a.example", Pinned: true},
	)
	n, err := New(fake, "").CloseDuplicates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, fake.Tabs(), 2)
}

func TestCloseSaved(t *testing.T) {
	fake := window()
	snaps := []types.TabSnapshot{
		{URL: "https://a.example"},
		{URL: "https://b.example"},
		{URL: "https://pinned.example"},
	}
	n, err := New(fake, "").CloseSaved(context.Background(), snaps)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// All unpinned tabs matched, so a placeholder was opened first.
	assert.Equal(t, []string{"query", "create", "remove"}, fake.Ops())
	var urls []string
	for _, tab := range fake.Tabs() {
		urls = append(urls, tab.URL)
	}
	assert.Equal(t, []string{"https://pinned.example", DefaultPlaceholderURL}, urls)
}

func TestRestore(t *testing.T) {
	fake := hosttest.New(types.LiveTab{ID: 1, URL: "https://start.example"})
	g := types.TabGroup{ID: "g", Snapshots: []types.TabSnapshot{
		{URL: "https://one.example"},
		{URL: "https://two.example"},
	}}
	n, err := New(fake, "").Restore(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "https://one.example", calls[0].URL)
	assert.Equal(t, "https://two.example", calls[1].URL)
	assert.False(t, calls[0].Active || calls[1].Active)
}

func TestRestorePartialFailure(t *testing.T) {
	fake := hosttest.New(types.LiveTab{ID: 1, URL: "https://start.example"})
	fake.FailCreateAfter = 1
	g := types.TabGroup{ID: "g", Snapshots: []types.TabSnapshot{{URL: "a"}, {URL: "b"}, {URL: "c"}}}

	n, err := New(fake, "").Restore(context.Background(), g)
	assert.Equal(t, 1, n)
	var opErr *host.OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, 1, opErr.Succeeded)
	assert.Len(t, fake.Tabs(), 2, "no rollback of the opened tab")
}

func TestFocus(t *testing.T) {
	fake := window()
	require.NoError(t, New(fake, "").Focus(context.Background(), 3))
	for _, tab := range fake.Tabs() {
		assert.Equal(t, tab.ID == 3, tab.Active)
	}

	var opErr *host.OperationError
	assert.ErrorAs(t, New(fake, "").Focus(context.Background(), 99), &opErr)
}

func TestCapture(t *testing.T) {
	fake := hosttest.New(
		types.LiveTab{ID: 1, Title: "A", URL: "https://a.example", FavIconURL: "https://a.example/i.png"},
		types.LiveTab{ID: 2, Title: "B", URL: "https://b.example"},
	)
	o := New(fake, "")

	all, err := o.Capture(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []types.TabSnapshot{
		{Title: "A", URL: "https://a.example", IconRef: "https://a.example/i.png"},
		{Title: "B", URL: "https://b.example"},
	}, all)

	some, err := o.Capture(context.Background(), []int{2})
	require.NoError(t, err)
	assert.Equal(t, []types.TabSnapshot{{Title: "B", URL: "https://b.example"}}, some)
}
