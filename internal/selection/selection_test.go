package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToggle(t *testing.T) {
	s := New[int]()
	assert.True(t, s.Toggle(3))
	assert.True(t, s.Contains(3))
	assert.Equal(t, 1, s.Len())

	assert.False(t, s.Toggle(3))
	assert.False(t, s.Contains(3))
	assert.Equal(t, 0, s.Len())
}

func TestToggleAllTwiceIsEmpty(t *testing.T) {
	s := New[int]()
	candidates := []int{1, 2, 3}

	s.ToggleAll(candidates)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, candidates, s.IDs(candidates))

	s.ToggleAll(candidates)
	assert.Equal(t, 0, s.Len())
}

func TestToggleAllFromPartialSelectsAll(t *testing.T) {
	s := New[int]()
	s.Toggle(2)
	s.ToggleAll([]int{1, 2, 3})
	assert.Equal(t, []int{1, 2, 3}, s.IDs([]int{1, 2, 3}))
}

func TestToggleAllComparesSizeOnly(t *testing.T) {
	s := New[string]()
	s.Toggle("x")
	s.Toggle("y")
	// Same size as the candidates but different members: cleared.
	s.ToggleAll([]string{"a", "b"})
	assert.Equal(t, 0, s.Len())
}

func TestIDsOrder(t *testing.T) {
	s := New[int]()
	s.Toggle(5)
	s.Toggle(1)
	s.Toggle(9)
	assert.Equal(t, []int{9, 1, 5}, s.IDs([]int{9, 4, 1, 5}))
	assert.ElementsMatch(t, []int{1, 5, 9}, s.IDs(nil))
}

func TestModeEnterExit(t *testing.T) {
	s := New[int]()
	assert.False(t, s.Active())
	s.Enter()
	assert.True(t, s.Active())
	s.Toggle(1)

	s.Clear()
	assert.True(t, s.Active(), "clear keeps selection mode")

	s.Toggle(2)
	s.Exit()
	assert.False(t, s.Active())
	assert.Equal(t, 0, s.Len())
}

func TestSetsAreIndependent(t *testing.T) {
	tabs := New[int]()
	groups := New[string]()
	tabs.Enter()
	tabs.ToggleAll([]int{1, 2})
	groups.Toggle("g1")

	tabs.Exit()
	assert.Equal(t, 1, groups.Len())
	assert.False(t, groups.Active())
}
