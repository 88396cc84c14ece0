// Package selection tracks which items are marked for a bulk action.
//
// A Set belongs to one context (live tabs or saved groups); callers keep one
// instance per context so the two never share state.
package selection

// Set is a set of ids plus the selection-mode flag of its context.
type Set[K comparable] struct {
	ids    map[K]struct{}
	active bool
}

// New returns an empty, inactive set.
func New[K comparable]() *Set[K] {
	return &Set[K]{ids: make(map[K]struct{})}
}

// Enter switches selection mode on.
func (s *Set[K]) Enter() { s.active = true }

// Exit switches selection mode off and forgets the selection.
func (s *Set[K]) Exit() {
	s.active = false
	s.Clear()
}

// Active reports whether selection mode is on.
func (s *Set[K]) Active() bool { return s.active }

// Toggle adds id if absent and removes it if present. It reports whether id
// is selected afterwards.
func (s *Set[K]) Toggle(id K) bool {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// ToggleAll clears the set when it holds as many ids as candidates, and
// otherwise replaces it with every candidate. Only sizes are compared, so a
// set of the right size holding other ids is cleared too.
func (s *Set[K]) ToggleAll(candidates []K) {
	if len(s.ids) == len(candidates) {
		s.Clear()
		return
	}
	s.ids = make(map[K]struct{}, len(candidates))
	for _, id := range candidates {
		s.ids[id] = struct{}{}
	}
}

// Len returns the number of selected ids.
func (s *Set[K]) Len() int { return len(s.ids) }

// Contains reports whether id is selected.
func (s *Set[K]) Contains(id K) bool {
	_, ok := s.ids[id]
	return ok
}

// IDs returns the selected ids that appear in order, in that order. Passing
// nil returns every selected id in unspecified order.
func (s *Set[K]) IDs(order []K) []K {
	out := make([]K, 0, len(s.ids))
	if order == nil {
		for id := range s.ids {
			out = append(out, id)
		}
		return out
	}
	for _, id := range order {
		if s.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}

// Clear empties the set without leaving selection mode.
func (s *Set[K]) Clear() {
	clear(s.ids)
}
