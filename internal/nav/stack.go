// Package nav implements the navigation stack: an ordered list of route
// entries, each holding a screen state and how it was presented.
//
// Stack has value semantics. Every mutation copies the backing slice, so a
// snapshot taken before a mutation never observes it.
package nav

import "slices"

// Style is how a route entry was presented.
type Style int

const (
	// StylePush slides the screen onto the stack.
	StylePush Style = iota
	// StyleCover presents the screen modally over everything below it.
	StyleCover
)

// String returns the style name.
func (s Style) String() string {
	switch s {
	case StylePush:
		return "push"
	case StyleCover:
		return "cover"
	default:
		return "unknown"
	}
}

// EntryID identifies a route entry within its stack. IDs increase from the
// bottom of the stack to the top and are never reused by the same stack.
type EntryID int64

// Entry is one route on the stack.
type Entry[R any] struct {
	ID     EntryID
	Screen R
	Style  Style
}

// ElementAction addresses an action to one route entry.
type ElementAction[A any] struct {
	ID     EntryID
	Action A
}

// Stack is an ordered collection of route entries. The zero value is an
// empty stack.
type Stack[R any] struct {
	entries []Entry[R]
	last    EntryID
}

// Push appends screen with the push style and returns its id.
func (s *Stack[R]) Push(screen R) EntryID {
	return s.append(screen, StylePush)
}

// PresentCover appends screen with the cover style and returns its id.
func (s *Stack[R]) PresentCover(screen R) EntryID {
	return s.append(screen, StyleCover)
}

func (s *Stack[R]) append(screen R, style Style) EntryID {
	s.last++
	id := s.last
	next := make([]Entry[R], len(s.entries), len(s.entries)+1)
	copy(next, s.entries)
	s.entries = append(next, Entry[R]{ID: id, Screen: screen, Style: style})
	return id
}

// Pop removes the top entry.
func (s *Stack[R]) Pop() (Entry[R], bool) {
	n := len(s.entries)
	if n == 0 {
		var zero Entry[R]
		return zero, false
	}
	top := s.entries[n-1]
	s.entries = slices.Clone(s.entries[:n-1])
	return top, true
}

// Dismiss removes the entry with id and every entry above it. It reports
// whether id was on the stack.
func (s *Stack[R]) Dismiss(id EntryID) bool {
	i := s.Index(id)
	if i < 0 {
		return false
	}
	s.entries = slices.Clone(s.entries[:i])
	return true
}

// GoBack pops entries until the top one satisfies match. If no entry
// matches, the stack is left untouched and GoBack returns false.
func (s *Stack[R]) GoBack(match func(R) bool) bool {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if match(s.entries[i].Screen) {
			s.entries = slices.Clone(s.entries[:i+1])
			return true
		}
	}
	return false
}

// PopToRoot removes every entry.
func (s *Stack[R]) PopToRoot() {
	s.entries = nil
}

// Update applies fn to the screen of entry id. It reports whether the entry
// exists.
func (s *Stack[R]) Update(id EntryID, fn func(*R)) bool {
	i := s.Index(id)
	if i < 0 {
		return false
	}
	next := slices.Clone(s.entries)
	fn(&next[i].Screen)
	s.entries = next
	return true
}

// Top returns the top entry.
func (s Stack[R]) Top() (Entry[R], bool) {
	if len(s.entries) == 0 {
		var zero Entry[R]
		return zero, false
	}
	return s.entries[len(s.entries)-1], true
}

// Entry returns the entry with id.
func (s Stack[R]) Entry(id EntryID) (Entry[R], bool) {
	if i := s.Index(id); i >= 0 {
		return s.entries[i], true
	}
	var zero Entry[R]
	return zero, false
}

// At returns the entry at index i, counted from the bottom.
func (s Stack[R]) At(i int) (Entry[R], bool) {
	if i < 0 || i >= len(s.entries) {
		var zero Entry[R]
		return zero, false
	}
	return s.entries[i], true
}

// Index returns the position of id, or -1.
func (s Stack[R]) Index(id EntryID) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Len returns the number of entries.
func (s Stack[R]) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the entries, bottom first.
func (s Stack[R]) Entries() []Entry[R] {
	return slices.Clone(s.entries)
}

// IDs returns the entry ids, bottom first.
func (s Stack[R]) IDs() []EntryID {
	ids := make([]EntryID, len(s.entries))
	for i, e := range s.entries {
		ids[i] = e.ID
	}
	return ids
}

// Equal reports whether both stacks hold the same entries in the same order.
// The id allocator is not compared: push(a), push(b), pop() equals push(a).
func (s Stack[R]) Equal(other Stack[R], eq func(a, b R) bool) bool {
	return slices.EqualFunc(s.entries, other.entries, func(a, b Entry[R]) bool {
		return a.ID == b.ID && a.Style == b.Style && eq(a.Screen, b.Screen)
	})
}
