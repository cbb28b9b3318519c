package party

import (
	"errors"
	"sort"
)

// Set holds a set of party IDs that can be queried in various ways. The
// aggregator's membership sets U₁…U₄ (spec.md §3) are each a *Set; clients'
// local views U₂_local and U₃_local are too.
type Set struct {
	set   map[ID]bool
	slice []ID
}

// NewSet generates a set from a slice of IDs. It returns an error if any ID
// is the zero value, or if partyIDs contains duplicates.
func NewSet(partyIDs []ID) (*Set, error) {
	n := len(partyIDs)
	s := &Set{
		set:   make(map[ID]bool, n),
		slice: make([]ID, 0, n),
	}
	for _, id := range partyIDs {
		if id == Zero {
			return nil, errors.New("party: IDs cannot be the zero value")
		}
		if s.set[id] {
			return nil, errors.New("party: partyIDs contains duplicates")
		}
		s.set[id] = true
		s.slice = append(s.slice, id)
	}
	sort.Sort(IDSlice(s.slice))
	return s, nil
}

// Contains returns true if every ID in partyIDs is included in the set.
func (s *Set) Contains(partyIDs ...ID) bool {
	for _, id := range partyIDs {
		if !s.set[id] {
			return false
		}
	}
	return true
}

// Sorted returns a sorted slice of the parties in the set. Callers must not
// modify the returned slice.
func (s *Set) Sorted() IDSlice {
	return s.slice
}

// N returns the number of IDs in the set.
func (s *Set) N() int {
	return len(s.set)
}

// Equal returns true if s and otherSet contain exactly the same IDs.
func (s *Set) Equal(otherSet *Set) bool {
	if len(s.set) != len(otherSet.set) {
		return false
	}
	for id := range s.set {
		if !otherSet.set[id] {
			return false
		}
	}
	return true
}

// IsSubsetOf returns true if every ID in s also appears in otherSet.
func (s *Set) IsSubsetOf(otherSet *Set) bool {
	return otherSet.Contains(s.slice...)
}

// Intersect returns a new Set from IDs in s that are also found in otherSet.
func (s *Set) Intersect(otherSet *Set) *Set {
	out := &Set{set: make(map[ID]bool), slice: nil}
	for _, id := range s.slice {
		if otherSet.set[id] {
			out.set[id] = true
			out.slice = append(out.slice, id)
		}
	}
	sort.Sort(IDSlice(out.slice))
	return out
}

// Remove returns a new Set containing s's IDs minus those in dead.
func (s *Set) Remove(dead ...ID) *Set {
	deadSet := make(map[ID]bool, len(dead))
	for _, id := range dead {
		deadSet[id] = true
	}
	out := &Set{set: make(map[ID]bool), slice: nil}
	for _, id := range s.slice {
		if !deadSet[id] {
			out.set[id] = true
			out.slice = append(out.slice, id)
		}
	}
	sort.Sort(IDSlice(out.slice))
	return out
}

// Range returns the internal membership map for iteration. Callers must not
// modify the returned map.
func (s *Set) Range() map[ID]bool {
	return s.set
}
