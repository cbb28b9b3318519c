package party

import "sort"

// IDSlice is a sorted slice of party IDs, used to fix the peer ordering that
// assigns each party its 1-based ShareIndex (spec.md §9).
type IDSlice []ID

func (ids IDSlice) Len() int           { return len(ids) }
func (ids IDSlice) Less(i, j int) bool { return ids[i].Less(ids[j]) }
func (ids IDSlice) Swap(i, j int)      { ids[i], ids[j] = ids[j], ids[i] }

// Sort is a convenience method: x.Sort() calls sort.Sort(x).
func (ids IDSlice) Sort() { sort.Sort(ids) }

// Sorted returns true if ids is strictly increasing, with no duplicates.
func (ids IDSlice) Sorted() bool {
	for i := 1; i < len(ids); i++ {
		if !ids[i-1].Less(ids[i]) {
			return false
		}
	}
	return true
}

// Contains returns true if ids contains id. Assumes ids is sorted.
func (ids IDSlice) Contains(id ID) bool {
	_, ok := ids.Search(id)
	return ok
}

// Search returns the index of id in ids, and whether it was found. Assumes
// ids is sorted.
func (ids IDSlice) Search(x ID) (int, bool) {
	index := sort.Search(len(ids), func(i int) bool { return !ids[i].Less(x) })
	if index < len(ids) && ids[index].Equal(x) {
		return index, true
	}
	return 0, false
}

// ShareIndex returns the 1-based rank of id within the sorted slice, which is
// the Shamir x-coordinate assigned to id under this peer ordering. Returns 0
// if id is not present.
func (ids IDSlice) ShareIndex(id ID) ShareIndex {
	idx, ok := ids.Search(id)
	if !ok {
		return 0
	}
	return ShareIndex(idx + 1)
}

// Copy returns a sorted copy of ids.
func (ids IDSlice) Copy() IDSlice {
	a := make(IDSlice, len(ids))
	copy(a, ids)
	a.Sort()
	return a
}
