package party

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDOrdering(t *testing.T) {
	a := IDFromUint64(1)
	b := IDFromUint64(2)
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.True(t, a.Equal(IDFromUint64(1)))
}

func TestIDSliceShareIndex(t *testing.T) {
	ids := IDSlice{IDFromUint64(30), IDFromUint64(10), IDFromUint64(20)}
	ids.Sort()
	require.True(t, ids.Sorted())

	assert.Equal(t, ShareIndex(1), ids.ShareIndex(IDFromUint64(10)))
	assert.Equal(t, ShareIndex(2), ids.ShareIndex(IDFromUint64(20)))
	assert.Equal(t, ShareIndex(3), ids.ShareIndex(IDFromUint64(30)))
	assert.Equal(t, ShareIndex(0), ids.ShareIndex(IDFromUint64(99)))
}

func TestSetMembership(t *testing.T) {
	ids := []ID{IDFromUint64(1), IDFromUint64(2), IDFromUint64(3)}
	set, err := NewSet(ids)
	require.NoError(t, err)
	assert.Equal(t, 3, set.N())
	assert.True(t, set.Contains(IDFromUint64(1), IDFromUint64(3)))
	assert.False(t, set.Contains(IDFromUint64(4)))

	smaller, err := NewSet([]ID{IDFromUint64(1), IDFromUint64(2)})
	require.NoError(t, err)
	assert.True(t, smaller.IsSubsetOf(set))
	assert.False(t, set.IsSubsetOf(smaller))

	removed := set.Remove(IDFromUint64(2))
	assert.True(t, removed.Equal(smallerMinusTwo(t)))
}

func smallerMinusTwo(t *testing.T) *Set {
	s, err := NewSet([]ID{IDFromUint64(1), IDFromUint64(3)})
	require.NoError(t, err)
	return s
}

func TestSetRejectsDuplicatesAndZero(t *testing.T) {
	_, err := NewSet([]ID{IDFromUint64(1), IDFromUint64(1)})
	assert.Error(t, err)

	_, err = NewSet([]ID{Zero})
	assert.Error(t, err)
}
