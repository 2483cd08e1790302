package corvus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermDict_LookupSeesStagedInsertBeforeRebuild(t *testing.T) {
	d := newTermDict()
	d.Insert("hello", 3)
	idx, ok := d.Lookup("hello")
	require.True(t, ok)
	assert.Equal(t, 3, idx)
}

func TestTermDict_LookupMissingTerm(t *testing.T) {
	d := newTermDict()
	_, ok := d.Lookup("nope")
	assert.False(t, ok)
}

func TestTermDict_RebuildSortsAndClearsStaging(t *testing.T) {
	d := newTermDict()
	d.Insert("banana", 1)
	d.Insert("apple", 0)
	d.Insert("cherry", 2)
	d.Rebuild()

	assert.Equal(t, []string{"apple", "banana", "cherry"}, d.Terms())
	idx, ok := d.Lookup("banana")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestTermDict_InsertOverwritesExistingMapping(t *testing.T) {
	d := newTermDict()
	d.Insert("term", 0)
	d.Rebuild()
	d.Insert("term", 5)
	idx, ok := d.Lookup("term")
	require.True(t, ok)
	assert.Equal(t, 5, idx)
}

func TestTermDict_LenCountsAcrossStagedAndCommitted(t *testing.T) {
	d := newTermDict()
	d.Insert("a", 0)
	d.Insert("b", 1)
	d.Rebuild()
	d.Insert("c", 2)
	assert.Equal(t, 3, d.Len())
}

func TestTermDict_Clear(t *testing.T) {
	d := newTermDict()
	d.Insert("a", 0)
	d.Rebuild()
	d.Clear()
	assert.Equal(t, 0, d.Len())
	_, ok := d.Lookup("a")
	assert.False(t, ok)
}
