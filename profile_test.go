package corvus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalProfile_DefaultAliasesToRoaring(t *testing.T) {
	name, err := canonicalProfile("default")
	require.NoError(t, err)
	assert.Equal(t, ProfileRoaringBM25, name)

	name, err = canonicalProfile("")
	require.NoError(t, err)
	assert.Equal(t, ProfileRoaringBM25, name)
}

func TestCanonicalProfile_RejectsUnknownName(t *testing.T) {
	_, err := canonicalProfile("not_a_real_profile")
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestAllProfiles_ExcludesDefaultAlias(t *testing.T) {
	all := AllProfiles()
	assert.NotContains(t, all, ProfileDefault)
	assert.Len(t, all, 7)
}

func TestCreate_BuildsEveryKnownProfile(t *testing.T) {
	for _, name := range AllProfiles() {
		e, err := Create(name, DefaultEngineConfig(), true)
		require.NoError(t, err, "profile %s", name)
		assert.Equal(t, name, e.Name())
	}
}

func TestCreate_UnknownProfileIsError(t *testing.T) {
	_, err := Create("bogus", DefaultEngineConfig(), true)
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestOpen_EmptyDirectoryYieldsFreshBMWEngine(t *testing.T) {
	dir := t.TempDir()
	e, err := Open(dir, DefaultEngineConfig(), true)
	require.NoError(t, err)
	assert.Equal(t, ProfileBmwSimd, e.Name())
	assert.Equal(t, uint64(0), e.DocCount())

	hits, err := e.Search("anything", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, hits.Hits)
}

func TestOpen_RoundTripsEveryProfileViaMagicDetection(t *testing.T) {
	for _, name := range AllProfiles() {
		dir := t.TempDir()
		e, err := Create(name, DefaultEngineConfig(), true)
		require.NoError(t, err)
		_, err = e.IndexBatch([]Document{{ID: "doc1", Text: "hello searchable world"}})
		require.NoError(t, err)
		require.NoError(t, e.Commit())
		require.NoError(t, e.Save(dir))

		reopened, err := Open(dir, DefaultEngineConfig(), true)
		require.NoError(t, err, "profile %s", name)
		assert.Equal(t, name, reopened.Name())
		assert.Equal(t, uint64(1), reopened.DocCount())

		hits, err := reopened.Search("searchable", 10, 0)
		require.NoError(t, err, "profile %s", name)
		require.Len(t, hits.Hits, 1, "profile %s", name)
		assert.Equal(t, "doc1", hits.Hits[0].ID)
	}
}
