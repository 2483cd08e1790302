package corvus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsembleEngine_IndexBatchKeepsMembersInLockstep(t *testing.T) {
	e := NewEnsembleEngine(DefaultEngineConfig(), true)
	n, err := e.IndexBatch([]Document{{ID: "a", Text: "hello"}, {ID: "b", Text: "world"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, e.Commit())
	assert.Equal(t, uint64(2), e.bmw.DocCount())
	assert.Equal(t, uint64(2), e.comp.DocCount())
}

func TestEnsembleEngine_SearchMergesAndDedupsByID(t *testing.T) {
	e := NewEnsembleEngine(DefaultEngineConfig(), true)
	_, err := e.IndexBatch([]Document{
		{ID: "match", Text: "alpha beta"},
		{ID: "nomatch", Text: "gamma delta"},
	})
	require.NoError(t, err)
	require.NoError(t, e.Commit())

	hits, err := e.Search("alpha", 10, 0)
	require.NoError(t, err)
	require.Len(t, hits.Hits, 1) // deduped even though both members matched "match"
	assert.Equal(t, "match", hits.Hits[0].ID)
}

func TestEnsembleEngine_DocCountMatchesBMWMember(t *testing.T) {
	e := NewEnsembleEngine(DefaultEngineConfig(), true)
	_, err := e.IndexBatch([]Document{{ID: "a", Text: "hello"}})
	require.NoError(t, err)
	require.NoError(t, e.Commit())
	assert.Equal(t, e.bmw.DocCount(), e.DocCount())
}

func TestEnsembleEngine_Name(t *testing.T) {
	e := NewEnsembleEngine(DefaultEngineConfig(), true)
	assert.Equal(t, ProfileEnsemble, e.Name())
}

func TestEnsembleEngine_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	e := NewEnsembleEngine(DefaultEngineConfig(), true)
	_, err := e.IndexBatch([]Document{{ID: "a", Text: "hello world"}})
	require.NoError(t, err)
	require.NoError(t, e.Commit())
	require.NoError(t, e.Save(dir))

	loaded := NewEnsembleEngine(DefaultEngineConfig(), true)
	require.NoError(t, loaded.Load(dir))
	assert.Equal(t, uint64(1), loaded.DocCount())

	hits, err := loaded.Search("hello", 10, 0)
	require.NoError(t, err)
	require.Len(t, hits.Hits, 1)
	assert.Equal(t, "a", hits.Hits[0].ID)
}

func TestEnsembleEngine_ClearResetsBothMembers(t *testing.T) {
	e := NewEnsembleEngine(DefaultEngineConfig(), true)
	_, err := e.IndexBatch([]Document{{ID: "a", Text: "hello"}})
	require.NoError(t, err)
	require.NoError(t, e.Commit())
	require.NoError(t, e.Clear())
	assert.Equal(t, uint64(0), e.DocCount())
}
