package corvus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurboEngine_ForcesSingleShard(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.Shards = 16
	e := NewTurboEngine(cfg, true)
	assert.Len(t, e.shards, 1)
}

func TestTurboEngine_SearchFindsMatchingDocument(t *testing.T) {
	e := NewTurboEngine(DefaultEngineConfig(), true)
	_, err := e.IndexBatch([]Document{{ID: "a", Text: "fast narrow engine"}})
	require.NoError(t, err)
	require.NoError(t, e.Commit())

	hits, err := e.Search("narrow", 10, 0)
	require.NoError(t, err)
	require.Len(t, hits.Hits, 1)
	assert.Equal(t, "a", hits.Hits[0].ID)
}

func TestTurboEngine_Name(t *testing.T) {
	e := NewTurboEngine(DefaultEngineConfig(), true)
	assert.Equal(t, ProfileTurbo, e.Name())
}

func TestTurboEngine_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	e := NewTurboEngine(DefaultEngineConfig(), true)
	_, err := e.IndexBatch([]Document{{ID: "a", Text: "hello world"}, {ID: "b", Text: "goodbye world"}})
	require.NoError(t, err)
	require.NoError(t, e.Commit())
	require.NoError(t, e.Save(dir))

	loaded := NewTurboEngine(DefaultEngineConfig(), true)
	require.NoError(t, loaded.Load(dir))
	assert.Equal(t, uint64(2), loaded.DocCount())

	hits, err := loaded.Search("hello", 10, 0)
	require.NoError(t, err)
	require.Len(t, hits.Hits, 1)
	assert.Equal(t, "a", hits.Hits[0].ID)
}
