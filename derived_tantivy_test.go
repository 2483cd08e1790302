package corvus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTantivyEngine_SearchDelegatesToCompressedEngine(t *testing.T) {
	e := NewTantivyEngine(DefaultEngineConfig(), true)
	_, err := e.IndexBatch([]Document{{ID: "a", Text: "running runners ran"}})
	require.NoError(t, err)
	require.NoError(t, e.Commit())

	hits, err := e.Search("running", 10, 0)
	require.NoError(t, err)
	require.Len(t, hits.Hits, 1)
}

func TestTantivyEngine_AnalyzeQueryStemsAndDropsStopwords(t *testing.T) {
	e := NewTantivyEngine(DefaultEngineConfig(), true)
	tokens := e.AnalyzeQuery("the runners are running")
	assert.NotContains(t, tokens, "the")
	assert.NotContains(t, tokens, "are")
	assert.Contains(t, tokens, "runner")
}

func TestTantivyEngine_AnalyzeQueryNotAppliedAutomaticallyToSearch(t *testing.T) {
	e := NewTantivyEngine(DefaultEngineConfig(), true)
	_, err := e.IndexBatch([]Document{{ID: "a", Text: "the quick"}})
	require.NoError(t, err)
	require.NoError(t, e.Commit())

	// "the" would be filtered out by AnalyzeQuery but Search's own tokenizer
	// does not run the analyzer, so a stopword still matches verbatim text.
	hits, err := e.Search("the", 10, 0)
	require.NoError(t, err)
	assert.Len(t, hits.Hits, 1)
}

func TestTantivyEngine_Name(t *testing.T) {
	e := NewTantivyEngine(DefaultEngineConfig(), true)
	assert.Equal(t, ProfileTantivy, e.Name())
}

func TestTantivyEngine_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	e := NewTantivyEngine(DefaultEngineConfig(), true)
	_, err := e.IndexBatch([]Document{{ID: "a", Text: "hello world"}})
	require.NoError(t, err)
	require.NoError(t, e.Commit())
	require.NoError(t, e.Save(dir))

	loaded := NewTantivyEngine(DefaultEngineConfig(), true)
	require.NoError(t, loaded.Load(dir))
	hits, err := loaded.Search("hello", 10, 0)
	require.NoError(t, err)
	require.Len(t, hits.Hits, 1)
	assert.Equal(t, "a", hits.Hits[0].ID)
}
