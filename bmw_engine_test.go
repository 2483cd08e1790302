package corvus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBMW(t *testing.T, docs []Document) *BMWEngine {
	t.Helper()
	e := NewBMWEngine(DefaultEngineConfig(), true)
	_, err := e.IndexBatch(docs)
	require.NoError(t, err)
	require.NoError(t, e.Commit())
	return e
}

func TestBMWEngine_SearchBeforeCommitReturnsNotReady(t *testing.T) {
	e := NewBMWEngine(DefaultEngineConfig(), true)
	_, err := e.Search("anything", 10, 0)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestBMWEngine_IndexBatchReturnsAcceptedCountAndDocCount(t *testing.T) {
	e := NewBMWEngine(DefaultEngineConfig(), true)
	n, err := e.IndexBatch([]Document{{ID: "a", Text: "alpha"}, {ID: "b", Text: "beta"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, e.Commit())
	assert.Equal(t, uint64(2), e.DocCount())
}

func TestBMWEngine_SearchFindsMatchingDocument(t *testing.T) {
	e := seedBMW(t, []Document{
		{ID: "doc1", Text: "the quick brown fox"},
		{ID: "doc2", Text: "lazy dog sleeps"},
	})
	hits, err := e.Search("fox", 10, 0)
	require.NoError(t, err)
	require.Len(t, hits.Hits, 1)
	assert.Equal(t, "doc1", hits.Hits[0].ID)
}

func TestBMWEngine_SearchRanksHigherTermFrequencyFirst(t *testing.T) {
	e := seedBMW(t, []Document{
		{ID: "low", Text: "cats are nice"},
		{ID: "high", Text: "cats cats cats cats"},
	})
	hits, err := e.Search("cats", 10, 0)
	require.NoError(t, err)
	require.Len(t, hits.Hits, 2)
	assert.Equal(t, "high", hits.Hits[0].ID)
}

func TestBMWEngine_SearchEmptyQueryYieldsNoHits(t *testing.T) {
	e := seedBMW(t, []Document{{ID: "a", Text: "hello world"}})
	hits, err := e.Search("", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, hits.Hits)
	assert.Equal(t, 0, hits.Total)
}

func TestBMWEngine_SearchLimitZeroYieldsNoHits(t *testing.T) {
	e := seedBMW(t, []Document{{ID: "a", Text: "hello world"}})
	hits, err := e.Search("hello", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, hits.Hits)
}

func TestBMWEngine_SearchOffsetBeyondResultsYieldsEmptyButKeepsTotal(t *testing.T) {
	e := seedBMW(t, []Document{{ID: "a", Text: "hello"}})
	hits, err := e.Search("hello", 10, 50)
	require.NoError(t, err)
	assert.Empty(t, hits.Hits)
	assert.Equal(t, 1, hits.Total)
}

func TestBMWEngine_SearchNegativeLimitOrOffsetIsInvalidQuery(t *testing.T) {
	e := seedBMW(t, []Document{{ID: "a", Text: "hello"}})
	_, err := e.Search("hello", -1, 0)
	assert.ErrorIs(t, err, ErrInvalidQuery)
	_, err = e.Search("hello", 10, -1)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestBMWEngine_ClearResetsDocCountAndDocIDNumbering(t *testing.T) {
	e := seedBMW(t, []Document{{ID: "a", Text: "hello"}, {ID: "b", Text: "world"}})
	require.NoError(t, e.Clear())
	assert.Equal(t, uint64(0), e.DocCount())

	_, err := e.IndexBatch([]Document{{ID: "fresh", Text: "hello"}})
	require.NoError(t, err)
	require.NoError(t, e.Commit())
	hits, err := e.Search("hello", 10, 0)
	require.NoError(t, err)
	require.Len(t, hits.Hits, 1)
	assert.Equal(t, "fresh", hits.Hits[0].ID)
}

func TestBMWEngine_CommitIsIdempotentWithoutIntervalIndexBatch(t *testing.T) {
	e := seedBMW(t, []Document{{ID: "a", Text: "hello"}})
	require.NoError(t, e.Commit())
	require.NoError(t, e.Commit())
	assert.Equal(t, uint64(1), e.DocCount())
}

func TestBMWEngine_NameReportsProfile(t *testing.T) {
	e := NewBMWEngine(DefaultEngineConfig(), true)
	assert.Equal(t, ProfileBmwSimd, e.Name())
}

func TestBMWEngine_BlockMaxPruningAcrossManyBlocks(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.BlockSize = 4
	e := NewBMWEngine(cfg, true)

	docs := make([]Document, 0, 50)
	for i := 0; i < 50; i++ {
		docs = append(docs, Document{ID: idFor(i), Text: "filler words only"})
	}
	docs = append(docs, Document{ID: "target", Text: "needle needle needle needle needle"})
	_, err := e.IndexBatch(docs)
	require.NoError(t, err)
	require.NoError(t, e.Commit())

	hits, err := e.Search("needle", 5, 0)
	require.NoError(t, err)
	require.Len(t, hits.Hits, 1)
	assert.Equal(t, "target", hits.Hits[0].ID)
}

func idFor(i int) string {
	return "doc" + string(rune('a'+i%26)) + string(rune('0'+i/26))
}
