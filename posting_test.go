package corvus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostingList_AppendNeverTouchesBlocks(t *testing.T) {
	pl := &PostingList{}
	pl.Append(1, 3)
	pl.Append(2, 5)
	assert.Len(t, pl.Entries, 2)
	assert.Nil(t, pl.Blocks)
	assert.Equal(t, uint32(2), pl.DF)
}

func TestPostingList_RecomputeBlockMax_BlockCountMatchesCeilDiv(t *testing.T) {
	pl := &PostingList{}
	for i := uint32(0); i < 5; i++ {
		pl.Append(i, 1)
	}
	pl.RecomputeIDF(10)
	lengths := map[uint32]uint16{0: 5, 1: 5, 2: 5, 3: 5, 4: 5}
	pl.RecomputeBlockMax(2, 5, DefaultBM25Params(), func(d uint32) uint16 { return lengths[d] })
	require.Len(t, pl.Blocks, 3) // ceil(5/2) == 3
	assert.Len(t, pl.Blocks[0].Entries, 2)
	assert.Len(t, pl.Blocks[1].Entries, 2)
	assert.Len(t, pl.Blocks[2].Entries, 1)
}

func TestPostingList_RecomputeBlockMax_MaxScoreIsBlockMaximum(t *testing.T) {
	pl := &PostingList{}
	pl.Append(0, 1)
	pl.Append(1, 10)
	pl.RecomputeIDF(100)
	lengths := map[uint32]uint16{0: 10, 1: 10}
	params := DefaultBM25Params()
	pl.RecomputeBlockMax(2, 10, params, func(d uint32) uint16 { return lengths[d] })
	require.Len(t, pl.Blocks, 1)
	expectedMax := params.Score(pl.IDF, 10, 10, 10)
	assert.InDelta(t, expectedMax, float64(pl.Blocks[0].MaxScore), 1e-4)
}

func TestPostingList_ApplyCentroidScores_UsesMeanNotMax(t *testing.T) {
	pl := &PostingList{}
	pl.Append(0, 1)
	pl.Append(1, 10)
	pl.RecomputeIDF(100)
	lengths := map[uint32]uint16{0: 10, 1: 10}
	params := DefaultBM25Params()
	docLen := func(d uint32) uint16 { return lengths[d] }
	pl.RecomputeBlockMax(2, 10, params, docLen)

	maxBefore := pl.Blocks[0].MaxScore
	pl.ApplyCentroidScores(10, params, docLen)
	s0 := params.Score(pl.IDF, 1, 10, 10)
	s1 := params.Score(pl.IDF, 10, 10, 10)
	expectedMean := (s0 + s1) / 2
	assert.InDelta(t, expectedMean, float64(pl.Blocks[0].MaxScore), 1e-4)
	assert.Less(t, float64(pl.Blocks[0].MaxScore), float64(maxBefore))
}

func TestSaturateFreq_ClampsAtU16Max(t *testing.T) {
	assert.Equal(t, uint16(maxUint16), saturateFreq(1<<20))
	assert.Equal(t, uint16(5), saturateFreq(5))
}
