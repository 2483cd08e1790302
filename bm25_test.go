package corvus

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultBM25Params(t *testing.T) {
	p := DefaultBM25Params()
	assert.Equal(t, 1.2, p.K1)
	assert.Equal(t, 0.75, p.B)
}

func TestIDF_MonotonicWithRarity(t *testing.T) {
	n := 1000.0
	rareIDF := IDF(n, 1)
	commonIDF := IDF(n, 500)
	assert.Greater(t, rareIDF, commonIDF)
}

func TestIDF_NeverNegativeForSaneInputs(t *testing.T) {
	n := 100.0
	for _, df := range []float64{1, 10, 50, 99, 100} {
		assert.False(t, math.IsNaN(IDF(n, df)))
		assert.GreaterOrEqual(t, IDF(n, df), 0.0)
	}
}

func TestScore_HigherTFYieldsHigherScore(t *testing.T) {
	p := DefaultBM25Params()
	idf := 2.0
	low := p.Score(idf, 1, 10, 10)
	high := p.Score(idf, 5, 10, 10)
	assert.Greater(t, high, low)
}

func TestScore_LengthNormalizationPenalizesLongDocs(t *testing.T) {
	p := DefaultBM25Params()
	idf := 2.0
	short := p.Score(idf, 2, 10, 10)
	long := p.Score(idf, 2, 100, 10)
	assert.Greater(t, short, long)
}

func TestScoreUpperBound_DominatesAnyAchievableScore(t *testing.T) {
	p := DefaultBM25Params()
	idf := 3.0
	bound := p.ScoreUpperBound(idf)
	for _, tf := range []float64{1, 2, 5, 100, 1000} {
		for _, dl := range []float64{1, 10, 100, 1000} {
			s := p.Score(idf, tf, dl, 50)
			assert.LessOrEqual(t, s, bound+1e-9)
		}
	}
}
