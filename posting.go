package corvus

// ═══════════════════════════════════════════════════════════════════════════
// POSTING STORE AND BLOCK-MAX LAYOUT
// ═══════════════════════════════════════════════════════════════════════════
// A PostingList is the append-order sequence of (doc_id, freq) entries for
// one term, grouped into fixed-size Blocks of up to BlockSize entries each.
// Every block carries a precomputed MaxScore: the greatest BM25 contribution
// any single entry in the block can make given the corpus statistics as of
// the last recomputation. Recomputation is deferred (spec.md §4.5): Append
// never touches MaxScore or IDF; RecomputeIDF sets IDF and RecomputeBlockMax
// sets MaxScore, and it is the engine's job to call them once per commit.
//
// Entries within one list hold monotonically non-decreasing doc ids because
// doc ids are assigned monotonically and batches append sequentially; that
// invariant is relied on by nothing in this file directly, but every caller
// that walks a PostingList's blocks in order depends on it.
// ═══════════════════════════════════════════════════════════════════════════

// Entry is one (doc_id, freq) pair. Frequency saturates at u16::MAX.
type Entry struct {
	DocID uint32
	Freq  uint16
}

// Block is an ordered run of up to BlockSize entries plus the precomputed
// max BM25 contribution any entry in it can make.
type Block struct {
	Entries  []Entry
	MaxScore float32
}

// PostingList is the per-term posting store: the append-order entries,
// block-max array, document frequency, and derived idf.
type PostingList struct {
	Entries []Entry
	Blocks  []Block // rebuilt by RecomputeBlockMax; stale between appends and the next recompute
	DF      uint32
	IDF     float64
}

// Append adds a single (doc_id, freq) entry. It is O(1) amortized and never
// touches Blocks: block-max recomputation is deferred to the next commit
// (spec.md §4.2, §4.5).
func (pl *PostingList) Append(docID uint32, freq uint16) {
	pl.Entries = append(pl.Entries, Entry{DocID: docID, Freq: freq})
	pl.DF = uint32(len(pl.Entries))
}

// RecomputeIDF refreshes IDF from the current (N, df). Must run before
// RecomputeBlockMax, which uses the new IDF to compute per-block maxima.
func (pl *PostingList) RecomputeIDF(n float64) {
	pl.IDF = IDF(n, float64(pl.DF))
}

// RecomputeBlockMax rebuilds the Blocks array from Entries under the given
// corpus statistics (avgDocLen) and BM25 params, using docLen to look up
// each entry's document length. The invariant this restores is spec.md
// §3's: block_maxes.len() == ceil(entries.len() / blockSize) and each
// block_maxes[i] equals the max BM25 contribution over block i.
func (pl *PostingList) RecomputeBlockMax(blockSize int, avgDocLen float64, params BM25Params, docLen func(uint32) uint16) {
	n := len(pl.Entries)
	numBlocks := (n + blockSize - 1) / blockSize
	blocks := make([]Block, numBlocks)

	for bi := 0; bi < numBlocks; bi++ {
		start := bi * blockSize
		end := start + blockSize
		if end > n {
			end = n
		}
		chunk := pl.Entries[start:end]
		var maxScore float64
		for _, e := range chunk {
			dl := float64(docLen(e.DocID))
			s := params.Score(pl.IDF, float64(e.Freq), dl, avgDocLen)
			if s > maxScore {
				maxScore = s
			}
		}
		blocks[bi] = Block{Entries: chunk, MaxScore: float32(maxScore)}
	}
	pl.Blocks = blocks
}

// ApplyCentroidScores overwrites each existing block's MaxScore with the
// *mean* BM25 contribution of its members rather than the maximum,
// converting an already-split block layout from an exact Block-Max WAND
// upper bound into the "seismic" profile's approximate centroid bound
// (derived_seismic.go). It does not re-split Entries into new blocks; call
// RecomputeBlockMax first to establish the block boundaries, then this to
// relabel their scores.
func (pl *PostingList) ApplyCentroidScores(avgDocLen float64, params BM25Params, docLen func(uint32) uint16) {
	for bi := range pl.Blocks {
		entries := pl.Blocks[bi].Entries
		if len(entries) == 0 {
			pl.Blocks[bi].MaxScore = 0
			continue
		}
		var sum float64
		for _, e := range entries {
			dl := float64(docLen(e.DocID))
			sum += params.Score(pl.IDF, float64(e.Freq), dl, avgDocLen)
		}
		pl.Blocks[bi].MaxScore = float32(sum / float64(len(entries)))
	}
}

// saturateFreq clamps an accumulated term frequency to the u16 range
// spec.md §3 requires.
func saturateFreq(f uint32) uint16 {
	if f > maxUint16 {
		return maxUint16
	}
	return uint16(f)
}

// Bytes estimates a posting list's resident memory for memory_stats().
func (pl *PostingList) Bytes() uint64 {
	// Entry{uint32,uint16} costs 8 bytes once aligned; Block adds a
	// float32 max-score per block plus its entries slice header, already
	// counted via Entries above since blocks slice the same backing
	// array.
	return uint64(len(pl.Entries))*8 + uint64(len(pl.Blocks))*4
}
