package corvus

import "sync"

// ═══════════════════════════════════════════════════════════════════════════
// SHARD
// ═══════════════════════════════════════════════════════════════════════════
// A Shard owns a disjoint slice of the term-hash space: its own term
// dictionary (hash -> *PostingList) and its own RWMutex. bmw_engine.go picks
// a term's shard by the low bits of its hash, so routing never needs a lock
// of its own (spec.md §3, §5).
// ═══════════════════════════════════════════════════════════════════════════

// Shard holds one partition's posting lists behind a single RWMutex, per
// spec.md §5's locking discipline: one index_batch call acquires a shard's
// write lock at most once during fan-out; commit acquires each shard's
// write lock in parallel; search acquires read locks for the duration of
// one query, and many queries may hold them concurrently.
type Shard struct {
	mu    sync.RWMutex
	terms map[uint64]*PostingList
}

// NewShard creates an empty shard with capacity reserved for an expected
// term-dictionary size.
func NewShard(expectedTerms int) *Shard {
	return &Shard{terms: make(map[uint64]*PostingList, expectedTerms)}
}

// ShardIndex picks a term hash's shard using its low bits, as spec.md §3
// describes ("the low bits of the term hash"). numShards must be a power
// of two.
func ShardIndex(hash uint64, numShards int) int {
	return int(hash & uint64(numShards-1))
}

// Append appends (docID, freq) to the posting list for hash, creating the
// list on first sighting. It takes the shard's write lock exactly once.
func (s *Shard) Append(hash uint64, docID uint32, freq uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pl, ok := s.terms[hash]
	if !ok {
		pl = &PostingList{}
		s.terms[hash] = pl
	}
	pl.Append(docID, saturateFreq(freq))
}

// Lookup returns the posting list for hash under a read lock, or nil if the
// term was never sighted in this shard.
func (s *Shard) Lookup(hash uint64) *PostingList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terms[hash]
}

// Recompute refreshes IDF and block-max for every posting list in the
// shard under the corpus statistics (n, avgDocLen). Called once per commit,
// in parallel across shards (spec.md §4.3, §4.5).
func (s *Shard) Recompute(n float64, avgDocLen float64, blockSize int, params BM25Params, docLen func(uint32) uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pl := range s.terms {
		pl.RecomputeIDF(n)
		pl.RecomputeBlockMax(blockSize, avgDocLen, params, docLen)
	}
}

// Clear empties the shard's term dictionary.
func (s *Shard) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terms = make(map[uint64]*PostingList, len(s.terms))
}

// TermCount returns how many distinct terms this shard holds.
func (s *Shard) TermCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.terms)
}

// Bytes estimates the shard's resident memory for memory_stats().
func (s *Shard) Bytes() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n uint64
	for h, pl := range s.terms {
		_ = h
		n += 8 + pl.Bytes() // 8 bytes for the hash key itself
	}
	return n
}
