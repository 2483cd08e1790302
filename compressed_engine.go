package corvus

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring"
	"golang.org/x/sync/errgroup"
)

// ═══════════════════════════════════════════════════════════════════════════
// COMPRESSED-POSTING ENGINE ("roaring_bm25" / "default")
// ═══════════════════════════════════════════════════════════════════════════
// Adds to bmw_engine.go's sharded model (spec.md §4.4): a roaring.Bitmap per
// term as the authoritative membership structure, and a global ordered term
// dictionary over the full lowercased term bytes. Postings for an existing
// term are merged on append: bitmap union, block list extension, df bump.
// Smaller footprint than bmw_simd at the cost of one extra allocation
// (the term string) per distinct token during ingest.
// ═══════════════════════════════════════════════════════════════════════════

// compressedTerm bundles a term's authoritative bitmap with its block-max
// posting list (spec.md §4.4: "bitmaps are the authoritative membership
// structure; blocks carry frequencies and block-max scores for ranked
// scoring").
type compressedTerm struct {
	term   string
	bitmap *roaring.Bitmap
	pl     *PostingList
}

// compressedShard is shard.go's Shard augmented with a bitmap per term.
type compressedShard struct {
	mu    sync.RWMutex
	terms map[uint64]*compressedTerm
}

func newCompressedShard() *compressedShard {
	return &compressedShard{terms: make(map[uint64]*compressedTerm, 64)}
}

// Append merges (docID, freq) into term's entry, unioning into the bitmap
// and appending to the block-max posting list (spec.md §4.4's merge rule).
func (s *compressedShard) Append(term string, hash uint64, docID uint32, freq uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ct, ok := s.terms[hash]
	if !ok {
		ct = &compressedTerm{term: term, bitmap: roaring.New(), pl: &PostingList{}}
		s.terms[hash] = ct
	}
	ct.bitmap.Add(docID)
	ct.pl.Append(docID, saturateFreq(freq))
}

func (s *compressedShard) Lookup(hash uint64) *compressedTerm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terms[hash]
}

func (s *compressedShard) Recompute(n, avgDocLen float64, blockSize int, params BM25Params, docLen func(uint32) uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ct := range s.terms {
		ct.pl.RecomputeIDF(n)
		ct.pl.RecomputeBlockMax(blockSize, avgDocLen, params, docLen)
	}
}

func (s *compressedShard) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terms = make(map[uint64]*compressedTerm, len(s.terms))
}

func (s *compressedShard) Bytes() (postings, bitmaps uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ct := range s.terms {
		postings += 8 + ct.pl.Bytes()
		bitmaps += ct.bitmap.GetSizeInBytes()
	}
	return postings, bitmaps
}

// CompressedEngine is the roaring-bitmap-backed, ordered-term-dictionary
// profile.
type CompressedEngine struct {
	cfg    EngineConfig
	tok    *Tokenizer
	shards []*compressedShard
	docs   *DocumentTable
	dict   *termDict

	dirty     atomic.Bool
	committed atomic.Bool

	log *slog.Logger
}

// NewCompressedEngine constructs an empty compressed-posting engine.
func NewCompressedEngine(cfg EngineConfig, keepIDs bool) *CompressedEngine {
	cfg = cfg.Normalize()
	shards := make([]*compressedShard, cfg.Shards)
	for i := range shards {
		shards[i] = newCompressedShard()
	}
	return &CompressedEngine{
		cfg:    cfg,
		tok:    NewTokenizer(cfg.MinTokenLen, cfg.MaxTokenLen),
		shards: shards,
		docs:   NewDocumentTable(keepIDs),
		dict:   newTermDict(),
		log:    slog.Default().With("profile", "roaring_bm25"),
	}
}

func (e *CompressedEngine) bm25() BM25Params { return BM25Params{K1: e.cfg.K1, B: e.cfg.B} }

type compressedRecord struct {
	docID uint32
	freqs map[uint64]TermFreq
}

// IndexBatch mirrors bmw_engine.go's Phase T/L/S/F protocol, additionally
// staging every term of the batch into the ordered term dictionary after
// Phase S.
func (e *CompressedEngine) IndexBatch(docs []Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	e.docs.Reserve(len(docs))

	records := make([]compressedRecord, len(docs))
	lengths := make([]uint32, len(docs))
	ids := make([]string, len(docs))

	var g errgroup.Group
	for i, d := range docs {
		i, d := i, d
		g.Go(func() error {
			freqs, length := e.tok.TokenizeFreqWithTerms([]byte(d.Text))
			records[i] = compressedRecord{freqs: freqs}
			lengths[i] = length
			ids[i] = d.ID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("%w: tokenizing batch: %v", ErrInternal, err)
	}

	base := e.docs.Append(lengths, ids)
	for i := range records {
		records[i].docID = base + uint32(i)
	}

	numShards := len(e.shards)
	g = errgroup.Group{}
	for s := 0; s < numShards; s++ {
		s := s
		g.Go(func() error {
			shard := e.shards[s]
			shard.mu.Lock()
			defer shard.mu.Unlock()
			for _, rec := range records {
				for hash, tf := range rec.freqs {
					if ShardIndex(hash, numShards) != s {
						continue
					}
					ct, ok := shard.terms[hash]
					if !ok {
						ct = &compressedTerm{term: tf.Term, bitmap: roaring.New(), pl: &PostingList{}}
						shard.terms[hash] = ct
					}
					ct.bitmap.Add(rec.docID)
					ct.pl.Append(rec.docID, saturateFreq(tf.Freq))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("%w: fanning out batch to shards: %v", ErrInternal, err)
	}

	// Stage the batch's terms into the ordered dictionary. Re-insertion of an
	// already-staged term is harmless (Insert just overwrites it with the
	// same value, 0), so this needs no shard-aware deduplication.
	for _, rec := range records {
		for _, tf := range rec.freqs {
			e.dict.Insert(tf.Term, 0)
		}
	}

	e.dirty.Store(true)
	e.log.Info("indexed batch", "docs", len(docs), "base_doc_id", base)
	return len(docs), nil
}

// Commit recomputes block-max/idf per shard in parallel and rebuilds the
// ordered term dictionary (spec.md §4.4, §4.5).
func (e *CompressedEngine) Commit() error {
	e.dict.Rebuild()

	if !e.dirty.Load() {
		e.committed.Store(true)
		return nil
	}

	n := float64(e.docs.Len())
	avgDL := e.docs.AvgLength()
	params := e.bm25()
	docLen := func(d uint32) uint16 { return e.docs.DocLength(d) }

	var g errgroup.Group
	for _, s := range e.shards {
		s := s
		g.Go(func() error {
			s.Recompute(n, avgDL, e.cfg.BlockSize, params, docLen)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: recomputing block-max: %v", ErrInternal, err)
	}

	e.dirty.Store(false)
	e.committed.Store(true)
	e.log.Info("committed", "doc_count", e.docs.Len())
	return nil
}

// Search runs Block-Max WAND over the committed postings, looking each
// query term up through the ordered dictionary rather than hashing
// directly, per spec.md §4.4 ("the posting lookup goes through the ordered
// map").
func (e *CompressedEngine) Search(query string, limit, offset int) (SearchHits, error) {
	if !e.committed.Load() {
		return SearchHits{}, fmt.Errorf("%w: search called before first commit", ErrNotReady)
	}
	if limit < 0 || offset < 0 {
		return SearchHits{}, fmt.Errorf("%w: negative limit or offset", ErrInvalidQuery)
	}

	terms := e.tok.TokenizeTermSet([]byte(query))
	if len(terms) == 0 || limit == 0 {
		return SearchHits{Hits: []Hit{}, Total: 0}, nil
	}

	params := e.bm25()
	numShards := len(e.shards)

	// Hold every shard's read lock for the duration of the query.
	for _, s := range e.shards {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}

	type matched struct {
		ct    *compressedTerm
		bound float64
	}
	var lists []matched
	for term, hash := range terms {
		if _, ok := e.dict.Lookup(term); !ok {
			continue
		}
		shard := e.shards[ShardIndex(hash, numShards)]
		ct := shard.terms[hash]
		if ct == nil || len(ct.pl.Entries) == 0 {
			continue
		}
		lists = append(lists, matched{ct: ct, bound: params.ScoreUpperBound(ct.pl.IDF)})
	}
	if len(lists) == 0 {
		return SearchHits{Hits: []Hit{}, Total: 0}, nil
	}
	sort.Slice(lists, func(i, j int) bool { return lists[i].bound > lists[j].bound })

	topK := NewTopK(limit + offset)
	scored := make(map[uint32]float64)
	avgDL := e.docs.AvgLength()

	for _, m := range lists {
		pl := m.ct.pl
		for _, block := range pl.Blocks {
			if topK.Full() && float64(block.MaxScore) < topK.Threshold() {
				continue
			}
			for _, ent := range block.Entries {
				dl := float64(e.docs.DocLength(ent.DocID))
				s := params.Score(pl.IDF, float64(ent.Freq), dl, avgDL)
				scored[ent.DocID] += s
			}
		}
		// Rebuild the heap from the scored table after each list, so each
		// document sits in the heap once (see BMWEngine.Search).
		topK = NewTopK(limit + offset)
		for docID, s := range scored {
			topK.Offer(Candidate{DocID: docID, Score: s})
		}
	}

	candidates := topK.Drain()
	total := len(scored)

	if offset >= len(candidates) {
		return SearchHits{Hits: []Hit{}, Total: total}, nil
	}
	end := offset + limit
	if end > len(candidates) {
		end = len(candidates)
	}
	page := candidates[offset:end]

	hits := make([]Hit, len(page))
	for i, c := range page {
		hits[i] = Hit{ID: e.docs.ExternalID(c.DocID), Score: float32(c.Score)}
	}
	return SearchHits{Hits: hits, Total: total}, nil
}

// SearchAnd is the conjunctive variant spec.md §4.4 invites ("bitmaps may
// be used to cheaply compute the candidate set for conjunctive variants").
// It intersects every query term's bitmap to form the candidate set before
// scoring, unlike Search's disjunctive default. Adapted from the teacher's
// QueryBuilder, whose fluent Term/And/Execute pipeline built exactly this
// intersection over doc-bitmaps for boolean retrieval.
func (e *CompressedEngine) SearchAnd(query string, limit, offset int) (SearchHits, error) {
	if !e.committed.Load() {
		return SearchHits{}, fmt.Errorf("%w: search called before first commit", ErrNotReady)
	}
	if limit < 0 || offset < 0 {
		return SearchHits{}, fmt.Errorf("%w: negative limit or offset", ErrInvalidQuery)
	}

	terms := e.tok.TokenizeTermSet([]byte(query))
	if len(terms) == 0 || limit == 0 {
		return SearchHits{Hits: []Hit{}, Total: 0}, nil
	}

	numShards := len(e.shards)

	// Hold every shard's read lock for the duration of the query.
	for _, s := range e.shards {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}

	var candidate *roaring.Bitmap
	type bound struct {
		ct *compressedTerm
	}
	var lists []bound
	for _, hash := range terms {
		shard := e.shards[ShardIndex(hash, numShards)]
		ct := shard.terms[hash]
		if ct == nil {
			return SearchHits{Hits: []Hit{}, Total: 0}, nil // a missing term empties the AND
		}
		lists = append(lists, bound{ct: ct})
		if candidate == nil {
			candidate = ct.bitmap.Clone()
		} else {
			candidate.And(ct.bitmap)
		}
	}
	if candidate == nil || candidate.IsEmpty() {
		return SearchHits{Hits: []Hit{}, Total: 0}, nil
	}

	params := e.bm25()
	avgDL := e.docs.AvgLength()
	scored := make(map[uint32]float64, candidate.GetCardinality())
	it := candidate.Iterator()
	for it.HasNext() {
		docID := it.Next()
		dl := float64(e.docs.DocLength(docID))
		var total float64
		for _, l := range lists {
			freq := findFreq(l.ct.pl, docID)
			if freq == 0 {
				continue
			}
			total += params.Score(l.ct.pl.IDF, float64(freq), dl, avgDL)
		}
		scored[docID] = total
	}

	topK := NewTopK(limit + offset)
	for docID, s := range scored {
		topK.Offer(Candidate{DocID: docID, Score: s})
	}
	candidates := topK.Drain()
	total := len(scored)

	if offset >= len(candidates) {
		return SearchHits{Hits: []Hit{}, Total: total}, nil
	}
	end := offset + limit
	if end > len(candidates) {
		end = len(candidates)
	}
	page := candidates[offset:end]
	hits := make([]Hit, len(page))
	for i, c := range page {
		hits[i] = Hit{ID: e.docs.ExternalID(c.DocID), Score: float32(c.Score)}
	}
	return SearchHits{Hits: hits, Total: total}, nil
}

// findFreq linear-scans a posting list for docID's frequency. SearchAnd's
// candidate set is already intersected down to a small cardinality before
// this runs, so a linear scan per list is cheaper than building an index
// for a one-shot lookup.
func findFreq(pl *PostingList, docID uint32) uint16 {
	for _, e := range pl.Entries {
		if e.DocID == docID {
			return e.Freq
		}
	}
	return 0
}

// DocCount returns the number of documents indexed so far, including any
// not yet committed.
func (e *CompressedEngine) DocCount() uint64 { return e.docs.Len() }

// Clear resets the engine to empty.
func (e *CompressedEngine) Clear() error {
	for _, s := range e.shards {
		s.Clear()
	}
	e.docs.Clear()
	e.dict.Clear()
	e.dirty.Store(false)
	e.committed.Store(false)
	return nil
}

// Close is a no-op: the in-memory engine holds nothing beyond heap memory.
func (e *CompressedEngine) Close() error { return nil }

// Name reports this engine's profile name.
func (e *CompressedEngine) Name() string { return ProfileRoaringBM25 }

// MemoryStats estimates resident memory, separating postings and bitmaps
// from the dictionary's own overhead.
func (e *CompressedEngine) MemoryStats() MemoryStats {
	var postingsBytes, bitmapBytes uint64
	for _, s := range e.shards {
		p, b := s.Bytes()
		postingsBytes += p
		bitmapBytes += b
	}
	termDictBytes := uint64(e.dict.Len()) * 16
	return MemoryStats{
		IndexBytes:    termDictBytes + postingsBytes + bitmapBytes + e.docs.Bytes(),
		TermDictBytes: termDictBytes,
		PostingsBytes: postingsBytes + bitmapBytes,
		DocsIndexed:   e.docs.Len(),
	}
}
