package corvus

import (
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ═══════════════════════════════════════════════════════════════════════════
// SHARDED IN-MEMORY BMW ENGINE ("bmw_simd")
// ═══════════════════════════════════════════════════════════════════════════
// The high-throughput profile: spec.md §4.3. Ingest partitions the term
// space across S shards so contention during index_batch is per-shard
// rather than global; block-max recomputation is deferred to commit
// (spec.md §4.5) and parallelized across shards there too.
// ═══════════════════════════════════════════════════════════════════════════

type bmwRecord struct {
	docID uint32
	freqs map[uint64]uint32
}

// BMWEngine is the sharded in-memory engine.
type BMWEngine struct {
	cfg    EngineConfig
	tok    *Tokenizer
	shards []*Shard
	docs   *DocumentTable

	dirty     atomic.Bool
	committed atomic.Bool

	log *slog.Logger
}

// NewBMWEngine constructs an empty sharded engine. keepIDs controls whether
// external document ids are retained verbatim.
func NewBMWEngine(cfg EngineConfig, keepIDs bool) *BMWEngine {
	cfg = cfg.Normalize()
	shards := make([]*Shard, cfg.Shards)
	for i := range shards {
		shards[i] = NewShard(64)
	}
	return &BMWEngine{
		cfg:    cfg,
		tok:    NewTokenizer(cfg.MinTokenLen, cfg.MaxTokenLen),
		shards: shards,
		docs:   NewDocumentTable(keepIDs),
		log:    slog.Default().With("profile", "bmw_simd"),
	}
}

func (e *BMWEngine) bm25() BM25Params { return BM25Params{K1: e.cfg.K1, B: e.cfg.B} }

// IndexBatch implements spec.md §4.3's ingest protocol: Phase T (parallel
// tokenize), Phase L (serialized length/id bookkeeping), Phase S (parallel
// shard fan-out), Phase F (mark dirty).
func (e *BMWEngine) IndexBatch(docs []Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	e.docs.Reserve(len(docs))

	// Phase T: tokenize every document in parallel. Each goroutine only
	// writes to its own slot in records/lengths, so no lock is needed
	// here.
	records := make([]bmwRecord, len(docs))
	lengths := make([]uint32, len(docs))
	ids := make([]string, len(docs))

	var g errgroup.Group
	for i, d := range docs {
		i, d := i, d
		g.Go(func() error {
			freqs, length := e.tok.TokenizeFreq([]byte(d.Text))
			records[i] = bmwRecord{freqs: freqs}
			lengths[i] = length
			ids[i] = d.ID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("%w: tokenizing batch: %v", ErrInternal, err)
	}

	// Phase L: serialized length/id bookkeeping. base is the doc id the
	// first document in this batch receives.
	base := e.docs.Append(lengths, ids)
	for i := range records {
		records[i].docID = base + uint32(i)
	}

	// Phase S: parallel shard fan-out. Each shard takes its write lock once,
	// walks every record and appends only the (hash, freq) pairs that
	// belong to it.
	numShards := len(e.shards)
	g = errgroup.Group{}
	for s := 0; s < numShards; s++ {
		s := s
		g.Go(func() error {
			shard := e.shards[s]
			shard.mu.Lock()
			defer shard.mu.Unlock()
			for _, rec := range records {
				for hash, freq := range rec.freqs {
					if ShardIndex(hash, numShards) != s {
						continue
					}
					pl, ok := shard.terms[hash]
					if !ok {
						pl = &PostingList{}
						shard.terms[hash] = pl
					}
					pl.Append(rec.docID, saturateFreq(freq))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("%w: fanning out batch to shards: %v", ErrInternal, err)
	}

	// Phase F: mark dirty. idf and block_maxes are intentionally not
	// updated here.
	e.dirty.Store(true)
	e.log.Info("indexed batch", "docs", len(docs), "base_doc_id", base)
	return len(docs), nil
}

// Commit recomputes idf and block-max for every posting list in parallel
// across shards, then clears the dirty flag. It is idempotent: committing
// again with no intervening IndexBatch is a no-op (spec.md §4.3).
func (e *BMWEngine) Commit() error {
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

// matchedList pairs a posting list with the shard-scoped upper bound used
// to order lists before scanning (spec.md §4.3 step: "sort posting lists by
// this upper bound in decreasing order").
type matchedList struct {
	pl    *PostingList
	bound float64
}

// Search implements spec.md §4.3's Block-Max WAND query path.
func (e *BMWEngine) Search(query string, limit, offset int) (SearchHits, error) {
	if !e.committed.Load() {
		return SearchHits{}, fmt.Errorf("%w: search called before first commit", ErrNotReady)
	}
	if limit < 0 || offset < 0 {
		return SearchHits{}, fmt.Errorf("%w: negative limit or offset", ErrInvalidQuery)
	}

	hashes, _ := tokenizeQuery(e.tok, query)
	if len(hashes) == 0 || limit == 0 {
		return SearchHits{Hits: []Hit{}, Total: 0}, nil
	}

	params := e.bm25()
	numShards := len(e.shards)

	// Hold every shard's read lock for the duration of the query.
	for _, s := range e.shards {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}

	matched := make([]matchedList, 0, len(hashes))
	for hash := range hashes {
		shard := e.shards[ShardIndex(hash, numShards)]
		pl := shard.terms[hash]
		if pl == nil || len(pl.Entries) == 0 {
			continue
		}
		matched = append(matched, matchedList{pl: pl, bound: params.ScoreUpperBound(pl.IDF)})
	}
	if len(matched) == 0 {
		return SearchHits{Hits: []Hit{}, Total: 0}, nil
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].bound > matched[j].bound })

	topK := NewTopK(limit + offset)
	scored := make(map[uint32]float64)
	avgDL := e.docs.AvgLength()

	for _, m := range matched {
		tau := topK.Threshold()
		full := topK.Full()
		for _, block := range m.pl.Blocks {
			if full && float64(block.MaxScore) < tau {
				continue // block-max pruning
			}
			for _, ent := range block.Entries {
				dl := float64(e.docs.DocLength(ent.DocID))
				s := params.Score(m.pl.IDF, float64(ent.Freq), dl, avgDL)
				scored[ent.DocID] += s
			}
		}
		// Rebuild the heap from the scored table after each list, so the
		// next list prunes against the k-th best accumulated score and each
		// document sits in the heap once. A block skipped in a later list
		// contributes nothing for that term, so with several query terms a
		// document in a skipped block keeps only its partial score.
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

// DocCount returns the number of documents indexed so far, including any
// not yet committed.
func (e *BMWEngine) DocCount() uint64 { return e.docs.Len() }

// Clear resets the engine to empty, per spec.md §3's "destroyed only by
// clear" lifecycle.
func (e *BMWEngine) Clear() error {
	for _, s := range e.shards {
		s.Clear()
	}
	e.docs.Clear()
	e.dirty.Store(false)
	e.committed.Store(false)
	return nil
}

// Close releases resources. The in-memory engine holds nothing beyond Go's
// GC-managed heap, so Close is a no-op kept for interface symmetry with
// profiles that do hold file handles.
func (e *BMWEngine) Close() error { return nil }

// Name reports this engine's profile name.
func (e *BMWEngine) Name() string { return ProfileBmwSimd }

// MemoryStats estimates the engine's resident memory.
func (e *BMWEngine) MemoryStats() MemoryStats {
	var postingsBytes, termDictBytes uint64
	for _, s := range e.shards {
		b := s.Bytes()
		t := uint64(s.TermCount()) * 8
		postingsBytes += b - t
		termDictBytes += t
	}
	return MemoryStats{
		IndexBytes:    termDictBytes + postingsBytes + e.docs.Bytes(),
		TermDictBytes: termDictBytes,
		PostingsBytes: postingsBytes,
		DocsIndexed:   e.docs.Len(),
	}
}
