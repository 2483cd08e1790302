package corvus

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring"
)

// ═══════════════════════════════════════════════════════════════════════════
// ULTRA PROFILE
// ═══════════════════════════════════════════════════════════════════════════
// Bitmap-only: per-term roaring.Bitmap membership, no per-entry frequency
// and no block-max structure at all. Scoring approximates frequency as 1
// for every matching document (a boolean/coordination-level model layered
// on top of BM25's length-normalization term) — the smallest footprint of
// the seven profiles, trading ranking fidelity for it. Pruning is
// unnecessary: scoring a whole postings bitmap is already cheap, so there
// is nothing resembling Block-Max WAND's block-skip here.
// ═══════════════════════════════════════════════════════════════════════════

type ultraShard struct {
	mu    sync.RWMutex
	terms map[uint64]*roaring.Bitmap
	df    map[uint64]uint32
}

func newUltraShard() *ultraShard {
	return &ultraShard{terms: make(map[uint64]*roaring.Bitmap, 64), df: make(map[uint64]uint32, 64)}
}

func (s *ultraShard) Append(hash uint64, docID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bm, ok := s.terms[hash]
	if !ok {
		bm = roaring.New()
		s.terms[hash] = bm
	}
	if !bm.Contains(docID) {
		bm.Add(docID)
		s.df[hash]++
	}
}

func (s *ultraShard) Lookup(hash uint64) (*roaring.Bitmap, uint32) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terms[hash], s.df[hash]
}

func (s *ultraShard) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terms = make(map[uint64]*roaring.Bitmap, len(s.terms))
	s.df = make(map[uint64]uint32, len(s.df))
}

func (s *ultraShard) Bytes() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n uint64
	for _, bm := range s.terms {
		n += bm.GetSizeInBytes()
	}
	return n
}

// UltraEngine is the bitmap-only profile.
type UltraEngine struct {
	cfg    EngineConfig
	tok    *Tokenizer
	shards []*ultraShard
	docs   *DocumentTable

	committed atomic.Bool
	log       *slog.Logger
}

// NewUltraEngine constructs an empty ultra engine.
func NewUltraEngine(cfg EngineConfig, keepIDs bool) *UltraEngine {
	cfg = cfg.Normalize()
	shards := make([]*ultraShard, cfg.Shards)
	for i := range shards {
		shards[i] = newUltraShard()
	}
	return &UltraEngine{
		cfg:    cfg,
		tok:    NewTokenizer(cfg.MinTokenLen, cfg.MaxTokenLen),
		shards: shards,
		docs:   NewDocumentTable(keepIDs),
		log:    slog.Default().With("profile", "ultra"),
	}
}

func (e *UltraEngine) bm25() BM25Params { return BM25Params{K1: e.cfg.K1, B: e.cfg.B} }

// IndexBatch tokenizes each document and appends its distinct token hashes
// to the appropriate shard's bitmap (duplicates within one document only
// set membership once, matching the frequency-as-1 model).
func (e *UltraEngine) IndexBatch(docs []Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	e.docs.Reserve(len(docs))

	lengths := make([]uint32, len(docs))
	ids := make([]string, len(docs))
	sets := make([]map[uint64]struct{}, len(docs))
	for i, d := range docs {
		freqs, length := e.tok.TokenizeFreq([]byte(d.Text))
		set := make(map[uint64]struct{}, len(freqs))
		for h := range freqs {
			set[h] = struct{}{}
		}
		sets[i] = set
		lengths[i] = length
		ids[i] = d.ID
	}

	base := e.docs.Append(lengths, ids)
	numShards := len(e.shards)
	for i, set := range sets {
		docID := base + uint32(i)
		for hash := range set {
			e.shards[ShardIndex(hash, numShards)].Append(hash, docID)
		}
	}

	e.log.Info("indexed batch", "docs", len(docs), "base_doc_id", base)
	return len(docs), nil
}

// Commit has nothing to recompute: bitmaps are authoritative immediately
// and idf is derived at query time from each term's stored document
// frequency.
func (e *UltraEngine) Commit() error {
	e.committed.Store(true)
	return nil
}

// Search scores every matching document as if every query term occurred
// exactly once in it, per this profile's frequency-as-1 approximation.
func (e *UltraEngine) Search(query string, limit, offset int) (SearchHits, error) {
	if !e.committed.Load() {
		return SearchHits{}, fmt.Errorf("%w: search called before first commit", ErrNotReady)
	}
	if limit < 0 || offset < 0 {
		return SearchHits{}, fmt.Errorf("%w: negative limit or offset", ErrInvalidQuery)
	}

	hashes := e.tok.TokenizeSet([]byte(query))
	if len(hashes) == 0 || limit == 0 {
		return SearchHits{Hits: []Hit{}, Total: 0}, nil
	}

	params := e.bm25()
	n := float64(e.docs.Len())
	avgDL := e.docs.AvgLength()
	numShards := len(e.shards)

	scored := make(map[uint32]float64)
	for hash := range hashes {
		bm, df := e.shards[ShardIndex(hash, numShards)].Lookup(hash)
		if bm == nil || df == 0 {
			continue
		}
		idf := IDF(n, float64(df))
		it := bm.Iterator()
		for it.HasNext() {
			docID := it.Next()
			dl := float64(e.docs.DocLength(docID))
			scored[docID] += params.Score(idf, 1, dl, avgDL)
		}
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

// DocCount returns the number of documents indexed so far, including any
// not yet committed.
func (e *UltraEngine) DocCount() uint64 { return e.docs.Len() }

// Clear resets the engine to empty.
func (e *UltraEngine) Clear() error {
	for _, s := range e.shards {
		s.Clear()
	}
	e.docs.Clear()
	e.committed.Store(false)
	return nil
}

// Close is a no-op.
func (e *UltraEngine) Close() error { return nil }

// Name reports this engine's profile name.
func (e *UltraEngine) Name() string { return ProfileUltra }

// MemoryStats estimates resident memory. Ultra has no separate term-dict
// structure: the bitmap maps double as both.
func (e *UltraEngine) MemoryStats() MemoryStats {
	var bitmapBytes uint64
	for _, s := range e.shards {
		bitmapBytes += s.Bytes()
	}
	return MemoryStats{
		IndexBytes:    bitmapBytes + e.docs.Bytes(),
		PostingsBytes: bitmapBytes,
		DocsIndexed:   e.docs.Len(),
	}
}

// Save writes the engine's full state to dir/index.bin under the ultra
// magic: config, document table, then each shard's (hash, df, bitmap
// bytes) triples. No per-entry frequencies or block-max arrays exist to
// persist in this profile.
func (e *UltraEngine) Save(dir string) error {
	return atomicWriteFile(dir, func(wr io.Writer) error {
		w := newCodecWriter(wr)
		w.writeMagic(magicUltra)
		w.writeF64(e.cfg.K1)
		w.writeF64(e.cfg.B)
		w.writeU32(uint32(len(e.shards)))
		w.writeU32(uint32(e.cfg.MinTokenLen))
		w.writeU32(uint32(e.cfg.MaxTokenLen))

		e.docs.mu.RLock()
		keepIDs := e.docs.keepIDs
		lengths := e.docs.docLengths
		ids := e.docs.docIDs
		w.writeU16(boolU16(keepIDs))
		w.writeU64(uint64(len(lengths)))
		for _, l := range lengths {
			w.writeU16(l)
		}
		if keepIDs {
			for _, id := range ids {
				w.writeString(id)
			}
		}
		e.docs.mu.RUnlock()

		for _, s := range e.shards {
			s.mu.RLock()
			w.writeU32(uint32(len(s.terms)))
			for hash, bm := range s.terms {
				w.writeU64(hash)
				w.writeU32(s.df[hash])
				var buf bytes.Buffer
				if _, err := bm.WriteTo(&buf); err != nil {
					s.mu.RUnlock()
					return fmt.Errorf("%w: serializing bitmap: %v", ErrCorrupted, err)
				}
				w.writeBytes(buf.Bytes())
			}
			s.mu.RUnlock()
		}
		return w.flush()
	})
}

// Load replaces the engine's state with the snapshot at dir/index.bin.
func (e *UltraEngine) Load(dir string) error {
	f, err := openIndexFile(dir)
	if err != nil {
		return err
	}
	defer f.Close()

	r := newCodecReader(f)
	r.readMagic(magicUltra)
	k1 := r.readF64()
	b := r.readF64()
	numShards := r.readU32()
	minTok := r.readU32()
	maxTok := r.readU32()
	keepIDs := r.readU16() != 0
	docCount := r.readU64()

	lengths := make([]uint32, docCount)
	for i := range lengths {
		lengths[i] = uint32(r.readU16())
	}
	ids := make([]string, docCount)
	if keepIDs {
		for i := range ids {
			ids[i] = r.readString()
		}
	}
	if r.err != nil {
		return r.err
	}

	cfg := EngineConfig{K1: k1, B: b, Shards: int(numShards), MinTokenLen: int(minTok), MaxTokenLen: int(maxTok)}.Normalize()
	fresh := NewUltraEngine(cfg, keepIDs)
	fresh.docs.Append(lengths, ids)

	for s := 0; s < len(fresh.shards); s++ {
		termCount := r.readU32()
		if r.err != nil {
			return r.err
		}
		shard := fresh.shards[s]
		for t := uint32(0); t < termCount; t++ {
			hash := r.readU64()
			df := r.readU32()
			bitmapBytes := r.readBytes()
			if r.err != nil {
				return r.err
			}
			bm := roaring.New()
			if _, err := bm.ReadFrom(bytes.NewReader(bitmapBytes)); err != nil {
				return fmt.Errorf("%w: deserializing bitmap: %v", ErrCorrupted, err)
			}
			shard.terms[hash] = bm
			shard.df[hash] = df
		}
	}
	if r.err != nil {
		return r.err
	}

	e.cfg = fresh.cfg
	e.tok = fresh.tok
	e.shards = fresh.shards
	e.docs = fresh.docs
	e.committed.Store(true)
	return nil
}
