package corvus

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"
)

// ═══════════════════════════════════════════════════════════════════════════
// ENSEMBLE PROFILE
// ═══════════════════════════════════════════════════════════════════════════
// Runs both deep profiles — bmw_simd and roaring_bm25 — over the same
// ingested batches and merges their ranked hit lists by score, deduplicating
// by doc id. This is the literal reading of "ensemble": combine the two
// profiles this specification actually dives into, rather than picking one.
// ═══════════════════════════════════════════════════════════════════════════

// EnsembleEngine runs a bmw_simd and a roaring_bm25 engine in lockstep.
type EnsembleEngine struct {
	cfg     EngineConfig
	bmw     *BMWEngine
	comp    *CompressedEngine
	keepIDs bool
}

// NewEnsembleEngine constructs an empty ensemble engine.
func NewEnsembleEngine(cfg EngineConfig, keepIDs bool) *EnsembleEngine {
	cfg = cfg.Normalize()
	return &EnsembleEngine{
		cfg:     cfg,
		bmw:     NewBMWEngine(cfg, keepIDs),
		comp:    NewCompressedEngine(cfg, keepIDs),
		keepIDs: keepIDs,
	}
}

// IndexBatch ingests the batch into both member engines in parallel. Since
// both assign doc ids from the same pre-batch doc_count (they are fed
// identical input in identical order), their internal doc ids stay in
// lockstep without any explicit coordination.
func (e *EnsembleEngine) IndexBatch(docs []Document) (int, error) {
	var g errgroup.Group
	var nBmw, nComp int
	g.Go(func() (err error) {
		nBmw, err = e.bmw.IndexBatch(docs)
		return err
	})
	g.Go(func() (err error) {
		nComp, err = e.comp.IndexBatch(docs)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}
	if nBmw != nComp {
		return 0, fmt.Errorf("%w: ensemble members diverged on accepted count (%d vs %d)", ErrInternal, nBmw, nComp)
	}
	return nBmw, nil
}

// Commit commits both member engines in parallel.
func (e *EnsembleEngine) Commit() error {
	var g errgroup.Group
	g.Go(e.bmw.Commit)
	g.Go(e.comp.Commit)
	return g.Wait()
}

// Search queries both member engines and interleaves their ranked hits by
// score, deduplicating by doc id (the bmw_simd and roaring_bm25 copies of
// the same document always carry the same external id). Where both
// engines return the same document, the higher of the two scores wins.
func (e *EnsembleEngine) Search(query string, limit, offset int) (SearchHits, error) {
	if limit < 0 || offset < 0 {
		return SearchHits{}, fmt.Errorf("%w: negative limit or offset", ErrInvalidQuery)
	}
	// Each member is asked for enough of its own ranking to guarantee the
	// merged top (limit+offset) is correct even in the worst case where
	// one engine supplies none of the true top results.
	want := limit + offset
	var bmwHits, compHits SearchHits
	var g errgroup.Group
	g.Go(func() (err error) {
		bmwHits, err = e.bmw.Search(query, want, 0)
		return err
	})
	g.Go(func() (err error) {
		compHits, err = e.comp.Search(query, want, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return SearchHits{}, err
	}

	byID := make(map[string]float32, len(bmwHits.Hits)+len(compHits.Hits))
	for _, h := range bmwHits.Hits {
		byID[h.ID] = h.Score
	}
	for _, h := range compHits.Hits {
		if prev, ok := byID[h.ID]; !ok || h.Score > prev {
			byID[h.ID] = h.Score
		}
	}

	merged := make([]Hit, 0, len(byID))
	for id, score := range byID {
		merged = append(merged, Hit{ID: id, Score: score})
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].ID < merged[j].ID
	})

	total := bmwHits.Total
	if compHits.Total > total {
		total = compHits.Total
	}
	if offset >= len(merged) {
		return SearchHits{Hits: []Hit{}, Total: total}, nil
	}
	end := offset + limit
	if end > len(merged) {
		end = len(merged)
	}
	return SearchHits{Hits: merged[offset:end], Total: total}, nil
}

// DocCount returns the bmw_simd member's document count, including any not
// yet committed (both members are always kept in lockstep by IndexBatch).
func (e *EnsembleEngine) DocCount() uint64 { return e.bmw.DocCount() }

// Clear resets both member engines.
func (e *EnsembleEngine) Clear() error {
	if err := e.bmw.Clear(); err != nil {
		return err
	}
	return e.comp.Clear()
}

// Close releases both member engines.
func (e *EnsembleEngine) Close() error {
	if err := e.bmw.Close(); err != nil {
		return err
	}
	return e.comp.Close()
}

// Name reports this engine's profile name.
func (e *EnsembleEngine) Name() string { return ProfileEnsemble }

// MemoryStats sums both member engines' memory stats.
func (e *EnsembleEngine) MemoryStats() MemoryStats {
	a := e.bmw.MemoryStats()
	b := e.comp.MemoryStats()
	return MemoryStats{
		IndexBytes:    a.IndexBytes + b.IndexBytes,
		TermDictBytes: a.TermDictBytes + b.TermDictBytes,
		PostingsBytes: a.PostingsBytes + b.PostingsBytes,
		MmapBytes:     a.MmapBytes + b.MmapBytes,
		DocsIndexed:   e.DocCount(),
	}
}

// Save persists both member engines as sibling subdirectories under dir,
// preceded by the ensemble magic in a small manifest file.
func (e *EnsembleEngine) Save(dir string) error {
	if err := atomicWriteFile(dir, func(wr io.Writer) error {
		w := newCodecWriter(wr)
		w.writeMagic(magicEnsemble)
		return w.flush()
	}); err != nil {
		return err
	}
	if err := e.bmw.Save(filepath.Join(dir, "bmw")); err != nil {
		return err
	}
	return e.comp.Save(filepath.Join(dir, "compressed"))
}

// Load restores both member engines from dir's sibling subdirectories.
func (e *EnsembleEngine) Load(dir string) error {
	f, err := openIndexFile(dir)
	if err != nil {
		return err
	}
	r := newCodecReader(f)
	r.readMagic(magicEnsemble)
	closeErr := f.Close()
	if r.err != nil {
		return r.err
	}
	if closeErr != nil {
		return fmt.Errorf("%w: closing manifest: %v", ErrIO, closeErr)
	}

	if err := e.bmw.Load(filepath.Join(dir, "bmw")); err != nil {
		return err
	}
	return e.comp.Load(filepath.Join(dir, "compressed"))
}
