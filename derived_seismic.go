package corvus

import (
	"fmt"
	"io"
)

// ═══════════════════════════════════════════════════════════════════════════
// SEISMIC PROFILE
// ═══════════════════════════════════════════════════════════════════════════
// Centroid-block learned retrieval, simplified: built atop
// compressed_engine.go's roaring-bitmap/block structures, but every block's
// precomputed score is its members' *mean* BM25 contribution (a centroid)
// rather than the maximum. Blocks are still visited in the same order and
// pruned the same way Search already does via the inherited
// CompressedEngine.Search, only the bound they are pruned against is now
// approximate: a block can be skipped even though one of its members would
// have scored above the heap's threshold, trading recall for the cheaper
// bound. This is what distinguishes seismic-style centroid retrieval from
// exact Block-Max WAND.
// ═══════════════════════════════════════════════════════════════════════════

// SeismicEngine is the centroid-block profile.
type SeismicEngine struct {
	*CompressedEngine
}

// NewSeismicEngine constructs an empty seismic engine.
func NewSeismicEngine(cfg EngineConfig, keepIDs bool) *SeismicEngine {
	return &SeismicEngine{CompressedEngine: NewCompressedEngine(cfg, keepIDs)}
}

// Commit runs the base compressed commit (block-max split, idf, dictionary
// rebuild) and then relabels every block's score as a centroid.
func (e *SeismicEngine) Commit() error {
	if err := e.CompressedEngine.Commit(); err != nil {
		return err
	}
	avgDL := e.docs.AvgLength()
	params := e.bm25()
	docLen := func(d uint32) uint16 { return e.docs.DocLength(d) }
	for _, s := range e.shards {
		s.mu.Lock()
		for _, ct := range s.terms {
			ct.pl.ApplyCentroidScores(avgDL, params, docLen)
		}
		s.mu.Unlock()
	}
	return nil
}

// Name reports this engine's profile name.
func (e *SeismicEngine) Name() string { return ProfileSeismic }

// Save writes the engine's state using the seismic magic.
func (e *SeismicEngine) Save(dir string) error {
	return atomicWriteFile(dir, func(wr io.Writer) error {
		return e.saveBody(wr, magicSeismic)
	})
}

// Load replaces the engine's state from dir, expecting the seismic magic,
// then re-derives centroid scores via this profile's own Commit override.
func (e *SeismicEngine) Load(dir string) error {
	if err := e.CompressedEngine.loadBodyAs(dir, magicSeismic, NewCompressedEngine); err != nil {
		return err
	}
	if e.docs.Len() == 0 {
		e.committed.Store(true)
		return nil
	}
	if err := e.Commit(); err != nil {
		return fmt.Errorf("recomputing centroid blocks: %w", err)
	}
	return nil
}
