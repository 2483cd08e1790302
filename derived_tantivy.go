package corvus

import "io"

// ═══════════════════════════════════════════════════════════════════════════
// TANTIVY PROFILE
// ═══════════════════════════════════════════════════════════════════════════
// Wrapping of a third-party library: no vendored full-text engine ships in
// the retrieval pack to wrap for real, so this profile is a thin adapter
// delegating every operation to a roaring_bm25 instance. Structurally this
// is the same shape "wrap an external engine" always is — a stable facade
// in front of someone else's index — with our own compressed profile
// standing in for the external engine. It additionally offers the
// teacher's linguistic Analyzer (stemming, stop-word removal) as an
// opt-in normalization pass before delegating, since a real tantivy
// wrapper would plausibly want one and the hash-only sharded profile's
// tokenizer deliberately does not.
// ═══════════════════════════════════════════════════════════════════════════

// TantivyEngine delegates to an embedded roaring_bm25 engine.
type TantivyEngine struct {
	*CompressedEngine
	analyzer *Analyzer
}

// NewTantivyEngine constructs an empty tantivy-delegate engine. The
// delegate's own tokenizer is still used for indexing (spec.md's byte-level
// core contract); analyzer is available for hosts that want it, via
// AnalyzeQuery, but is not applied automatically so Search's contract
// matches every other profile's.
func NewTantivyEngine(cfg EngineConfig, keepIDs bool) *TantivyEngine {
	return &TantivyEngine{
		CompressedEngine: NewCompressedEngine(cfg, keepIDs),
		analyzer:         NewAnalyzer(DefaultAnalyzerConfig()),
	}
}

// Name reports this engine's profile name.
func (e *TantivyEngine) Name() string { return ProfileTantivy }

// AnalyzeQuery runs the linguistic analyzer (lowercase, stop-word removal,
// stemming) over a query string, for callers that want tantivy-flavored
// normalization before handing the result to Search as a synthetic query.
func (e *TantivyEngine) AnalyzeQuery(query string) []string {
	return e.analyzer.Analyze(query)
}

// Save writes the engine's state in the roaring_bm25 layout, under the
// tantivy magic.
func (e *TantivyEngine) Save(dir string) error {
	return atomicWriteFile(dir, func(wr io.Writer) error {
		return e.saveBody(wr, magicTantivy)
	})
}

// Load replaces the engine's state from dir, expecting the tantivy magic.
func (e *TantivyEngine) Load(dir string) error {
	if err := e.CompressedEngine.loadBodyAs(dir, magicTantivy, NewCompressedEngine); err != nil {
		return err
	}
	if e.docs.Len() == 0 {
		e.committed.Store(true)
		return nil
	}
	return e.Commit()
}
