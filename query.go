package corvus

import "fmt"

// Document is the ingest-time input: an external identifier unique within
// an index and the UTF-8 text payload. spec.md §3 notes that URL/metadata
// may be carried opaquely by a host; this core does not model them since
// nothing here ever consults them.
type Document struct {
	ID   string
	Text string
}

// Hit is one ranked search result (spec.md §6's hit record).
type Hit struct {
	ID    string
	Score float32
	Text  string // empty unless the profile stores original text (none do by default)
}

// SearchHits is the result of a Search call: the page of hits plus the
// candidate count actually scored into the heap (spec.md §9's resolution
// of the "total" open question).
type SearchHits struct {
	Hits  []Hit
	Total int
}

// MemoryStats reports the engine's approximate resident memory breakdown
// (spec.md §6).
type MemoryStats struct {
	IndexBytes    uint64
	TermDictBytes uint64
	PostingsBytes uint64
	MmapBytes     uint64
	DocsIndexed   uint64
}

// tokenizeQuery tokenizes a query string into its distinct token hashes. Its
// error result is always nil (spec.md §8's empty-query boundary: an empty
// query is not an error, and a *non-empty* query that tokenizes to nothing
// is also treated as empty by callers checking len(hashes)==0 rather than
// query=="").
func tokenizeQuery(tok *Tokenizer, query string) (map[uint64]struct{}, error) {
	hashes := tok.TokenizeSet([]byte(query))
	return hashes, nil
}

// requireNonEmptyQuery is tokenizeQuery's strict counterpart, for profiles
// whose contract is to reject a query with no indexable tokens outright
// rather than silently return no hits.
// bmw_simd and roaring_bm25 do not call this (empty query -> empty results,
// no error, per spec.md §8); it exists for profiles layering a richer
// parser later (tantivy's delegate included) that may want to surface
// InvalidQuery for genuinely malformed syntax.
func requireNonEmptyQuery(tok *Tokenizer, query string) (map[uint64]struct{}, error) {
	hashes := tok.TokenizeSet([]byte(query))
	if len(hashes) == 0 {
		return nil, fmt.Errorf("%w: query %q has no indexable tokens", ErrInvalidQuery, query)
	}
	return hashes, nil
}
