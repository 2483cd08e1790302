package corvus

// ═══════════════════════════════════════════════════════════════════════════
// TOKENIZER
// ═══════════════════════════════════════════════════════════════════════════
// The core tokenizer is byte-level and ASCII-fast: a 256-entry lookup table
// maps every input byte straight to its normalized form (lowercase letters
// as themselves, digits as themselves, everything else to a zero sentinel),
// and a single left-to-right scan alternates between skipping sentinel runs
// and folding non-sentinel runs into an FNV-1a hash. No intermediate string
// is ever allocated for a token: the hash is built byte-by-byte inside the
// same loop that walks the run, and only the byte length is kept to apply
// the [min_len, max_len] filter.
//
// Unicode segmentation, stemming, and stop-word removal are handled, for
// profiles that want them, by the separate Analyzer in analyzer.go — they
// are not part of this hot path by design (spec.md §4.1's Non-goals).
// ═══════════════════════════════════════════════════════════════════════════

const (
	fnvOffsetBasis uint64 = 14695981039346656037
	fnvPrime       uint64 = 1099511628211
)

// byteClass[b] is 0 for bytes that terminate a token (anything that is not
// an ASCII letter or digit), or the normalized (lowercased) byte otherwise.
var byteClass = buildByteClass()

func buildByteClass() [256]byte {
	var t [256]byte
	for b := 0; b < 256; b++ {
		switch {
		case b >= 'a' && b <= 'z':
			t[b] = byte(b)
		case b >= 'A' && b <= 'Z':
			t[b] = byte(b) + ('a' - 'A')
		case b >= '0' && b <= '9':
			t[b] = byte(b)
		default:
			t[b] = 0
		}
	}
	return t
}

// Tokenizer implements the spec's byte-level ASCII-fast tokenizer. The zero
// value is not usable; construct one with NewTokenizer.
type Tokenizer struct {
	minLen int
	maxLen int
}

// DefaultMinTokenLen and DefaultMaxTokenLen are spec.md §4.1's defaults.
const (
	DefaultMinTokenLen = 2
	DefaultMaxTokenLen = 32
)

// NewTokenizer builds a Tokenizer with explicit length bounds.
func NewTokenizer(minLen, maxLen int) *Tokenizer {
	if minLen <= 0 {
		minLen = DefaultMinTokenLen
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxTokenLen
	}
	return &Tokenizer{minLen: minLen, maxLen: maxLen}
}

// NewDefaultTokenizer builds a Tokenizer with spec.md's default bounds.
func NewDefaultTokenizer() *Tokenizer {
	return NewTokenizer(DefaultMinTokenLen, DefaultMaxTokenLen)
}

// TokenizeFreq scans text and returns a multiset of token-hash -> frequency,
// plus the total number of tokens emitted (the document length used for
// BM25 length normalization). This is the ingest-path entry point.
func (t *Tokenizer) TokenizeFreq(text []byte) (freqs map[uint64]uint32, length uint32) {
	freqs = make(map[uint64]uint32)
	t.scan(text, func(h uint64) {
		freqs[h]++
		length++
	})
	return freqs, length
}

// TokenizeSet scans text and returns the distinct token hashes present. This
// is the query-path entry point: a query contributes each matched term once
// regardless of how many times it repeats in the query string.
func (t *Tokenizer) TokenizeSet(text []byte) map[uint64]struct{} {
	set := make(map[uint64]struct{})
	t.scan(text, func(h uint64) {
		set[h] = struct{}{}
	})
	return set
}

// TermFreq pairs a token's literal lowercased bytes with its frequency in a
// document, for profiles that need the term string itself rather than just
// its hash (the compressed profile's ordered term dictionary, spec.md §3).
type TermFreq struct {
	Term string
	Freq uint32
}

// TokenizeFreqWithTerms is TokenizeFreq's counterpart for profiles that
// preserve full lowercased term bytes alongside the hash. It costs one
// string allocation per distinct token (unlike TokenizeFreq's zero-alloc
// scan), which is why the sharded in-memory profile does not use it.
func (t *Tokenizer) TokenizeFreqWithTerms(text []byte) (freqs map[uint64]TermFreq, length uint32) {
	freqs = make(map[uint64]TermFreq)
	t.scanTerms(text, func(term string, h uint64) {
		e := freqs[h]
		e.Term = term
		e.Freq++
		freqs[h] = e
		length++
	})
	return freqs, length
}

// TokenizeTermSet is TokenizeSet's counterpart returning literal term
// strings, for query-time lookups against the ordered term dictionary.
func (t *Tokenizer) TokenizeTermSet(text []byte) map[string]uint64 {
	set := make(map[string]uint64)
	t.scanTerms(text, func(term string, h uint64) {
		set[term] = h
	})
	return set
}

// scanTerms is scan's twin, additionally materializing the lowercased token
// bytes as a string for each accepted run.
func (t *Tokenizer) scanTerms(text []byte, emit func(term string, hash uint64)) {
	i := 0
	n := len(text)
	for i < n {
		for i < n && byteClass[text[i]] == 0 {
			i++
		}
		if i >= n {
			return
		}
		start := i
		h := fnvOffsetBasis
		for i < n && byteClass[text[i]] != 0 {
			h ^= uint64(byteClass[text[i]])
			h *= fnvPrime
			i++
		}
		runLen := i - start
		if runLen >= t.minLen && runLen <= t.maxLen {
			buf := make([]byte, runLen)
			for j := 0; j < runLen; j++ {
				buf[j] = byteClass[text[start+j]]
			}
			emit(string(buf), h)
		}
	}
}

// scan performs the single left-to-right pass described at the top of this
// file, invoking emit once per accepted token hash.
func (t *Tokenizer) scan(text []byte, emit func(hash uint64)) {
	i := 0
	n := len(text)
	for i < n {
		// Skip a run of sentinel bytes.
		for i < n && byteClass[text[i]] == 0 {
			i++
		}
		if i >= n {
			return
		}

		// Fold a run of non-sentinel bytes into an FNV-1a hash while
		// counting its byte length, in the same pass.
		start := i
		h := fnvOffsetBasis
		for i < n && byteClass[text[i]] != 0 {
			h ^= uint64(byteClass[text[i]])
			h *= fnvPrime
			i++
		}
		runLen := i - start
		if runLen >= t.minLen && runLen <= t.maxLen {
			emit(h)
		}
	}
}

// HashTerm hashes a single already-lowercased term the same way the scanner
// does, for callers (the compressed profile's ordered dictionary) that need
// to go from a literal term string to its hash independently of a scan.
func HashTerm(term string) uint64 {
	h := fnvOffsetBasis
	for i := 0; i < len(term); i++ {
		h ^= uint64(term[i])
		h *= fnvPrime
	}
	return h
}
