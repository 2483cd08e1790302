package corvus

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
)

// ═══════════════════════════════════════════════════════════════════════════
// LINGUISTIC ANALYZER
// ═══════════════════════════════════════════════════════════════════════════
// Unicode-aware tokenization, stop-word removal, and English stemming,
// adapted from Zeeeepa-blaze's analyzer.go. This sits beside, not inside,
// the core byte-level Tokenizer (tokenizer.go): the hot ingest/query path
// never pays for Unicode segmentation or stemming, but the tantivy-delegate
// profile offers this as an opt-in normalization pass, matching what a real
// tantivy integration would plausibly layer on top.
// ═══════════════════════════════════════════════════════════════════════════

// AnalyzerConfig controls which normalization stages Analyze applies.
type AnalyzerConfig struct {
	MinTokenLength  int
	EnableStemming  bool
	EnableStopwords bool
}

// DefaultAnalyzerConfig mirrors the teacher's own defaults: stop-word
// removal and stemming both on, minimum token length 2.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{MinTokenLength: 2, EnableStemming: true, EnableStopwords: true}
}

// Analyzer runs a configurable normalization pipeline over free text.
type Analyzer struct {
	cfg AnalyzerConfig
}

// NewAnalyzer builds an Analyzer from cfg.
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze runs the full pipeline: Unicode-aware tokenize, lowercase,
// optional stop-word removal, minimum-length filter, optional stemming.
func (a *Analyzer) Analyze(text string) []string {
	tokens := tokenizeUnicode(text)
	tokens = lowercaseFilter(tokens)
	if a.cfg.EnableStopwords {
		tokens = stopwordFilter(tokens)
	}
	tokens = lengthFilter(tokens, a.cfg.MinTokenLength)
	if a.cfg.EnableStemming {
		tokens = stemmerFilter(tokens)
	}
	return tokens
}

func tokenizeUnicode(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func lowercaseFilter(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = strings.ToLower(t)
	}
	return out
}

func lengthFilter(tokens []string, minLen int) []string {
	out := tokens[:0]
	for _, t := range tokens {
		if len(t) >= minLen {
			out = append(out, t)
		}
	}
	return out
}

func stemmerFilter(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = english.Stem(t, false)
	}
	return out
}

func stopwordFilter(tokens []string) []string {
	out := tokens[:0]
	for _, t := range tokens {
		if _, stop := englishStopwords[strings.ToLower(t)]; !stop {
			out = append(out, t)
		}
	}
	return out
}

// englishStopwords is the standard short English stop-word list, kept small
// and unexported: this analyzer is an optional convenience layered on top
// of the core tokenizer, not a linguistic-completeness exercise.
var englishStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "if": {}, "in": {}, "into": {}, "is": {},
	"it": {}, "no": {}, "not": {}, "of": {}, "on": {}, "or": {}, "such": {},
	"that": {}, "the": {}, "their": {}, "then": {}, "there": {}, "these": {},
	"they": {}, "this": {}, "to": {}, "was": {}, "will": {}, "with": {},
}
