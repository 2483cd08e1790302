package corvus

import "sort"

// ═══════════════════════════════════════════════════════════════════════════
// ORDERED TERM DICTIONARY
// ═══════════════════════════════════════════════════════════════════════════
// The compressed-posting profile keeps the full lowercased term bytes (not
// just its hash) so it can offer ordered access over the term space: a
// finite-state-style ordered map keyed by term, valued by a posting-list
// index (spec.md §4.4). No finite-state transducer library ships anywhere
// in the retrieval pack, so this is built the way Zeeeepa-blaze's
// skiplist.go builds its own ordered structure — a node array kept sorted
// by key — re-keyed from (doc_id, position) pairs to plain term strings,
// and rebuilt lazily on a dirty flag exactly as spec.md §4.4 prescribes
// ("the map is rebuilt lazily when marked dirty, after any append") rather
// than kept continuously balanced.
// ═══════════════════════════════════════════════════════════════════════════

// termDictEntry is one resolved (term, posting-list-index) pair.
type termDictEntry struct {
	term string
	idx  int
}

// termDict is an ordered map from term to posting-list index. Inserts are
// O(1) into an unsorted staging area; Rebuild sorts once, amortizing the
// cost across every append between two commits, matching the teacher's own
// preference for batched over incremental maintenance.
type termDict struct {
	entries []termDictEntry // sorted by term once Rebuild has run
	staged  map[string]int  // pending inserts since the last Rebuild
	dirty   bool
}

// newTermDict creates an empty ordered dictionary.
func newTermDict() *termDict {
	return &termDict{staged: make(map[string]int)}
}

// Insert records term -> idx, marking the dictionary dirty. If term already
// exists (staged or committed), idx overwrites the previous mapping.
func (d *termDict) Insert(term string, idx int) {
	d.staged[term] = idx
	d.dirty = true
}

// Lookup returns the posting-list index for term and whether it was found.
// It checks the staging area first so a lookup immediately after Insert
// (before the next Rebuild) still sees it.
func (d *termDict) Lookup(term string) (int, bool) {
	if idx, ok := d.staged[term]; ok {
		return idx, true
	}
	lo, hi := 0, len(d.entries)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case d.entries[mid].term == term:
			return d.entries[mid].idx, true
		case d.entries[mid].term < term:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0, false
}

// Rebuild merges every staged insert into the sorted entries array and
// clears the dirty flag. Called once per commit (spec.md §4.4).
func (d *termDict) Rebuild() {
	if !d.dirty {
		return
	}
	merged := make(map[string]int, len(d.entries)+len(d.staged))
	for _, e := range d.entries {
		merged[e.term] = e.idx
	}
	for t, idx := range d.staged {
		merged[t] = idx
	}
	entries := make([]termDictEntry, 0, len(merged))
	for t, idx := range merged {
		entries = append(entries, termDictEntry{term: t, idx: idx})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].term < entries[j].term })
	d.entries = entries
	d.staged = make(map[string]int)
	d.dirty = false
}

// Len returns the number of distinct terms across both staged and committed
// entries.
func (d *termDict) Len() int {
	if len(d.staged) == 0 {
		return len(d.entries)
	}
	seen := make(map[string]struct{}, len(d.entries)+len(d.staged))
	for _, e := range d.entries {
		seen[e.term] = struct{}{}
	}
	for t := range d.staged {
		seen[t] = struct{}{}
	}
	return len(seen)
}

// Terms returns every term in ascending order. Callers needing a stable
// iteration order (e.g. persistence) must call Rebuild first.
func (d *termDict) Terms() []string {
	out := make([]string, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.term
	}
	return out
}

// Clear empties the dictionary.
func (d *termDict) Clear() {
	d.entries = nil
	d.staged = make(map[string]int)
	d.dirty = false
}
