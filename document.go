package corvus

import (
	"sync"
	"sync/atomic"
)

// ═══════════════════════════════════════════════════════════════════════════
// DOCUMENT TABLE
// ═══════════════════════════════════════════════════════════════════════════
// Global parallel arrays: doc_lengths[d] (saturated sum of per-term
// frequencies) and, when external ids must be preserved, doc_ids[d].
// doc_count and total_doc_length are atomics so readers never need the
// lengths lock just to check how big the corpus is (spec.md §5's locking
// discipline: one RWMutex for doc_lengths/doc_ids, atomic scalars for the
// two running totals).
// ═══════════════════════════════════════════════════════════════════════════

// maxUint16 is the saturation ceiling for both per-document length and
// per-posting term frequency (spec.md §3).
const maxUint16 = 1<<16 - 1

// DocumentTable holds the corpus-wide bookkeeping shared by every engine
// profile: per-document lengths, optional external ids, and the running
// totals BM25 needs (doc count, total length).
type DocumentTable struct {
	mu         sync.RWMutex
	docLengths []uint16
	docIDs     []string // nil entries mean "not stored"; len always mirrors docLengths when keepIDs is true
	keepIDs    bool

	docCount       atomic.Uint64
	totalDocLength atomic.Uint64
}

// NewDocumentTable creates an empty table. keepIDs controls whether external
// document identifiers are retained (some profiles synthesize doc_<id>
// instead, per spec.md §4.3).
func NewDocumentTable(keepIDs bool) *DocumentTable {
	return &DocumentTable{keepIDs: keepIDs}
}

// Reserve grows the backing slices' capacity ahead of an append-heavy batch,
// per spec.md §5's "pre-reserved to minimize reallocations" policy.
func (t *DocumentTable) Reserve(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cap(t.docLengths)-len(t.docLengths) < n {
		grown := make([]uint16, len(t.docLengths), len(t.docLengths)+n)
		copy(grown, t.docLengths)
		t.docLengths = grown
	}
	if t.keepIDs && cap(t.docIDs)-len(t.docIDs) < n {
		grown := make([]string, len(t.docIDs), len(t.docIDs)+n)
		copy(grown, t.docIDs)
		t.docIDs = grown
	}
}

// Append extends the table with a batch of (length, externalID) pairs in
// document order and returns the base doc id the batch starts at. This is
// spec.md §4.3's Phase L: a single atomic add each for doc_count and
// total_doc_length, then the length/id slices are extended under one write
// lock acquisition for the whole batch.
func (t *DocumentTable) Append(lengths []uint32, externalIDs []string) (base uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	base = uint32(len(t.docLengths))
	var sum uint64
	for _, l := range lengths {
		sat := l
		if sat > maxUint16 {
			sat = maxUint16
		}
		t.docLengths = append(t.docLengths, uint16(sat))
		sum += uint64(sat)
	}
	if t.keepIDs {
		t.docIDs = append(t.docIDs, externalIDs...)
	}

	t.docCount.Add(uint64(len(lengths)))
	t.totalDocLength.Add(sum)
	return base
}

// Len returns the number of documents appended so far.
func (t *DocumentTable) Len() uint64 { return t.docCount.Load() }

// TotalLength returns the sum of every appended document's length.
func (t *DocumentTable) TotalLength() uint64 { return t.totalDocLength.Load() }

// AvgLength returns TotalLength()/Len(), or 0 for an empty corpus.
func (t *DocumentTable) AvgLength() float64 {
	n := t.docCount.Load()
	if n == 0 {
		return 0
	}
	return float64(t.totalDocLength.Load()) / float64(n)
}

// DocLength returns doc_lengths[d].
func (t *DocumentTable) DocLength(d uint32) uint16 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(d) >= len(t.docLengths) {
		return 0
	}
	return t.docLengths[d]
}

// ExternalID returns the external id for d if ids are kept, or the
// synthesized doc_<id> form otherwise (spec.md §4.3's result id rule).
func (t *DocumentTable) ExternalID(d uint32) string {
	if t.keepIDs {
		t.mu.RLock()
		defer t.mu.RUnlock()
		if int(d) < len(t.docIDs) {
			return t.docIDs[d]
		}
	}
	return syntheticDocID(d)
}

// Clear resets the table to empty, for the profile-level clear() operation.
func (t *DocumentTable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.docLengths = t.docLengths[:0]
	t.docIDs = t.docIDs[:0]
	t.docCount.Store(0)
	t.totalDocLength.Store(0)
}

// Bytes estimates the table's resident memory for memory_stats().
func (t *DocumentTable) Bytes() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := uint64(len(t.docLengths)) * 2
	for _, id := range t.docIDs {
		n += uint64(len(id))
	}
	return n
}

func syntheticDocID(d uint32) string {
	return "doc_" + uitoa(uint64(d))
}

// uitoa is a tiny hand-rolled itoa that keeps synthesized ids
// allocation-light: when ids are not kept, a doc_<id> string is built for
// every hit returned.
func uitoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
