package corvus

import "container/heap"

// ═══════════════════════════════════════════════════════════════════════════
// BOUNDED TOP-K HEAP
// ═══════════════════════════════════════════════════════════════════════════
// A size-k min-heap of (score, doc_id). Block-Max WAND uses its smallest
// score as the pruning threshold tau once it holds k entries (spec.md
// §4.3). Ties break by ascending doc_id, so the heap's own ordering and the
// caller-visible ranking (highest score first, ties ascending doc_id) agree
// without a second sort pass beyond the final Drain.
//
// BM25 scores from this package's Score function are always finite and
// non-negative, so NaN/-0.0 never actually reach totalOrder in practice; it
// exists anyway because the heap's ordering function must be total
// regardless (spec.md §9).
// ═══════════════════════════════════════════════════════════════════════════

// Candidate is one scored document.
type Candidate struct {
	DocID uint32
	Score float64
}

// totalOrder compares a and b, returning -1, 0 or 1 as a is less than,
// equal to or greater than b. NaN orders below every number, as negative
// infinity would, so it never corrupts heap invariants.
func totalOrder(a, b float64) int {
	an, bn := isWorseNaN(a), isWorseNaN(b)
	if an || bn {
		switch {
		case an && bn:
			return 0
		case an:
			return -1
		default:
			return 1
		}
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func isWorseNaN(f float64) bool { return f != f } // NaN is the only float that is not equal to itself

// topKHeap is a container/heap.Interface implementation ordered so that
// Pop() removes the *worst* (lowest-score, then highest-doc-id) candidate,
// i.e. a min-heap by score with ties broken so the largest doc id sorts as
// "worst" (ascending doc id wins ties in the final ranking).
type topKHeap []Candidate

func (h topKHeap) Len() int { return len(h) }
func (h topKHeap) Less(i, j int) bool {
	switch totalOrder(h[i].Score, h[j].Score) {
	case -1:
		return true
	case 1:
		return false
	default:
		return h[i].DocID > h[j].DocID
	}
}
func (h topKHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *topKHeap) Push(x interface{}) { *h = append(*h, x.(Candidate)) }
func (h *topKHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// TopK accumulates candidates and keeps only the k with the highest scores
// (ties broken by ascending doc id).
type TopK struct {
	k int
	h topKHeap
}

// NewTopK creates an accumulator bounded to k results. k == 0 always yields
// an empty result set (spec.md §8's boundary case for limit=0, reused here
// since offset/limit slicing happens after Drain).
func NewTopK(k int) *TopK {
	return &TopK{k: k, h: make(topKHeap, 0, k)}
}

// Threshold returns the heap's current worst (smallest) score once it holds
// k entries, or 0 otherwise — spec.md §4.3's tau, used by callers to decide
// whether a block can be skipped.
func (t *TopK) Threshold() float64 {
	if t.k == 0 || len(t.h) < t.k {
		return 0
	}
	return t.h[0].Score
}

// Full reports whether the heap already holds k entries.
func (t *TopK) Full() bool { return t.k > 0 && len(t.h) >= t.k }

// Offer inserts a candidate, evicting the current worst entry if the heap
// is already full and the new candidate beats it.
func (t *TopK) Offer(c Candidate) {
	if t.k == 0 {
		return
	}
	if len(t.h) < t.k {
		heap.Push(&t.h, c)
		return
	}
	if totalOrder(c.Score, t.h[0].Score) > 0 || (c.Score == t.h[0].Score && c.DocID < t.h[0].DocID) {
		t.h[0] = c
		heap.Fix(&t.h, 0)
	}
}

// Len returns the number of candidates currently held.
func (t *TopK) Len() int { return len(t.h) }

// Drain extracts every held candidate in highest-score-first order (ties
// ascending doc id) and resets the accumulator.
func (t *TopK) Drain() []Candidate {
	n := len(t.h)
	out := make([]Candidate, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = heap.Pop(&t.h).(Candidate)
	}
	return out
}
