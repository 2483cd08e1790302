package cabi

/*
#include <stdint.h>

typedef struct {
    char *id;
    float score;
    char *text;
} corvus_hit;

typedef struct {
    corvus_hit *hits;
    size_t count;
    size_t total;
    int64_t duration_ns;
    char *profile;
} corvus_search_result;

typedef struct {
    uint64_t index_bytes;
    uint64_t term_dict_bytes;
    uint64_t postings_bytes;
    uint64_t mmap_bytes;
    uint64_t docs_indexed;
} corvus_memory_stats;
*/
import "C"

import (
	"time"
	"unsafe"

	"github.com/corvusfts/corvus"
)

// ═══════════════════════════════════════════════════════════════════════════
// SEARCH AND INTROSPECTION
// ═══════════════════════════════════════════════════════════════════════════
// Mirrors ffi.rs's FtsHit/FtsSearchResult/FtsMemoryStats: plain C structs
// with no embedded Go pointers, built fresh on every call and owned by the
// caller until passed to the matching destructor.
// ═══════════════════════════════════════════════════════════════════════════

//export corvus_search
func corvus_search(handle C.int64_t, query *C.char, limit C.int32_t, offset C.int32_t) *C.corvus_search_result {
	e, ok := lookupEngine(handle)
	if !ok {
		setLastError(corvus.ErrInternal)
		return nil
	}

	start := time.Now()
	hits, err := e.Search(C.GoString(query), int(limit), int(offset))
	if err != nil {
		setLastError(err)
		return nil
	}
	elapsed := time.Since(start)

	result := (*C.corvus_search_result)(C.malloc(C.size_t(unsafe.Sizeof(C.corvus_search_result{}))))
	result.count = C.size_t(len(hits.Hits))
	result.total = C.size_t(hits.Total)
	result.duration_ns = C.int64_t(elapsed.Nanoseconds())
	result.profile = C.CString(e.Name())

	if len(hits.Hits) == 0 {
		result.hits = nil
		return result
	}

	cHits := C.malloc(C.size_t(len(hits.Hits)) * C.size_t(unsafe.Sizeof(C.corvus_hit{})))
	slice := unsafe.Slice((*C.corvus_hit)(cHits), len(hits.Hits))
	for i, h := range hits.Hits {
		slice[i].id = C.CString(h.ID)
		slice[i].score = C.float(h.Score)
		if h.Text != "" {
			slice[i].text = C.CString(h.Text)
		} else {
			slice[i].text = nil
		}
	}
	result.hits = (*C.corvus_hit)(cHits)
	return result
}

//export corvus_free_result
func corvus_free_result(result *C.corvus_search_result) {
	if result == nil {
		return
	}
	if result.hits != nil {
		slice := unsafe.Slice(result.hits, int(result.count))
		for i := range slice {
			if slice[i].id != nil {
				C.free(unsafe.Pointer(slice[i].id))
			}
			if slice[i].text != nil {
				C.free(unsafe.Pointer(slice[i].text))
			}
		}
		C.free(unsafe.Pointer(result.hits))
	}
	if result.profile != nil {
		C.free(unsafe.Pointer(result.profile))
	}
	C.free(unsafe.Pointer(result))
}

//export corvus_free_string
func corvus_free_string(s *C.char) {
	if s != nil {
		C.free(unsafe.Pointer(s))
	}
}

//export corvus_memory_stats
func corvus_memory_stats(handle C.int64_t) C.corvus_memory_stats {
	e, ok := lookupEngine(handle)
	if !ok {
		setLastError(corvus.ErrInternal)
		return C.corvus_memory_stats{}
	}
	m := e.MemoryStats()
	return C.corvus_memory_stats{
		index_bytes:     C.uint64_t(m.IndexBytes),
		term_dict_bytes: C.uint64_t(m.TermDictBytes),
		postings_bytes:  C.uint64_t(m.PostingsBytes),
		mmap_bytes:      C.uint64_t(m.MmapBytes),
		docs_indexed:    C.uint64_t(m.DocsIndexed),
	}
}
