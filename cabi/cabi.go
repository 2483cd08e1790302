// Package cabi exposes corvus through a C-callable surface, mirroring
// _examples/original_source's ffi.rs — this specification's own prior
// incarnation, built for the same purpose: letting a non-Go host drive the
// engine without linking against Go directly.
package cabi

/*
#include <stdint.h>
#include <stddef.h>

typedef void (*corvus_progress_fn)(uint64_t indexed, uint64_t total, void *user_data);

// cgo cannot call a C function pointer directly from Go code; this shim
// gives index_batch's progress callback somewhere to go through.
static void corvus_invoke_progress(corvus_progress_fn fn, uint64_t indexed, uint64_t total, void *user_data) {
    if (fn) {
        fn(indexed, total, user_data);
    }
}
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/corvusfts/corvus"
)

// ═══════════════════════════════════════════════════════════════════════════
// HANDLE TABLE
// ═══════════════════════════════════════════════════════════════════════════
// cgo cannot pass a Go pointer containing other Go pointers across the
// boundary safely, so every corvus.Engine is kept on the Go side behind an
// opaque integer handle; C callers only ever hold the handle. This plays
// the same role ffi.rs's raw Box<dyn SearchProfile> pointer plays in Rust,
// adapted to Go's stricter cgo pointer-passing rules.
// ═══════════════════════════════════════════════════════════════════════════

var (
	handlesMu sync.Mutex
	handles   = make(map[C.int64_t]corvus.Engine)
	nextID    C.int64_t = 1
)

// lastErrorMu guards lastError, this package's equivalent of ffi.rs's
// Mutex<Option<String>> LAST_ERROR slot. A true thread-local would need
// platform-specific support this package does not pull in; a mutex-guarded
// slot is documented here as the deliberate simplification (see the
// project's design notes).
var (
	lastErrorMu sync.Mutex
	lastError   string
)

func setLastError(err error) {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	if err == nil {
		lastError = ""
		return
	}
	lastError = err.Error()
}

//export corvus_last_error
func corvus_last_error() *C.char {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	if lastError == "" {
		return nil
	}
	return C.CString(lastError)
}

func storeEngine(e corvus.Engine) C.int64_t {
	handlesMu.Lock()
	defer handlesMu.Unlock()
	id := nextID
	nextID++
	handles[id] = e
	return id
}

func lookupEngine(handle C.int64_t) (corvus.Engine, bool) {
	handlesMu.Lock()
	defer handlesMu.Unlock()
	e, ok := handles[handle]
	return e, ok
}

func dropEngine(handle C.int64_t) {
	handlesMu.Lock()
	defer handlesMu.Unlock()
	delete(handles, handle)
}

// ═══════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ═══════════════════════════════════════════════════════════════════════════

//export corvus_index_create
func corvus_index_create(dir *C.char, profile *C.char) C.int64_t {
	cfg := corvus.DefaultEngineConfig()
	e, err := corvus.Create(C.GoString(profile), cfg, true)
	if err != nil {
		setLastError(err)
		return 0
	}
	handle := storeEngine(e)
	if err := e.Save(C.GoString(dir)); err != nil {
		setLastError(err)
		dropEngine(handle)
		return 0
	}
	return handle
}

//export corvus_index_open
func corvus_index_open(dir *C.char) C.int64_t {
	e, err := corvus.Open(C.GoString(dir), corvus.DefaultEngineConfig(), true)
	if err != nil {
		setLastError(err)
		return 0
	}
	return storeEngine(e)
}

//export corvus_index_close
func corvus_index_close(handle C.int64_t) C.int32_t {
	e, ok := lookupEngine(handle)
	if !ok {
		setLastError(corvus.ErrInternal)
		return -1
	}
	if err := e.Close(); err != nil {
		setLastError(err)
		dropEngine(handle)
		return -1
	}
	dropEngine(handle)
	return 0
}

// ═══════════════════════════════════════════════════════════════════════════
// INGEST
// ═══════════════════════════════════════════════════════════════════════════
// The wire format for a batch is spec.md §6's length-prefixed record
// stream: u32 id_len | id_bytes | u32 text_len | text_bytes, little-endian,
// no alignment, repeated back to back.

//export corvus_index_batch
func corvus_index_batch(handle C.int64_t, data *C.uint8_t, length C.size_t, progress C.corvus_progress_fn, userData unsafe.Pointer) C.int32_t {
	e, ok := lookupEngine(handle)
	if !ok {
		setLastError(corvus.ErrInternal)
		return -1
	}

	buf := C.GoBytes(unsafe.Pointer(data), C.int(length))
	docs, err := decodeBatch(buf)
	if err != nil {
		setLastError(err)
		return -1
	}

	const progressEvery = 1000
	total := uint64(len(docs))
	accepted := 0
	for start := 0; start < len(docs); start += progressEvery {
		end := start + progressEvery
		if end > len(docs) {
			end = len(docs)
		}
		n, err := e.IndexBatch(docs[start:end])
		if err != nil {
			setLastError(err)
			return -1
		}
		accepted += n
		if progress != nil {
			C.corvus_invoke_progress(progress, C.uint64_t(accepted), C.uint64_t(total), userData)
		}
	}
	return C.int32_t(accepted)
}

//export corvus_commit
func corvus_commit(handle C.int64_t) C.int32_t {
	e, ok := lookupEngine(handle)
	if !ok {
		setLastError(corvus.ErrInternal)
		return -1
	}
	if err := e.Commit(); err != nil {
		setLastError(err)
		return -1
	}
	return 0
}

//export corvus_clear
func corvus_clear(handle C.int64_t) C.int32_t {
	e, ok := lookupEngine(handle)
	if !ok {
		setLastError(corvus.ErrInternal)
		return -1
	}
	if err := e.Clear(); err != nil {
		setLastError(err)
		return -1
	}
	return 0
}

//export corvus_doc_count
func corvus_doc_count(handle C.int64_t) C.uint64_t {
	e, ok := lookupEngine(handle)
	if !ok {
		setLastError(corvus.ErrInternal)
		return 0
	}
	return C.uint64_t(e.DocCount())
}

// decodeBatch parses spec.md §6's length-prefixed document stream.
func decodeBatch(buf []byte) ([]corvus.Document, error) {
	var docs []corvus.Document
	i := 0
	for i < len(buf) {
		id, next, err := readLengthPrefixed(buf, i)
		if err != nil {
			return nil, err
		}
		i = next
		text, next, err := readLengthPrefixed(buf, i)
		if err != nil {
			return nil, err
		}
		i = next
		docs = append(docs, corvus.Document{ID: string(id), Text: string(text)})
	}
	return docs, nil
}

func readLengthPrefixed(buf []byte, i int) (field []byte, next int, err error) {
	if i+4 > len(buf) {
		return nil, 0, corvus.ErrCorrupted
	}
	n := int(buf[i]) | int(buf[i+1])<<8 | int(buf[i+2])<<16 | int(buf[i+3])<<24
	i += 4
	if i+n > len(buf) {
		return nil, 0, corvus.ErrCorrupted
	}
	return buf[i : i+n], i + n, nil
}
