package corvus

import (
	"errors"
	"fmt"
	"os"
)

// ═══════════════════════════════════════════════════════════════════════════
// PROFILE DISPATCH
// ═══════════════════════════════════════════════════════════════════════════
// Every profile implements the same narrow Engine contract (spec.md §2); a
// host picks one by name at Create time, or lets Open infer it from an
// existing directory's on-disk magic. The closed set below is exhaustive:
// an unrecognized name is always ErrUnknownProfile, never a silent
// fallback (spec.md §9).
// ═══════════════════════════════════════════════════════════════════════════

// Profile name constants (spec.md §2).
const (
	ProfileBmwSimd     = "bmw_simd"
	ProfileRoaringBM25 = "roaring_bm25"
	ProfileDefault     = "default" // alias for ProfileRoaringBM25
	ProfileTurbo       = "turbo"
	ProfileUltra       = "ultra"
	ProfileSeismic     = "seismic"
	ProfileTantivy     = "tantivy"
	ProfileEnsemble    = "ensemble"
)

// Engine is the contract every profile satisfies: batched ingest, an
// explicit commit boundary, ranked search, introspection, and a
// save/load/clear lifecycle (spec.md §2).
type Engine interface {
	// IndexBatch tokenizes and ingests a batch of documents, returning how
	// many were accepted.
	IndexBatch(docs []Document) (int, error)

	// Commit makes every document indexed so far visible to Search and
	// refreshes any derived ranking structures (idf, block-max). It must be
	// safe to call with nothing pending.
	Commit() error

	// Search runs a ranked query over the committed index, returning up to
	// limit hits starting at offset.
	Search(query string, limit, offset int) (SearchHits, error)

	// DocCount returns the number of documents indexed so far. A document
	// counts as soon as IndexBatch accepts it, before the next Commit.
	DocCount() uint64

	// MemoryStats reports an approximate resident-memory breakdown.
	MemoryStats() MemoryStats

	// Clear empties the engine back to its just-created state.
	Clear() error

	// Save persists the engine's full state to dir.
	Save(dir string) error

	// Load replaces the engine's state with the snapshot at dir.
	Load(dir string) error

	// Close releases any resources (file handles, mmaps) held by the
	// engine. The engine must not be used afterward.
	Close() error

	// Name reports this engine's profile name.
	Name() string
}

// AllProfiles lists every concrete profile name, in the order spec.md §2
// introduces them. "default" is an alias, not a distinct profile, so it is
// omitted here.
func AllProfiles() []string {
	return []string{
		ProfileBmwSimd,
		ProfileRoaringBM25,
		ProfileTurbo,
		ProfileUltra,
		ProfileSeismic,
		ProfileTantivy,
		ProfileEnsemble,
	}
}

// canonicalProfile resolves the "default" alias and validates the closed
// set, returning ErrUnknownProfile for anything else.
func canonicalProfile(name string) (string, error) {
	if name == "" || name == ProfileDefault {
		return ProfileRoaringBM25, nil
	}
	for _, p := range AllProfiles() {
		if p == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProfile, name)
}

// Create constructs a new, empty engine for the named profile. keepIDs
// controls whether external document ids are retained verbatim rather than
// synthesized as doc_<n> (spec.md §4.3).
func Create(profile string, cfg EngineConfig, keepIDs bool) (Engine, error) {
	name, err := canonicalProfile(profile)
	if err != nil {
		return nil, err
	}
	cfg = cfg.Normalize()
	switch name {
	case ProfileBmwSimd:
		return NewBMWEngine(cfg, keepIDs), nil
	case ProfileRoaringBM25:
		return NewCompressedEngine(cfg, keepIDs), nil
	case ProfileTurbo:
		return NewTurboEngine(cfg, keepIDs), nil
	case ProfileUltra:
		return NewUltraEngine(cfg, keepIDs), nil
	case ProfileSeismic:
		return NewSeismicEngine(cfg, keepIDs), nil
	case ProfileTantivy:
		return NewTantivyEngine(cfg, keepIDs), nil
	case ProfileEnsemble:
		return NewEnsembleEngine(cfg, keepIDs), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, profile)
	}
}

// Open loads an existing index from dir, inferring its profile from the
// on-disk magic. An empty or missing directory yields a fresh bmw_simd
// engine (spec.md §9's resolution for Open on a never-saved path), matching
// bmw_simd's role as the default ingest-time profile. An index file too
// short to hold a magic is ErrCorrupted; any other failure to open it is
// ErrIO.
func Open(dir string, cfg EngineConfig, keepIDs bool) (Engine, error) {
	magic, err := peekMagic(dir)
	if err != nil {
		if errors.Is(err, ErrCorrupted) {
			return nil, err
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: opening %s: %v", ErrIO, dir, err)
		}
		e := NewBMWEngine(cfg.Normalize(), keepIDs)
		e.committed.Store(true)
		return e, nil
	}

	var e Engine
	switch magic {
	case magicBMW:
		e = NewBMWEngine(cfg.Normalize(), keepIDs)
	case magicRoaring:
		e = NewCompressedEngine(cfg.Normalize(), keepIDs)
	case magicTurbo:
		e = NewTurboEngine(cfg.Normalize(), keepIDs)
	case magicUltra:
		e = NewUltraEngine(cfg.Normalize(), keepIDs)
	case magicSeismic:
		e = NewSeismicEngine(cfg.Normalize(), keepIDs)
	case magicTantivy:
		e = NewTantivyEngine(cfg.Normalize(), keepIDs)
	case magicEnsemble:
		e = NewEnsembleEngine(cfg.Normalize(), keepIDs)
	default:
		return nil, fmt.Errorf("%w: unrecognized magic %q in %s", ErrCorrupted, magic, dir)
	}
	if err := e.Load(dir); err != nil {
		return nil, err
	}
	return e, nil
}
