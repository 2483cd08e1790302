package corvus

import "errors"

// Error kinds returned by every profile. Callers match these with
// errors.Is; internal code always wraps them with context via fmt.Errorf's
// %w verb rather than returning them bare, except where no extra context
// exists to add.
var (
	// ErrUnknownProfile is returned by Create when the requested profile
	// name is not in the closed set.
	ErrUnknownProfile = errors.New("corvus: unknown profile")

	// ErrNotFound is returned by Load when the directory has no index
	// file. Open on such a directory yields a fresh bmw_simd engine
	// instead.
	ErrNotFound = errors.New("corvus: index not found")

	// ErrCorrupted is returned by Open/Load on a magic mismatch, a
	// truncated record, invalid UTF-8 inside a stored term or id, or a
	// roaring-bitmap deserialization failure.
	ErrCorrupted = errors.New("corvus: corrupted index")

	// ErrIO wraps any underlying filesystem failure.
	ErrIO = errors.New("corvus: io error")

	// ErrOutOfMemory names the failure of a posting or document vector to
	// grow. No profile returns it: in Go an allocation failure is a fatal
	// runtime error, not a returned error.
	ErrOutOfMemory = errors.New("corvus: out of memory")

	// ErrNotReady is returned by Search before any commit has produced a
	// consistent snapshot.
	ErrNotReady = errors.New("corvus: index not ready, no committed snapshot")

	// ErrInvalidQuery is returned by Search for a negative limit or offset,
	// and by requireNonEmptyQuery for a query with no indexable tokens. A
	// Search whose query has no indexable tokens returns an empty result,
	// not this error.
	ErrInvalidQuery = errors.New("corvus: invalid query")

	// ErrInternal guards unreachable states. It should never surface in
	// production; its presence in a bug report points at a broken
	// invariant somewhere in this package.
	ErrInternal = errors.New("corvus: internal error")
)
