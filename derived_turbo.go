package corvus

import "io"

// ═══════════════════════════════════════════════════════════════════════════
// TURBO PROFILE
// ═══════════════════════════════════════════════════════════════════════════
// Plain (non-sharded) Block-Max WAND: bmw_simd's Phase-S fan-out collapsed
// to a single shard. Reuses every piece of bmw_engine.go unmodified — the
// only difference is S=1 and the on-disk magic.
// ═══════════════════════════════════════════════════════════════════════════

// TurboEngine is the single-shard BMW profile.
type TurboEngine struct {
	*BMWEngine
}

// NewTurboEngine constructs an empty turbo engine.
func NewTurboEngine(cfg EngineConfig, keepIDs bool) *TurboEngine {
	cfg.Shards = 1
	return &TurboEngine{BMWEngine: NewBMWEngine(cfg, keepIDs)}
}

// Name reports this engine's profile name.
func (e *TurboEngine) Name() string { return ProfileTurbo }

// Save writes the engine's state using the turbo magic.
func (e *TurboEngine) Save(dir string) error {
	return atomicWriteFile(dir, func(wr io.Writer) error {
		return e.saveBody(wr, magicTurbo)
	})
}

// Load replaces the engine's state from dir, expecting the turbo magic.
func (e *TurboEngine) Load(dir string) error {
	newEngine := func(cfg EngineConfig, keepIDs bool) *BMWEngine {
		cfg.Shards = 1
		return NewBMWEngine(cfg, keepIDs)
	}
	if err := e.loadBodyAs(dir, magicTurbo, newEngine); err != nil {
		return err
	}
	if e.docs.Len() == 0 {
		e.committed.Store(true)
		return nil
	}
	return e.Commit()
}
