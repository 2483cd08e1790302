package corvus

import "io"

// ═══════════════════════════════════════════════════════════════════════════
// BMWS PERSISTENCE FORMAT
// ═══════════════════════════════════════════════════════════════════════════
// Layout: magic + version, engine config, the document table, then each
// shard's term dictionary as (hash, raw entries) pairs. Block-max arrays
// are not persisted: RecomputeBlockMax is cheap relative to I/O, and Load
// re-derives them from the stored entries under the BlockSize saved in the
// file's engine config, so a loaded index keeps its saved block layout
// whatever config is passed to Open.
//
// saveBody/loadBodyAs take the magic as a parameter so derived_turbo.go's
// single-shard profile can reuse this exact layout under its own magic
// without duplicating the encoding logic.
// ═══════════════════════════════════════════════════════════════════════════

// Save writes the engine's full state to dir/index.bin under the bmw_simd
// magic.
func (e *BMWEngine) Save(dir string) error {
	return atomicWriteFile(dir, func(wr io.Writer) error {
		return e.saveBody(wr, magicBMW)
	})
}

// saveBody encodes the engine under the given magic, shared with
// TurboEngine.Save.
func (e *BMWEngine) saveBody(wr io.Writer, magic string) error {
	w := newCodecWriter(wr)
	w.writeMagic(magic)
	w.writeF64(e.cfg.K1)
	w.writeF64(e.cfg.B)
	w.writeU32(uint32(e.cfg.BlockSize))
	w.writeU32(uint32(len(e.shards)))
	w.writeU32(uint32(e.cfg.MinTokenLen))
	w.writeU32(uint32(e.cfg.MaxTokenLen))

	e.docs.mu.RLock()
	keepIDs := e.docs.keepIDs
	lengths := e.docs.docLengths
	ids := e.docs.docIDs
	w.writeU16(boolU16(keepIDs))
	w.writeU64(uint64(len(lengths)))
	for _, l := range lengths {
		w.writeU16(l)
	}
	if keepIDs {
		for _, id := range ids {
			w.writeString(id)
		}
	}
	e.docs.mu.RUnlock()

	for _, s := range e.shards {
		s.mu.RLock()
		w.writeU32(uint32(len(s.terms)))
		for hash, pl := range s.terms {
			w.writeU64(hash)
			w.writeU32(uint32(len(pl.Entries)))
			for _, ent := range pl.Entries {
				w.writeU32(ent.DocID)
				w.writeU16(ent.Freq)
			}
		}
		s.mu.RUnlock()
	}
	return w.flush()
}

// Load replaces the engine's state with the snapshot at dir/index.bin,
// expecting the bmw_simd magic.
func (e *BMWEngine) Load(dir string) error {
	if err := e.loadBodyAs(dir, magicBMW, NewBMWEngine); err != nil {
		return err
	}
	if e.docs.Len() == 0 {
		e.committed.Store(true)
		return nil
	}
	return e.Commit()
}

// loadBodyAs decodes dir/index.bin under the given expected magic,
// constructing the fresh engine to populate via newEngine (so TurboEngine
// can force Shards=1 while reusing this exact wire format).
func (e *BMWEngine) loadBodyAs(dir string, magic string, newEngine func(EngineConfig, bool) *BMWEngine) error {
	f, err := openIndexFile(dir)
	if err != nil {
		return err
	}
	defer f.Close()

	r := newCodecReader(f)
	r.readMagic(magic)
	k1 := r.readF64()
	b := r.readF64()
	blockSize := r.readU32()
	numShards := r.readU32()
	minTok := r.readU32()
	maxTok := r.readU32()
	keepIDs := r.readU16() != 0
	docCount := r.readU64()

	lengths := make([]uint32, docCount)
	for i := range lengths {
		lengths[i] = uint32(r.readU16())
	}
	ids := make([]string, docCount)
	if keepIDs {
		for i := range ids {
			ids[i] = r.readString()
		}
	}
	if r.err != nil {
		return r.err
	}

	cfg := EngineConfig{K1: k1, B: b, BlockSize: int(blockSize), Shards: int(numShards), MinTokenLen: int(minTok), MaxTokenLen: int(maxTok)}.Normalize()
	fresh := newEngine(cfg, keepIDs)
	fresh.docs.Append(lengths, ids)

	for s := 0; s < len(fresh.shards); s++ {
		termCount := r.readU32()
		if r.err != nil {
			return r.err
		}
		shard := fresh.shards[s]
		for t := uint32(0); t < termCount; t++ {
			hash := r.readU64()
			entryCount := r.readU32()
			pl := &PostingList{Entries: make([]Entry, entryCount)}
			for i := range pl.Entries {
				docID := r.readU32()
				freq := r.readU16()
				pl.Entries[i] = Entry{DocID: docID, Freq: freq}
			}
			pl.DF = entryCount
			shard.terms[hash] = pl
		}
	}
	if r.err != nil {
		return r.err
	}

	e.cfg = fresh.cfg
	e.tok = fresh.tok
	e.shards = fresh.shards
	e.docs = fresh.docs
	e.dirty.Store(true)
	e.committed.Store(false)
	return nil
}

func boolU16(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}
