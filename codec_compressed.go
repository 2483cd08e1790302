package corvus

import (
	"bytes"
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring"
)

// ═══════════════════════════════════════════════════════════════════════════
// ROAR PERSISTENCE FORMAT
// ═══════════════════════════════════════════════════════════════════════════
// Layout: magic + version, engine config, the document table (as in BMWS),
// then each shard's terms as (hash, term bytes, serialized roaring bitmap,
// block-max-free entries). The ordered term dictionary itself is not
// persisted as a standalone blob: spec.md §6 lists it as *optional*, and it
// is fully reconstructible from each entry's term bytes on Load, which is
// cheaper than shipping a second encoding of the same key set.
//
// saveBody/loadBodyAs take the magic as a parameter so derived_seismic.go
// can reuse this exact layout under its own magic.
// ═══════════════════════════════════════════════════════════════════════════

// Save writes the engine's full state to dir/index.bin under the
// roaring_bm25 magic.
func (e *CompressedEngine) Save(dir string) error {
	return atomicWriteFile(dir, func(wr io.Writer) error {
		return e.saveBody(wr, magicRoaring)
	})
}

func (e *CompressedEngine) saveBody(wr io.Writer, magic string) error {
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
		for hash, ct := range s.terms {
			w.writeU64(hash)
			w.writeString(ct.term)

			var buf bytes.Buffer
			if _, err := ct.bitmap.WriteTo(&buf); err != nil {
				s.mu.RUnlock()
				return fmt.Errorf("%w: serializing bitmap: %v", ErrCorrupted, err)
			}
			w.writeBytes(buf.Bytes())

			w.writeU32(uint32(len(ct.pl.Entries)))
			for _, ent := range ct.pl.Entries {
				w.writeU32(ent.DocID)
				w.writeU16(ent.Freq)
			}
		}
		s.mu.RUnlock()
	}
	return w.flush()
}

// Load replaces the engine's state with the snapshot at dir/index.bin,
// expecting the roaring_bm25 magic.
func (e *CompressedEngine) Load(dir string) error {
	if err := e.loadBodyAs(dir, magicRoaring, NewCompressedEngine); err != nil {
		return err
	}
	if e.docs.Len() == 0 {
		e.committed.Store(true)
		return nil
	}
	return e.Commit()
}

// loadBodyAs decodes dir/index.bin under the given expected magic,
// constructing the fresh engine via newEngine so derived_seismic.go can
// reuse this exact wire format with its own magic and constructor. It
// leaves the engine marked dirty/uncommitted; the caller's own Load method
// is responsible for calling its own (possibly overridden) Commit.
func (e *CompressedEngine) loadBodyAs(dir string, magic string, newEngine func(EngineConfig, bool) *CompressedEngine) error {
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
			term := r.readString()
			bitmapBytes := r.readBytes()
			if r.err != nil {
				return r.err
			}
			bitmap := roaring.New()
			if _, err := bitmap.ReadFrom(bytes.NewReader(bitmapBytes)); err != nil {
				return fmt.Errorf("%w: deserializing bitmap: %v", ErrCorrupted, err)
			}
			entryCount := r.readU32()
			pl := &PostingList{Entries: make([]Entry, entryCount)}
			for i := range pl.Entries {
				docID := r.readU32()
				freq := r.readU16()
				pl.Entries[i] = Entry{DocID: docID, Freq: freq}
			}
			pl.DF = entryCount
			shard.terms[hash] = &compressedTerm{term: term, bitmap: bitmap, pl: pl}
			fresh.dict.Insert(term, 0)
		}
	}
	if r.err != nil {
		return r.err
	}

	e.cfg = fresh.cfg
	e.tok = fresh.tok
	e.shards = fresh.shards
	e.docs = fresh.docs
	e.dict = fresh.dict
	e.dirty.Store(true)
	e.committed.Store(false)
	return nil
}
