// Package corvus is an embeddable full-text search engine. It ingests a
// stream of text documents, builds an inverted index over them, and serves
// ranked top-k queries using BM25 scoring.
//
// corvus is a library, not a service: callers embed it in a host process
// through the Engine interface (this package) or through the C-ABI surface
// in the cabi subpackage. There is no network listener anywhere in this
// module.
//
// The engine ships seven named profiles (see Create), trading off indexing
// throughput, query latency, and memory footprint:
//
//	bmw_simd     sharded in-memory Block-Max WAND engine (default for high throughput)
//	roaring_bm25 compressed posting engine: roaring bitmaps + ordered term dictionary
//	default      alias for roaring_bm25
//	turbo        plain (single-shard) Block-Max WAND
//	ultra        bitmap-only, smallest memory footprint
//	seismic      centroid-block approximate retrieval
//	tantivy      thin delegate wrapping roaring_bm25
//	ensemble     runs bmw_simd and roaring_bm25 together and merges hits
package corvus
