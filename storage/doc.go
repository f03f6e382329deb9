// Package storage defines the vector store contract that makes chunk
// mutations idempotent per (content base, file) pair.
//
// The VectorStore interface is the consistency engine of the pipeline:
//   - chunk sets are replaced atomically on re-index, never merged
//   - metadata queries over a missing index return empty results, not errors
//   - deletions page through compound-filter matches and are idempotent
//   - full-document text is upserted separately from chunks
//
// Implementations own the physical representation (keys, storage ids);
// callers reference entities only by content base, file, and filename.
package storage
