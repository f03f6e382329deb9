package storage

import (
	"context"

	"github.com/veridex/contentd/core"
)

// MetadataFilter is an exact-match conjunction over chunk identity fields.
// ContentBaseID is always required; FileID and Filename narrow the match
// when set. Implementations must treat empty fields as absent, not as a
// match on the empty string.
type MetadataFilter struct {
	ContentBaseID string
	FileID        string
	Filename      string
}

// Matches reports whether the filter accepts the given chunk metadata.
func (f MetadataFilter) Matches(m core.ChunkMetadata) bool {
	if f.ContentBaseID != "" && m.ContentBaseID != f.ContentBaseID {
		return false
	}
	if f.FileID != "" && m.FileID != f.FileID {
		return false
	}
	if f.Filename != "" && m.Filename != f.Filename {
		return false
	}
	return true
}

// QueryHit is one metadata-query match: the storage id plus the metadata
// needed to act on it. Chunk content and vectors are deliberately not
// returned; metadata queries exist to drive deletions.
type QueryHit struct {
	Id       core.ID
	Metadata core.ChunkMetadata
}

// ScoredChunk is a similarity-search match: the chunk plus its score
// against the query (higher = more similar).
type ScoredChunk struct {
	Chunk *core.Chunk
	Score float32
}

// Cursor is an opaque pagination token returned by paginated queries.
// A nil cursor means "start from the beginning"; passing an exhausted
// cursor yields an empty page, never an error.
type Cursor []byte

// VectorStore provides chunk and full-document persistence with the
// consistency guarantees the indexing pipeline relies on.
// Implementations must be safe for concurrent use across distinct
// (content base, file) pairs.
type VectorStore interface {
	// SaveChunks inserts chunks in bounded batches, computing each chunk's
	// embedding vector at insertion time. Returns the storage ids of the
	// inserted chunks in input order. A failure inside a batch is surfaced
	// to the caller with the already-inserted ids; nothing is rolled back.
	SaveChunks(ctx context.Context, chunks []*core.Chunk) ([]core.ID, error)

	// QueryByMetadata returns all chunks matching the filter. A backing
	// index that does not exist yet yields an empty result, not an error.
	QueryByMetadata(ctx context.Context, filter MetadataFilter) ([]QueryHit, error)

	// PaginatedQueryByMetadata scans filter matches one fixed-size page at
	// a time. The first call passes a nil cursor; each subsequent call must
	// pass the cursor returned by the previous one. An exhausted cursor
	// returns an empty page. Callers terminate on "zero hits", not on any
	// property of the cursor itself.
	PaginatedQueryByMetadata(ctx context.Context, filter MetadataFilter, cursor Cursor) (Cursor, []QueryHit, error)

	// DeleteChunks removes chunks by storage id. Deleting an id that does
	// not exist is not an error.
	DeleteChunks(ctx context.Context, ids []core.ID) error

	// ReplaceChunkSet atomically replaces every chunk stored for
	// (contentBaseID, fileID) with the given set: existing chunks for the
	// key are deleted, then the new chunks are saved. This is the one
	// primitive behind all re-indexing paths.
	ReplaceChunkSet(ctx context.Context, contentBaseID, fileID string, chunks []*core.Chunk) ([]core.ID, error)

	// SaveFullDocument upserts the complete extracted text of one file,
	// keyed by (content base, file). The overwrite must be observable on
	// the next SearchFullDocument call for the same key.
	SaveFullDocument(ctx context.Context, doc core.FullDocument) error

	// SearchFullDocument returns the stored full text for the key, or the
	// empty string when absent. Absence is not an error.
	SearchFullDocument(ctx context.Context, fileID, contentBaseID string) (string, error)

	// IsEmbedded reports whether any chunk for (fileID, contentBaseID) is
	// visible in the store. Callers must treat false as "not yet visible",
	// not as a failure; asynchronous writers may still be in flight.
	IsEmbedded(ctx context.Context, fileID, contentBaseID string) (bool, error)

	// Search embeds the query and returns up to the store's configured
	// top-k chunks whose similarity score strictly exceeds threshold
	// (higher score = more similar), optionally restricted to a single
	// content base via filter. Results are ordered by descending score.
	Search(ctx context.Context, query string, filter *MetadataFilter, threshold float32) ([]ScoredChunk, error)

	// DeleteFullDocument removes the stored full text for the key.
	// Deleting an absent document is not an error.
	DeleteFullDocument(ctx context.Context, fileID, contentBaseID string) error

	// ReembedChunks recomputes the embedding vectors of the given chunks in
	// place, preserving their ids and metadata. Used when the embedding
	// model changes. Ids that no longer exist are skipped.
	ReembedChunks(ctx context.Context, ids []core.ID) error

	// Close releases the storage backend and its resources.
	Close() error
}
