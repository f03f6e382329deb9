package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// ID is the storage identifier of a persisted chunk or document.
// It is generated from database sequences and owned by the storage layer;
// higher layers reference entities by (content base, file) metadata instead.
type ID uint64

// FingerprintFromContent generates a deterministic fingerprint from text content
// using BLAKE2b hashing. Identical content always produces identical fingerprints,
// which is what makes page deduplication cheap.
func FingerprintFromContent(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// SourceKind identifies where an indexing job's content comes from.
type SourceKind int

const (
	// SourceKindFile is a file stored in object storage, referenced by key.
	SourceKindFile SourceKind = iota + 1
	// SourceKindURL is a web page (or set of pages) fetched directly.
	SourceKindURL
	// SourceKindText is raw text submitted inline with the request.
	SourceKindText
)

// ChunkMetadata carries the identity fields attached to every chunk before
// storage. FullPage holds the complete text of the page the chunk was cut
// from, so search can return page-level context for chunk-level hits.
type ChunkMetadata struct {
	ContentBaseID string
	FileID        string
	Filename      string
	FullPage      string
}

// Chunk is the unit of retrievable text: a bounded slice of a page, enriched
// with identity metadata and an embedding vector. The Vector is populated by
// the vector store at insertion time.
type Chunk struct {
	Id       ID
	Content  string
	Metadata ChunkMetadata
	Vector   []float32
}

// FullDocument is the complete extracted text of one file, stored separately
// from chunks for whole-document retrieval. One per file; overwritten on
// re-index, never appended.
type FullDocument struct {
	ContentBaseID string
	FileID        string
	Filename      string
	Content       string
}

// SearchResult is an ephemeral page-level search hit. Results are deduplicated
// by FullPage before they reach callers.
type SearchResult struct {
	FullPage string
	Filename string
	FileID   string
	Score    float32
}

// IndexJob is the structured descriptor of one indexing request. It replaces
/// the free-form request dictionaries of earlier revisions: every field is
// validated at the submission boundary, not deep in the pipeline.
type IndexJob struct {
	TaskID        string
	ContentBaseID string
	FileID        string
	Filename      string
	Extension     string
	Source        string // object-storage key, URL, or inline text depending on Kind
	Kind          SourceKind
	LoadType      string // extraction strategy hint passed through to the loader
}

// JobState tracks an indexing job through its lifecycle. Jobs always finish
// in StateReported, whether they succeeded or not.
type JobState int

const (
	StateReceived JobState = iota
	StateDownloaded
	StateExtracted
	StateChunked
	StateOldPurged
	StateSaved
	StateFullTextSaved
	StateVerified
	StateReported
)

// String returns the state name used in logs.
func (s JobState) String() string {
	switch s {
	case StateReceived:
		return "RECEIVED"
	case StateDownloaded:
		return "DOWNLOADED"
	case StateExtracted:
		return "EXTRACTED"
	case StateChunked:
		return "CHUNKED"
	case StateOldPurged:
		return "OLD_PURGED"
	case StateSaved:
		return "SAVED"
	case StateFullTextSaved:
		return "FULL_TEXT_SAVED"
	case StateVerified:
		return "VERIFIED"
	case StateReported:
		return "REPORTED"
	default:
		return "UNKNOWN"
	}
}
