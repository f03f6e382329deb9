package badger

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/veridex/contentd/ai"
	"github.com/veridex/contentd/core"
	"github.com/veridex/contentd/storage"
)

const (
	defaultSaveBatchSize = 500
	defaultPageSize      = 100
	defaultTopK          = 15
)

// Store implements storage.VectorStore on BadgerDB.
//
// Chunks are stored under a sequence-assigned id with a secondary index
// keyed by (content base, file), which is what metadata queries, paginated
// deletion scans, and the embedded-flag check iterate. Embedding vectors
// are computed by the configured embedder at insertion time, so every
// stored chunk is immediately searchable.
type Store struct {
	backend   *Backend
	embedder  ai.Embedder
	idSeq     *badger.Sequence
	logger    *slog.Logger
	batchSize int
	pageSize  int
	topK      int
}

var _ storage.VectorStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store) error

// WithSaveBatchSize bounds how many chunks are embedded and written per
// batch. Default is 500, sized to respect embedding-endpoint payload limits.
func WithSaveBatchSize(size int) Option {
	return func(s *Store) error {
		if size < 1 {
			return fmt.Errorf("save batch size must be positive, got %d", size)
		}
		s.batchSize = size
		return nil
	}
}

// WithPageSize sets the fixed page size of paginated metadata queries.
// Default is 100.
func WithPageSize(size int) Option {
	return func(s *Store) error {
		if size < 1 {
			return fmt.Errorf("page size must be positive, got %d", size)
		}
		s.pageSize = size
		return nil
	}
}

// WithTopK bounds similarity search results. Default is 15.
func WithTopK(k int) Option {
	return func(s *Store) error {
		if k < 1 {
			return fmt.Errorf("top-k must be positive, got %d", k)
		}
		s.topK = k
		return nil
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewStore creates a vector store over an open backend.
func NewStore(backend *Backend, embedder ai.Embedder, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}

	idSeq, err := backend.GetSequence(chunkIDSeq)
	if err != nil {
		return nil, err
	}

	s := &Store{
		backend:   backend,
		embedder:  embedder,
		idSeq:     idSeq,
		logger:    slog.Default().With("component", "vectorstore"),
		batchSize: defaultSaveBatchSize,
		pageSize:  defaultPageSize,
		topK:      defaultTopK,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			idSeq.Release()
			return nil, err
		}
	}

	return s, nil
}

// Close releases the id sequence. The backend is owned by the caller.
func (s *Store) Close() error {
	return s.idSeq.Release()
}

// SaveChunks inserts chunks in bounded batches. Each batch is validated and
// embedded with one embedder call, then written in one transaction; a
// failure surfaces the ids already inserted by earlier batches alongside
// the error.
func (s *Store) SaveChunks(ctx context.Context, chunks []*core.Chunk) ([]core.ID, error) {
	var inserted []core.ID

	for start := 0; start < len(chunks); start += s.batchSize {
		end := min(start+s.batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			if err := core.ValidateChunk(chunk); err != nil {
				return inserted, err
			}
			texts[i] = chunk.Content
		}

		vectors, err := s.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return inserted, fmt.Errorf("%w: chunks %d..%d: %w", storage.ErrBatchFailed, start, end-1, err)
		}
		if len(vectors) != len(batch) {
			return inserted, fmt.Errorf("%w: chunks %d..%d: embedder returned %d vectors for %d texts",
				storage.ErrBatchFailed, start, end-1, len(vectors), len(batch))
		}

		err = s.backend.WithTx(func(tx *badger.Txn) error {
			for i, chunk := range batch {
				nextID, err := s.idSeq.Next()
				if err != nil {
					return err
				}
				// BadgerDB sequences can return 0 on first call, so we skip it
				if nextID == 0 {
					nextID, err = s.idSeq.Next()
					if err != nil {
						return err
					}
				}
				chunk.Id = core.ID(nextID)
				chunk.Vector = vectors[i]

				if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
					return err
				}
				refKey := makeChunkRefKey(chunk.Metadata.ContentBaseID, chunk.Metadata.FileID, chunk.Id)
				if err := tx.Set(refKey, storage.MarshalID(chunk.Id)); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return inserted, fmt.Errorf("%w: chunks %d..%d: %w", storage.ErrBatchFailed, start, end-1, err)
		}

		for _, chunk := range batch {
			inserted = append(inserted, chunk.Id)
		}
		s.logger.Debug("saved chunk batch", "from", start, "to", end-1, "total", len(chunks))
	}

	return inserted, nil
}

// QueryByMetadata returns every chunk matching the filter. An index with no
// entries for the content base yields an empty result, not an error.
func (s *Store) QueryByMetadata(ctx context.Context, filter storage.MetadataFilter) ([]storage.QueryHit, error) {
	if filter.ContentBaseID == "" {
		return nil, fmt.Errorf("%w: content base id required", storage.ErrInvalidQuery)
	}

	var hits []storage.QueryHit
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeChunkRefScanPrefix(filter.ContentBaseID, filter.FileID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			hit, err := s.readHit(tx, iter.Item())
			if err != nil {
				return err
			}
			if hit == nil || !filter.Matches(hit.Metadata) {
				continue
			}
			hits = append(hits, *hit)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return hits, nil
}

// PaginatedQueryByMetadata scans filter matches one page at a time. The
// cursor is the scan position after the last returned hit; an exhausted
// cursor yields an empty page with the cursor unchanged.
func (s *Store) PaginatedQueryByMetadata(ctx context.Context, filter storage.MetadataFilter, cursor storage.Cursor) (storage.Cursor, []storage.QueryHit, error) {
	if filter.ContentBaseID == "" {
		return nil, nil, fmt.Errorf("%w: content base id required", storage.ErrInvalidQuery)
	}

	prefix := makeChunkRefScanPrefix(filter.ContentBaseID, filter.FileID)
	seek := []byte(prefix)
	if cursor != nil {
		if !bytes.HasPrefix(cursor, prefix) {
			return nil, nil, storage.ErrInvalidCursor
		}
		seek = cursor
	}

	var (
		hits []storage.QueryHit
		next storage.Cursor
	)
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(seek); iter.Valid() && len(hits) < s.pageSize; iter.Next() {
			item := iter.Item()
			hit, err := s.readHit(tx, item)
			if err != nil {
				return err
			}
			// Position the next page one past this key either way.
			next = successor(item.Key())
			if hit == nil || !filter.Matches(hit.Metadata) {
				continue
			}
			hits = append(hits, *hit)
		}
		return nil
	}, false)
	if err != nil {
		return nil, nil, err
	}

	if len(hits) == 0 {
		// Exhausted: hand the caller's cursor back so repeated calls stay empty.
		return cursor, nil, nil
	}
	return next, hits, nil
}

// DeleteChunks removes chunks and their index entries by storage id.
// Unknown ids are skipped.
func (s *Store) DeleteChunks(ctx context.Context, ids []core.ID) error {
	if len(ids) == 0 {
		return nil
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			chunk, err := readChunk(tx, makeChunkKey(id))
			if err != nil {
				return err
			}
			if chunk == nil {
				continue
			}

			refKey := makeChunkRefKey(chunk.Metadata.ContentBaseID, chunk.Metadata.FileID, id)
			if err := tx.Delete(refKey); err != nil {
				return err
			}
			if err := tx.Delete(makeChunkKey(id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// ReplaceChunkSet deletes every chunk stored for (contentBaseID, fileID) and
// saves the given set in its place. All indexing paths go through this
// primitive so re-runs can never duplicate a file's chunks.
func (s *Store) ReplaceChunkSet(ctx context.Context, contentBaseID, fileID string, chunks []*core.Chunk) ([]core.ID, error) {
	// Reject bad input before purging the existing set.
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, err
		}
	}

	existing, err := s.QueryByMetadata(ctx, storage.MetadataFilter{
		ContentBaseID: contentBaseID,
		FileID:        fileID,
	})
	if err != nil {
		return nil, err
	}

	if len(existing) > 0 {
		ids := make([]core.ID, len(existing))
		for i, hit := range existing {
			ids[i] = hit.Id
		}
		if err := s.DeleteChunks(ctx, ids); err != nil {
			return nil, err
		}
		s.logger.Debug("purged stale chunks",
			"contentBase", contentBaseID, "file", fileID, "count", len(ids))
	}

	return s.SaveChunks(ctx, chunks)
}

// SaveFullDocument upserts the full extracted text for one file.
func (s *Store) SaveFullDocument(ctx context.Context, doc core.FullDocument) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeFullDocKey(doc.ContentBaseID, doc.FileID)
		if err := tx.Set(key, storage.MarshalFullDocument(&doc)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// SearchFullDocument returns the stored full text, or "" when absent.
func (s *Store) SearchFullDocument(ctx context.Context, fileID, contentBaseID string) (string, error) {
	var content string
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeFullDocKey(contentBaseID, fileID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			doc, err := storage.UnmarshalFullDocument(val)
			if err != nil {
				return err
			}
			content = doc.Content
			return nil
		})
	}, false)
	return content, err
}

// ReembedChunks recomputes embedding vectors for the given chunks in place,
// preserving ids and metadata. Unknown ids are skipped. Like SaveChunks,
// each batch is one embedder call and one transaction.
func (s *Store) ReembedChunks(ctx context.Context, ids []core.ID) error {
	for start := 0; start < len(ids); start += s.batchSize {
		end := min(start+s.batchSize, len(ids))

		var chunks []*core.Chunk
		err := s.backend.WithTx(func(tx *badger.Txn) error {
			for _, id := range ids[start:end] {
				chunk, err := readChunk(tx, makeChunkKey(id))
				if err != nil {
					return err
				}
				if chunk == nil {
					continue
				}
				chunks = append(chunks, chunk)
			}
			return nil
		}, false)
		if err != nil {
			return err
		}
		if len(chunks) == 0 {
			continue
		}

		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Content
		}

		vectors, err := s.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return fmt.Errorf("%w: chunks %d..%d: %w", storage.ErrBatchFailed, start, end-1, err)
		}
		if len(vectors) != len(chunks) {
			return fmt.Errorf("%w: chunks %d..%d: embedder returned %d vectors for %d texts",
				storage.ErrBatchFailed, start, end-1, len(vectors), len(chunks))
		}

		err = s.backend.WithTx(func(tx *badger.Txn) error {
			for i, chunk := range chunks {
				chunk.Vector = vectors[i]
				if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return fmt.Errorf("%w: chunks %d..%d: %w", storage.ErrBatchFailed, start, end-1, err)
		}

		s.logger.Debug("reembedded chunk batch", "from", start, "to", end-1, "total", len(ids))
	}

	return nil
}

// DeleteFullDocument removes the stored full text for the key. Deleting an
// absent document is a no-op.
func (s *Store) DeleteFullDocument(ctx context.Context, fileID, contentBaseID string) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		err := tx.Delete(makeFullDocKey(contentBaseID, fileID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	}, true)
}

// IsEmbedded reports whether at least one chunk for (fileID, contentBaseID)
// is visible. A false result means "not yet visible", not "failed".
func (s *Store) IsEmbedded(ctx context.Context, fileID, contentBaseID string) (bool, error) {
	var found bool
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeChunkRefScanPrefix(contentBaseID, fileID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		iter.Rewind()
		found = iter.Valid()
		return nil
	}, false)
	return found, err
}

// Search embeds the query and returns up to topK chunks whose similarity
// strictly exceeds threshold, highest first.
func (s *Store) Search(ctx context.Context, query string, filter *storage.MetadataFilter, threshold float32) ([]storage.ScoredChunk, error) {
	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}

	var results []storage.ScoredChunk
	err = s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil || len(chunk.Vector) == 0 {
				continue
			}
			if filter != nil && !filter.Matches(chunk.Metadata) {
				continue
			}

			// Cosine similarity; vectors are normalized by the embedder.
			score := dotProduct(vector, chunk.Vector)
			if score > threshold {
				results = append(results, storage.ScoredChunk{Chunk: chunk, Score: score})
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b storage.ScoredChunk) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > s.topK {
		results = results[:s.topK]
	}
	return results, nil
}

// readHit resolves an index entry to a QueryHit. Dangling references
// (chunk deleted, index entry surviving a partial failure) return nil.
func (s *Store) readHit(tx *badger.Txn, item *badger.Item) (*storage.QueryHit, error) {
	var id core.ID
	err := item.Value(func(val []byte) error {
		var err error
		id, err = storage.UnmarshalID(val)
		return err
	})
	if err != nil {
		return nil, err
	}

	chunk, err := readChunk(tx, makeChunkKey(id))
	if err != nil {
		return nil, err
	}
	if chunk == nil {
		return nil, nil
	}
	return &storage.QueryHit{Id: id, Metadata: chunk.Metadata}, nil
}

// readChunk reads a chunk record; missing keys return nil, not an error.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	return chunk, err
}

// successor returns the smallest key strictly greater than k.
func successor(k []byte) []byte {
	next := make([]byte, len(k)+1)
	copy(next, k)
	return next
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := min(len(a), len(b))
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
