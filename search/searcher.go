package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/veridex/contentd/ai"
	"github.com/veridex/contentd/core"
	"github.com/veridex/contentd/storage"
)

// DefaultThreshold is the minimum similarity score a chunk must strictly
// exceed to be considered a match.
const DefaultThreshold float32 = 0.5

// Searcher runs the retrieval pipeline over a vector store with an optional
// reranking stage.
type Searcher struct {
	store           storage.VectorStore
	reranker        ai.Reranker
	threshold       float32
	rerankThreshold float64
	rerankMaxDocs   int
	monitor         SearchMonitor
	logger          *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithThreshold sets the similarity threshold for vector search.
// Default is DefaultThreshold.
func WithThreshold(threshold float32) Option {
	return func(s *Searcher) error {
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("%w: got %f", ErrInvalidThreshold, threshold)
		}
		s.threshold = threshold
		return nil
	}
}

// QueryOption adjusts a single Search call.
type QueryOption func(*queryParams) error

type queryParams struct {
	threshold float32
	filename  string
}

// WithQueryThreshold overrides the configured similarity threshold for one
// call.
func WithQueryThreshold(threshold float32) QueryOption {
	return func(q *queryParams) error {
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("%w: got %f", ErrInvalidThreshold, threshold)
		}
		q.threshold = threshold
		return nil
	}
}

// WithFilename narrows one call to chunks of the named file.
func WithFilename(filename string) QueryOption {
	return func(q *queryParams) error {
		q.filename = filename
		return nil
	}
}

// WithReranker enables the reranking stage. Results whose relevance does not
// strictly exceed rerankThreshold are dropped; at most maxDocs survive.
func WithReranker(reranker ai.Reranker, rerankThreshold float64, maxDocs int) Option {
	return func(s *Searcher) error {
		if maxDocs < 1 {
			return fmt.Errorf("rerank max docs must be positive, got %d", maxDocs)
		}
		s.reranker = reranker
		s.rerankThreshold = rerankThreshold
		s.rerankMaxDocs = maxDocs
		return nil
	}
}

// WithMonitor sets a search monitor. Default is a no-op.
func WithMonitor(monitor SearchMonitor) Option {
	return func(s *Searcher) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		s.monitor = monitor
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a searcher over the given store.
func NewSearcher(store storage.VectorStore, opts ...Option) (*Searcher, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	s := &Searcher{
		store:           store,
		threshold:       DefaultThreshold,
		rerankThreshold: 0.75,
		rerankMaxDocs:   5,
		monitor:         &noopMonitor{},
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search retrieves the pages of a content base most relevant to the query.
// Chunks from the same page collapse into one result carrying the best
// chunk's score; page order follows the first (highest scoring) chunk seen.
// Query options can tighten the threshold or scope the call to one file; the
// configured defaults apply otherwise.
func (s *Searcher) Search(ctx context.Context, contentBaseID, query string, opts ...QueryOption) ([]*core.SearchResult, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, ErrEmptyQuery
	}

	params := queryParams{threshold: s.threshold}
	for _, opt := range opts {
		if err := opt(&params); err != nil {
			return nil, err
		}
	}

	s.monitor.Start(query)

	filter := &storage.MetadataFilter{ContentBaseID: contentBaseID, Filename: params.filename}
	matches, err := s.store.Search(ctx, query, filter, params.threshold)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	s.monitor.AfterVectorSearch(matches)

	results := dedupeByPage(matches)
	s.monitor.AfterDeduplication(results)

	if s.reranker != nil && len(results) > 0 {
		results, err = s.rerank(ctx, query, results)
		if err != nil {
			return nil, err
		}
		s.monitor.AfterRerank(results)
	}

	s.logger.Debug("search complete", "contentBase", contentBaseID, "results", len(results))
	s.monitor.Finish(results)
	return results, nil
}

// Delete removes every chunk and the full text stored for a file. A
// non-empty filename joins the conjunction, so a mismatched name deletes no
// chunks. Chunk ids are collected page by page until a page comes back
// empty, then removed in a single call.
func (s *Searcher) Delete(ctx context.Context, contentBaseID, filename, fileID string) error {
	filter := storage.MetadataFilter{ContentBaseID: contentBaseID, FileID: fileID, Filename: filename}

	var (
		ids    []core.ID
		cursor storage.Cursor
	)
	for {
		next, hits, err := s.store.PaginatedQueryByMetadata(ctx, filter, cursor)
		if err != nil {
			return fmt.Errorf("collecting chunks of %s: %w", fileID, err)
		}
		if len(hits) == 0 {
			break
		}
		for _, hit := range hits {
			ids = append(ids, hit.Id)
		}
		cursor = next
	}

	if len(ids) > 0 {
		if err := s.store.DeleteChunks(ctx, ids); err != nil {
			return fmt.Errorf("deleting chunks of %s: %w", fileID, err)
		}
	}

	if err := s.store.DeleteFullDocument(ctx, fileID, contentBaseID); err != nil {
		return fmt.Errorf("deleting full text of %s: %w", fileID, err)
	}

	s.logger.Debug("content deleted", "contentBase", contentBaseID, "file", fileID, "chunks", len(ids))
	return nil
}

// FullDocument returns the stored full text for a file, or the empty string
// when the file has none.
func (s *Searcher) FullDocument(ctx context.Context, contentBaseID, fileID string) (string, error) {
	return s.store.SearchFullDocument(ctx, fileID, contentBaseID)
}

// dedupeByPage collapses chunk matches onto their originating pages,
// keeping first-seen order. Matches arrive sorted by descending score, so
// each page carries its best chunk's score. Pages are compared by content
// fingerprint, not by string; FullPage can run to many kilobytes.
func dedupeByPage(matches []storage.ScoredChunk) []*core.SearchResult {
	var results []*core.SearchResult
	seen := make(map[uint64]bool)
	for _, match := range matches {
		page := match.Chunk.Metadata.FullPage
		fp := core.FingerprintFromContent(page)
		if seen[fp] {
			continue
		}
		seen[fp] = true
		results = append(results, &core.SearchResult{
			FullPage: page,
			Filename: match.Chunk.Metadata.Filename,
			FileID:   match.Chunk.Metadata.FileID,
			Score:    match.Score,
		})
	}
	return results
}

// rerank rescores the deduplicated pages and keeps those whose relevance
// strictly exceeds the rerank threshold, best first, capped at maxDocs.
func (s *Searcher) rerank(ctx context.Context, query string, results []*core.SearchResult) ([]*core.SearchResult, error) {
	documents := make([]string, len(results))
	for i, res := range results {
		documents[i] = res.FullPage
	}

	ranked, err := s.reranker.Rerank(ctx, query, documents, s.rerankMaxDocs)
	if err != nil {
		return nil, fmt.Errorf("reranking: %w", err)
	}

	var kept []*core.SearchResult
	for _, r := range ranked {
		if r.RelevanceScore <= s.rerankThreshold {
			continue
		}
		if r.Index < 0 || r.Index >= len(results) {
			continue
		}
		res := results[r.Index]
		res.Score = float32(r.RelevanceScore)
		kept = append(kept, res)
	}
	if len(kept) > s.rerankMaxDocs {
		kept = kept[:s.rerankMaxDocs]
	}
	return kept, nil
}
