package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. The returned slice contains embeddings in the same order as the
	// input texts. Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// RerankResult scores one candidate document against a query.
type RerankResult struct {
	// Index is the position of the document in the submitted candidate list.
	Index int

	// RelevanceScore is the reranker's relevance estimate, higher = more
	// relevant. The search layer applies its own threshold on top.
	RelevanceScore float64
}

// Reranker performs a secondary relevance-scoring pass over an initial
// candidate set. Implementations must be thread-safe for concurrent use.
type Reranker interface {
	// Rerank scores the candidate documents against the query and returns
	// results ordered by descending relevance. Implementations may truncate
	// to topN when it is positive.
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]RerankResult, error)
}
