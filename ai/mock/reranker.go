package mock

import (
	"context"

	"github.com/veridex/contentd/ai"
)

// MockReranker is a test double for ai.Reranker.
type MockReranker struct {
	// RerankFunc is called by Rerank if set. If nil, every candidate is
	// returned in submission order with a relevance score of 1.0.
	RerankFunc func(ctx context.Context, query string, documents []string, topN int) ([]ai.RerankResult, error)

	callCount int
}

// NewMockReranker creates a mock reranker with pass-through behavior.
func NewMockReranker() *MockReranker {
	return &MockReranker{}
}

// Rerank scores candidates via RerankFunc or the pass-through default.
func (m *MockReranker) Rerank(ctx context.Context, query string, documents []string, topN int) ([]ai.RerankResult, error) {
	m.callCount++

	if m.RerankFunc != nil {
		return m.RerankFunc(ctx, query, documents, topN)
	}

	results := make([]ai.RerankResult, len(documents))
	for i := range documents {
		results[i] = ai.RerankResult{Index: i, RelevanceScore: 1.0}
	}
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}

// CallCount returns the number of times Rerank was called.
func (m *MockReranker) CallCount() int {
	return m.callCount
}
