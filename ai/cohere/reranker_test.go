package cohere

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veridex/contentd/ai"
)

func TestRerank(t *testing.T) {
	var gotReq rerankRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v2/rerank", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"index": 1, "relevance_score": 0.93},
				{"index": 0, "relevance_score": 0.41},
			},
		})
	}))
	defer srv.Close()

	cfg := ai.NewConfig(
		ai.WithRerankHost(srv.URL),
		ai.WithRerankModel("rerank-multilingual-v3.0"),
	)
	reranker, err := NewReranker(cfg, "secret")
	require.NoError(t, err)

	results, err := reranker.Rerank(context.Background(), "alpha", []string{"page one", "page two"}, 5)
	require.NoError(t, err)

	assert.Equal(t, "rerank-multilingual-v3.0", gotReq.Model)
	assert.Equal(t, "alpha", gotReq.Query)
	assert.Equal(t, []string{"page one", "page two"}, gotReq.Documents)
	assert.Equal(t, 5, gotReq.TopN)

	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Index)
	assert.InDelta(t, 0.93, results[0].RelevanceScore, 1e-9)
}

func TestRerankEmptyCandidates(t *testing.T) {
	cfg := ai.NewConfig(
		ai.WithRerankHost("http://localhost:1"),
		ai.WithRerankModel("rerank-multilingual-v3.0"),
	)
	reranker, err := NewReranker(cfg, "")
	require.NoError(t, err)

	// No request must be issued for an empty candidate list.
	results, err := reranker.Rerank(context.Background(), "alpha", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRerankServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := ai.NewConfig(
		ai.WithRerankHost(srv.URL),
		ai.WithRerankModel("rerank-multilingual-v3.0"),
	)
	reranker, err := NewReranker(cfg, "")
	require.NoError(t, err)

	_, err = reranker.Rerank(context.Background(), "alpha", []string{"page"}, 5)
	assert.ErrorContains(t, err, "rerank request failed")
}
