package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/veridex/contentd/ai"
)

const defaultTimeout = 30 * time.Second

// Reranker implements ai.Reranker against the Cohere rerank REST API
// (or any service exposing the same /v2/rerank contract).
type Reranker struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

var _ ai.Reranker = (*Reranker)(nil)

// NewReranker creates a rerank client from the shared AI configuration.
// The API key is passed explicitly so the caller owns credential sourcing.
func NewReranker(config *ai.Config, apiKey string) (*Reranker, error) {
	if config.RerankHost == "" {
		return nil, fmt.Errorf("rerank host required")
	}
	if config.RerankModel == "" {
		return nil, fmt.Errorf("rerank model required")
	}
	return &Reranker{
		baseURL: config.RerankHost,
		apiKey:  apiKey,
		model:   config.RerankModel,
		client:  &http.Client{Timeout: defaultTimeout},
	}, nil
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n,omitempty"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank scores the candidate documents against the query. Results come
// back ordered by descending relevance, truncated to topN when positive.
func (r *Reranker) Rerank(ctx context.Context, query string, documents []string, topN int) ([]ai.RerankResult, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v2/rerank", r.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("rerank request failed: %s: %s", resp.Status, payload)
	}

	var out rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}

	results := make([]ai.RerankResult, len(out.Results))
	for i, res := range out.Results {
		results[i] = ai.RerankResult{
			Index:          res.Index,
			RelevanceScore: res.RelevanceScore,
		}
	}
	return results, nil
}
