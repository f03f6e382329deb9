// Copyright 2025 Veridex Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for the embedding and rerank providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server
	EmbeddingHost string

	// EmbeddingModel is the model identifier used for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// EmbeddingBatchSize is how many texts are grouped per embedding request.
	// Default: 32
	EmbeddingBatchSize int

	// RerankHost is the base URL of the rerank service API. Empty disables
	// reranking; search results are then returned in similarity order.
	RerankHost string

	// RerankModel is the rerank model identifier.
	// Example: "rerank-multilingual-v3.0"
	RerankModel string

	// RerankThreshold is the minimum relevance score a reranked candidate
	// must exceed to be kept. Default: 0.75
	RerankThreshold float64

	// RerankMaxDocs caps how many reranked results are returned. Default: 5
	RerankMaxDocs int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithEmbeddingBatchSize sets how many texts are embedded per request.
func WithEmbeddingBatchSize(size int) ConfigOption {
	return func(c *Config) {
		c.EmbeddingBatchSize = size
	}
}

// WithRerankHost sets the rerank service host URL.
func WithRerankHost(host string) ConfigOption {
	return func(c *Config) {
		c.RerankHost = host
	}
}

// WithRerankModel sets the rerank model identifier.
func WithRerankModel(model string) ConfigOption {
	return func(c *Config) {
		c.RerankModel = model
	}
}

// WithRerankThreshold sets the minimum relevance score for reranked results.
func WithRerankThreshold(threshold float64) ConfigOption {
	return func(c *Config) {
		c.RerankThreshold = threshold
	}
}

// WithRerankMaxDocs caps the reranked result count.
func WithRerankMaxDocs(max int) ConfigOption {
	return func(c *Config) {
		c.RerankMaxDocs = max
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services and reranking disabled.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:      "http://localhost:11434/v1",
		EmbeddingModel:     "embeddinggemma",
		EmbeddingBatchSize: 32,
		RerankModel:        "rerank-multilingual-v3.0",
		RerankThreshold:    0.75,
		RerankMaxDocs:      5,
	}
}

// NewConfig creates a Config with the default values and applies the
// provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the embedding host is in a canonical form. Most
// OpenAI-compatible APIs (Ollama, LocalAI, vLLM) require the /v1 suffix.
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.EmbeddingBatchSize < 1 {
		return errors.New("ai config: EmbeddingBatchSize must be positive")
	}
	if c.RerankHost != "" {
		if c.RerankModel == "" {
			return errors.New("ai config: RerankModel is required when reranking is enabled")
		}
		if c.RerankMaxDocs < 1 {
			return errors.New("ai config: RerankMaxDocs must be positive")
		}
	}
	return nil
}
