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


// Package contentd wires the ingestion and retrieval pipeline together: a
// badger-backed vector store, an OpenAI-compatible embedder, an optional
// reranker, and the services built on top of them.
package contentd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/veridex/contentd/ai"
	"github.com/veridex/contentd/ai/cohere"
	"github.com/veridex/contentd/ai/openai"
	"github.com/veridex/contentd/chunker"
	"github.com/veridex/contentd/config"
	"github.com/veridex/contentd/downloader"
	"github.com/veridex/contentd/indexer"
	"github.com/veridex/contentd/loader"
	"github.com/veridex/contentd/reindex"
	"github.com/veridex/contentd/report"
	"github.com/veridex/contentd/search"
	"github.com/veridex/contentd/storage"
	"github.com/veridex/contentd/storage/badger"
)

// Service owns the storage backend and the AI clients, and builds the
// pipeline services that run on them.
type Service struct {
	cfg      *config.AppConfig
	backend  *badger.Backend
	store    *badger.Store
	embedder ai.Embedder
	reranker ai.Reranker
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	embedder ai.Embedder
	reranker ai.Reranker
	reporter report.Reporter
	logger   *slog.Logger
}

// WithEmbedder replaces the configured embedding client.
func WithEmbedder(embedder ai.Embedder) ServiceOption {
	return func(o *serviceOptions) {
		o.embedder = embedder
	}
}

// WithReranker replaces the configured reranking client.
func WithReranker(reranker ai.Reranker) ServiceOption {
	return func(o *serviceOptions) {
		o.reranker = reranker
	}
}

// WithReporter replaces the configured completion reporter.
func WithReporter(reporter report.Reporter) ServiceOption {
	return func(o *serviceOptions) {
		o.reporter = reporter
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// NewService opens the storage backend and connects the AI clients
// described by cfg.
func NewService(cfg *config.AppConfig, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	options := &serviceOptions{}
	for _, opt := range opts {
		opt(options)
	}

	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(cfg.Embedding.BaseURL),
		ai.WithEmbeddingModel(cfg.Embedding.Model),
		ai.WithEmbeddingBatchSize(cfg.Embedding.BatchSize),
		ai.WithRerankHost(cfg.Rerank.BaseURL),
		ai.WithRerankModel(cfg.Rerank.Model),
		ai.WithRerankThreshold(cfg.Rerank.Threshold),
		ai.WithRerankMaxDocs(cfg.Rerank.MaxDocs),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("ai configuration: %w", err)
	}

	embedder := options.embedder
	if embedder == nil {
		var err error
		embedder, err = openai.NewEmbedder(aiConfig)
		if err != nil {
			return nil, fmt.Errorf("creating embedder: %w", err)
		}
	}

	reranker := options.reranker
	if reranker == nil && cfg.Rerank.BaseURL != "" {
		var err error
		reranker, err = cohere.NewReranker(aiConfig, config.Secret(cfg.Rerank.APIKeyEnv))
		if err != nil {
			return nil, fmt.Errorf("creating reranker: %w", err)
		}
	}

	backend, err := badger.OpenBackend(cfg.Storage.Path, cfg.Storage.InMemory)
	if err != nil {
		return nil, fmt.Errorf("opening storage backend: %w", err)
	}

	store, err := badger.NewStore(backend, embedder, badger.WithLogger(logger))
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("creating vector store: %w", err)
	}

	return &Service{
		cfg:      cfg,
		backend:  backend,
		store:    store,
		embedder: embedder,
		reranker: reranker,
		logger:   logger,
	}, nil
}

// Close releases the store and the backend.
func (s *Service) Close() error {
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing vector store", "err", err)
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing storage backend", "err", err)
		return err
	}
	return nil
}

// Store exposes the vector store.
func (s *Service) Store() storage.VectorStore {
	return s.store
}

// NewOrchestrator builds the indexing orchestrator from the service
// configuration. reporter overrides from NewService apply; otherwise jobs
// report to the configured platform endpoint.
func (s *Service) NewOrchestrator(ctx context.Context, opts ...ServiceOption) (*indexer.Orchestrator, error) {
	options := &serviceOptions{}
	for _, opt := range opts {
		opt(options)
	}

	reporter := options.reporter
	if reporter == nil {
		reporter = report.NewClient(s.cfg.Platform.BaseURL, config.Secret(s.cfg.Platform.TokenEnv), nil)
	}

	var dl downloader.Downloader
	if s.cfg.ObjectStore.LocalDir != "" {
		dl = downloader.NewLocalDownloader(s.cfg.ObjectStore.LocalDir)
	} else {
		var err error
		dl, err = downloader.NewS3Downloader(ctx, downloader.S3Config{
			Endpoint:  s.cfg.ObjectStore.Endpoint,
			Region:    s.cfg.ObjectStore.Region,
			Bucket:    s.cfg.ObjectStore.Bucket,
			AccessKey: config.Secret(s.cfg.ObjectStore.AccessKeyEnv),
			SecretKey: config.Secret(s.cfg.ObjectStore.SecretKeyEnv),
		})
		if err != nil {
			return nil, fmt.Errorf("connecting object store: %w", err)
		}
	}

	ch, err := chunker.NewChunker(
		chunker.WithChunkSize(s.cfg.Chunker.ChunkSize),
		chunker.WithChunkOverlap(*s.cfg.Chunker.ChunkOverlap),
	)
	if err != nil {
		return nil, err
	}

	indexerOpts := []indexer.Option{
		indexer.WithLogger(s.logger),
		indexer.WithRecheckDelay(time.Duration(s.cfg.Indexer.RecheckDelaySecs) * time.Second),
	}
	if s.cfg.Indexer.PoolSize > 0 {
		indexerOpts = append(indexerOpts, indexer.WithPoolSize(s.cfg.Indexer.PoolSize))
	}
	if s.cfg.Indexer.ScratchDir != "" {
		indexerOpts = append(indexerOpts, indexer.WithScratchDir(s.cfg.Indexer.ScratchDir))
	}

	return indexer.NewOrchestrator(
		s.store,
		dl,
		loader.NewDefaultRegistry(s.cfg.Extractor.BaseURL),
		ch,
		reporter,
		indexerOpts...,
	)
}

// NewSearcher builds the retrieval service, with reranking when a reranker
// is configured.
func (s *Service) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	base := []search.Option{
		search.WithThreshold(s.cfg.Search.Threshold),
		search.WithLogger(s.logger),
	}
	if s.reranker != nil {
		base = append(base, search.WithReranker(s.reranker, s.cfg.Rerank.Threshold, s.cfg.Rerank.MaxDocs))
	}
	return search.NewSearcher(s.store, append(base, opts...)...)
}

// NewReindexer builds the re-embedding service.
func (s *Service) NewReindexer(cfg *reindex.Config, progress io.Writer) (*reindex.Reindexer, error) {
	return reindex.NewReindexer(s.store, cfg, progress)
}
