// Package config loads the process configuration from a YAML file with
// environment-variable indirection for secrets: the file names the variable
// holding each credential, never the credential itself.
package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	AuthTokenEnv string `yaml:"auth_token_env"`
}

// StorageConfig configures the vector store backend.
type StorageConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// EmbeddingConfig configures the OpenAI-compatible embedding endpoint.
type EmbeddingConfig struct {
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
}

// RerankConfig configures the reranking endpoint. An empty base URL
// disables reranking.
type RerankConfig struct {
	BaseURL   string  `yaml:"base_url"`
	Model     string  `yaml:"model"`
	Threshold float64 `yaml:"threshold"`
	MaxDocs   int     `yaml:"max_docs"`
	APIKeyEnv string  `yaml:"api_key_env"`
}

// SearchConfig configures the retrieval stage.
type SearchConfig struct {
	Threshold float32 `yaml:"threshold"`
}

// ChunkerConfig configures document chunking. ChunkOverlap is a pointer so
// an explicit zero, a legitimate no-overlap setting, is distinguishable
// from an absent key.
type ChunkerConfig struct {
	ChunkSize    int  `yaml:"chunk_size"`
	ChunkOverlap *int `yaml:"chunk_overlap"`
}

// ObjectStoreConfig configures the S3-compatible source of job files.
type ObjectStoreConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Region       string `yaml:"region"`
	Bucket       string `yaml:"bucket"`
	AccessKeyEnv string `yaml:"access_key_env"`
	SecretKeyEnv string `yaml:"secret_key_env"`
	// LocalDir serves objects from a directory instead of S3 when set.
	LocalDir string `yaml:"local_dir"`
}

// PlatformConfig configures the upstream platform receiving completion
// callbacks.
type PlatformConfig struct {
	BaseURL  string `yaml:"base_url"`
	TokenEnv string `yaml:"token_env"`
}

// ExtractorConfig configures the external binary-format extraction service.
// An empty base URL leaves office formats unsupported.
type ExtractorConfig struct {
	BaseURL string `yaml:"base_url"`
}

// IndexerConfig configures the indexing orchestrator.
type IndexerConfig struct {
	PoolSize         int    `yaml:"pool_size"`
	RecheckDelaySecs int    `yaml:"recheck_delay_secs"`
	ScratchDir       string `yaml:"scratch_dir"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Rerank      RerankConfig      `yaml:"rerank"`
	Search      SearchConfig      `yaml:"search"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	ObjectStore ObjectStoreConfig `yaml:"object_store"`
	Platform    PlatformConfig    `yaml:"platform"`
	Extractor   ExtractorConfig   `yaml:"extractor"`
	Indexer     IndexerConfig     `yaml:"indexer"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Secret resolves an env-indirected credential. An empty variable name
// yields an empty credential.
func Secret(envName string) string {
	if envName == "" {
		return ""
	}
	return os.Getenv(envName)
}

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.AuthTokenEnv == "" {
		cfg.Server.AuthTokenEnv = "CONTENTD_AUTH_TOKEN"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "contentd.db"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "nomic-embed-text"
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 32
	}
	if cfg.Rerank.Model == "" {
		cfg.Rerank.Model = "rerank-multilingual-v3.0"
	}
	if cfg.Rerank.Threshold == 0 {
		cfg.Rerank.Threshold = 0.75
	}
	if cfg.Rerank.MaxDocs == 0 {
		cfg.Rerank.MaxDocs = 5
	}
	if cfg.Rerank.APIKeyEnv == "" {
		cfg.Rerank.APIKeyEnv = "RERANK_API_KEY"
	}
	if cfg.Search.Threshold == 0 {
		cfg.Search.Threshold = 0.5
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 75
	}
	if cfg.Chunker.ChunkOverlap == nil {
		overlap := 25
		cfg.Chunker.ChunkOverlap = &overlap
	}
	if cfg.ObjectStore.Region == "" {
		cfg.ObjectStore.Region = "us-east-1"
	}
	if cfg.ObjectStore.AccessKeyEnv == "" {
		cfg.ObjectStore.AccessKeyEnv = "S3_ACCESS_KEY"
	}
	if cfg.ObjectStore.SecretKeyEnv == "" {
		cfg.ObjectStore.SecretKeyEnv = "S3_SECRET_KEY"
	}
	if cfg.Platform.TokenEnv == "" {
		cfg.Platform.TokenEnv = "PLATFORM_TOKEN"
	}
	if cfg.Indexer.RecheckDelaySecs == 0 {
		cfg.Indexer.RecheckDelaySecs = 5
	}
}
