package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 75, cfg.Chunker.ChunkSize)
	require.NotNil(t, cfg.Chunker.ChunkOverlap)
	assert.Equal(t, 25, *cfg.Chunker.ChunkOverlap)
	assert.Equal(t, float32(0.5), cfg.Search.Threshold)
	assert.Equal(t, 0.75, cfg.Rerank.Threshold)
	assert.Equal(t, 5, cfg.Rerank.MaxDocs)
	assert.Equal(t, 5, cfg.Indexer.RecheckDelaySecs)
}

func TestLoadAppliesFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
embedding:
  base_url: "http://embedder:9000"
  model: "text-embedding-3-small"
rerank:
  base_url: "http://reranker:9001"
  threshold: 0.6
chunker:
  chunk_size: 120
object_store:
  bucket: "content"
  local_dir: ""
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "http://embedder:9000", cfg.Embedding.BaseURL)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, 0.6, cfg.Rerank.Threshold)
	assert.Equal(t, 120, cfg.Chunker.ChunkSize)
	// Unset fields still pick up defaults.
	require.NotNil(t, cfg.Chunker.ChunkOverlap)
	assert.Equal(t, 25, *cfg.Chunker.ChunkOverlap)
	assert.Equal(t, "content", cfg.ObjectStore.Bucket)
}

func TestLoadKeepsExplicitZeroChunkOverlap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chunker:
  chunk_size: 50
  chunk_overlap: 0
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Zero means no overlap, not "use the default".
	require.NotNil(t, cfg.Chunker.ChunkOverlap)
	assert.Equal(t, 0, *cfg.Chunker.ChunkOverlap)
	assert.Equal(t, 50, cfg.Chunker.ChunkSize)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a mapping"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSecret(t *testing.T) {
	t.Setenv("CONTENTD_TEST_SECRET", "hunter2")

	assert.Equal(t, "hunter2", Secret("CONTENTD_TEST_SECRET"))
	assert.Empty(t, Secret(""))
	assert.Empty(t, Secret("CONTENTD_TEST_SECRET_UNSET"))
}
