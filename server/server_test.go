package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridex/contentd/ai/mock"
	"github.com/veridex/contentd/chunker"
	"github.com/veridex/contentd/core"
	"github.com/veridex/contentd/downloader"
	"github.com/veridex/contentd/indexer"
	"github.com/veridex/contentd/loader"
	"github.com/veridex/contentd/search"
	"github.com/veridex/contentd/storage"
	"github.com/veridex/contentd/storage/badger"
)

const (
	testContentBase = "4f8a4f04-93d4-4e27-a6c3-61fa2c6a1b1d"
	testFileID      = "9a6e1cf0-5f2d-4db5-8df6-0c3a9e0a51b2"
	testToken       = "shared-secret"
)

type recordingReporter struct {
	done chan bool
}

func (r *recordingReporter) Report(ctx context.Context, job core.IndexJob, success bool) error {
	r.done <- success
	return nil
}

type env struct {
	handler  http.Handler
	store    *badger.Store
	embedder *mock.MockEmbedder
	reporter *recordingReporter
	baseDir  string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	embedder := mock.NewMockEmbedder()
	store, backend, err := badger.NewMemoryStore(embedder)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
		backend.Close()
	})

	ch, err := chunker.NewChunker()
	require.NoError(t, err)

	baseDir := t.TempDir()
	reporter := &recordingReporter{done: make(chan bool, 8)}

	orch, err := indexer.NewOrchestrator(
		store,
		downloader.NewLocalDownloader(baseDir),
		loader.NewDefaultRegistry(""),
		ch,
		reporter,
		indexer.WithScratchDir(t.TempDir()),
		indexer.WithRecheckDelay(0),
	)
	require.NoError(t, err)
	t.Cleanup(orch.Release)

	searcher, err := search.NewSearcher(store)
	require.NoError(t, err)

	srv, err := NewServer(orch, searcher, testToken, nil)
	require.NoError(t, err)

	return &env{
		handler:  srv.Handler(),
		store:    store,
		embedder: embedder,
		reporter: reporter,
		baseDir:  baseDir,
	}
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *env) awaitReport(t *testing.T) bool {
	t.Helper()
	select {
	case success := <-e.reporter.done:
		return success
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job report")
		return false
	}
}

func TestAuthRequired(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/search", "", searchRequest{ContentBaseUUID: testContentBase, Query: "q"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodPost, "/search", "wrong-token", searchRequest{ContentBaseUUID: testContentBase, Query: "q"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Health stays open.
	rec = e.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIndexAcceptsJob(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(e.baseDir, "handbook.txt"), []byte("Alpha Beta Gamma"), 0o644))

	rec := e.do(t, http.MethodPut, "/index", testToken, indexRequest{
		ContentBaseUUID: testContentBase,
		FileUUID:        testFileID,
		Filename:        "handbook.txt",
		Extension:       "txt",
		Source:          "handbook.txt",
		Kind:            "file",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp indexResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	// A task id is generated when the caller supplies none.
	_, err := uuid.Parse(resp.TaskUUID)
	assert.NoError(t, err)

	assert.True(t, e.awaitReport(t))

	hits, err := e.store.QueryByMetadata(context.Background(), storage.MetadataFilter{
		ContentBaseID: testContentBase,
		FileID:        testFileID,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, hits)
}

func TestIndexRejectsInvalidJob(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPut, "/index", testToken, indexRequest{
		ContentBaseUUID: "not-a-uuid",
		FileUUID:        testFileID,
		Filename:        "handbook.txt",
		Extension:       "txt",
		Source:          "handbook.txt",
		Kind:            "file",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPut, "/index", testToken, indexRequest{
		ContentBaseUUID: testContentBase,
		FileUUID:        testFileID,
		Filename:        "handbook.zip",
		Extension:       "zip",
		Source:          "handbook.zip",
		Kind:            "file",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPut, "/index", testToken, indexRequest{
		ContentBaseUUID: testContentBase,
		FileUUID:        testFileID,
		Kind:            "carrier-pigeon",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEndpoint(t *testing.T) {
	e := newEnv(t)

	_, err := e.store.SaveChunks(context.Background(), []*core.Chunk{{
		Content: "background compaction merges tables",
		Metadata: core.ChunkMetadata{
			ContentBaseID: testContentBase,
			FileID:        testFileID,
			Filename:      "handbook.txt",
			FullPage:      "background compaction merges tables",
		},
	}})
	require.NoError(t, err)

	// Same text embeds to the same vector, so the query matches exactly.
	rec := e.do(t, http.MethodPost, "/search", testToken, searchRequest{
		ContentBaseUUID: testContentBase,
		Query:           "background compaction merges tables",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, testFileID, resp.Results[0].FileUUID)
	assert.Equal(t, "handbook.txt", resp.Results[0].Filename)
	assert.Greater(t, resp.Results[0].Score, float32(0.5))
}

func TestSearchEndpointPerRequestThreshold(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	scores := map[string]float32{"strong match": 0.9, "weak match": 0.6}
	e.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = []float32{scores[text], 0}
		}
		return out, nil
	}
	e.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}

	for content, page := range map[string]string{"strong match": "strong page", "weak match": "weak page"} {
		_, err := e.store.SaveChunks(ctx, []*core.Chunk{{
			Content: content,
			Metadata: core.ChunkMetadata{
				ContentBaseID: testContentBase,
				FileID:        testFileID,
				Filename:      "handbook.txt",
				FullPage:      page,
			},
		}})
		require.NoError(t, err)
	}

	// The configured default threshold keeps both matches.
	rec := e.do(t, http.MethodPost, "/search", testToken, searchRequest{
		ContentBaseUUID: testContentBase,
		Query:           "query",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp searchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Results, 2)

	// A tighter threshold in the request body drops the weak match.
	tight := float32(0.8)
	rec = e.do(t, http.MethodPost, "/search", testToken, searchRequest{
		ContentBaseUUID: testContentBase,
		Query:           "query",
		Threshold:       &tight,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = searchResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "strong page", resp.Results[0].FullPage)

	outOfRange := float32(1.5)
	rec = e.do(t, http.MethodPost, "/search", testToken, searchRequest{
		ContentBaseUUID: testContentBase,
		Query:           "query",
		Threshold:       &outOfRange,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchRejectsBadRequests(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/search", testToken, searchRequest{ContentBaseUUID: "nope", Query: "q"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/search", testToken, searchRequest{ContentBaseUUID: testContentBase, Query: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteEndpoint(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.store.SaveChunks(ctx, []*core.Chunk{{
		Content: "to be removed",
		Metadata: core.ChunkMetadata{
			ContentBaseID: testContentBase,
			FileID:        testFileID,
			Filename:      "handbook.txt",
			FullPage:      "to be removed",
		},
	}})
	require.NoError(t, err)

	rec := e.do(t, http.MethodDelete, fmt.Sprintf("/content/%s/%s", testContentBase, testFileID), testToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	hits, err := e.store.QueryByMetadata(ctx, storage.MetadataFilter{
		ContentBaseID: testContentBase,
		FileID:        testFileID,
	})
	require.NoError(t, err)
	assert.Empty(t, hits)

	rec = e.do(t, http.MethodDelete, "/content/bad-uuid/"+testFileID, testToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteEndpointFilenameFilter(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.store.SaveChunks(ctx, []*core.Chunk{{
		Content: "still here",
		Metadata: core.ChunkMetadata{
			ContentBaseID: testContentBase,
			FileID:        testFileID,
			Filename:      "handbook.txt",
			FullPage:      "still here",
		},
	}})
	require.NoError(t, err)

	path := fmt.Sprintf("/content/%s/%s", testContentBase, testFileID)
	filter := storage.MetadataFilter{ContentBaseID: testContentBase, FileID: testFileID}

	// A mismatched filename deletes nothing.
	rec := e.do(t, http.MethodDelete, path+"?filename=other.txt", testToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	hits, err := e.store.QueryByMetadata(ctx, filter)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	rec = e.do(t, http.MethodDelete, path+"?filename=handbook.txt", testToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	hits, err = e.store.QueryByMetadata(ctx, filter)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestFullDocumentEndpoint(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	path := fmt.Sprintf("/content/%s/%s", testContentBase, testFileID)
	rec := e.do(t, http.MethodGet, path, testToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, e.store.SaveFullDocument(ctx, core.FullDocument{
		ContentBaseID: testContentBase,
		FileID:        testFileID,
		Filename:      "handbook.txt",
		Content:       "the full text",
	}))

	rec = e.do(t, http.MethodGet, path, testToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp fullDocumentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "the full text", resp.Content)
}
