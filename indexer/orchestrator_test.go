package indexer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridex/contentd/ai/mock"
	"github.com/veridex/contentd/chunker"
	"github.com/veridex/contentd/core"
	"github.com/veridex/contentd/downloader"
	"github.com/veridex/contentd/loader"
	"github.com/veridex/contentd/storage"
	"github.com/veridex/contentd/storage/badger"
)

const (
	testContentBase = "4f8a4f04-93d4-4e27-a6c3-61fa2c6a1b1d"
	testFileID      = "9a6e1cf0-5f2d-4db5-8df6-0c3a9e0a51b2"
	testTaskID      = "5b2f7a9e-4c1d-4f3e-9a8b-7c6d5e4f3a2b"
)

// captureReporter records every completion report it receives.
type captureReporter struct {
	mu        sync.Mutex
	jobs      []core.IndexJob
	successes []bool
	notify    chan struct{}
}

func newCaptureReporter() *captureReporter {
	return &captureReporter{notify: make(chan struct{}, 16)}
}

func (r *captureReporter) Report(ctx context.Context, job core.IndexJob, success bool) error {
	r.mu.Lock()
	r.jobs = append(r.jobs, job)
	r.successes = append(r.successes, success)
	r.mu.Unlock()
	r.notify <- struct{}{}
	return nil
}

func (r *captureReporter) last(t *testing.T) (core.IndexJob, bool) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.jobs) == 0 {
		t.Fatal("no report captured")
	}
	return r.jobs[len(r.jobs)-1], r.successes[len(r.successes)-1]
}

type fixture struct {
	orch     *Orchestrator
	store    *badger.Store
	reporter *captureReporter
	baseDir  string
}

func newFixture(t *testing.T, opts ...Option) *fixture {
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
	reporter := newCaptureReporter()

	opts = append([]Option{
		WithScratchDir(t.TempDir()),
		WithRecheckDelay(0),
	}, opts...)

	orch, err := NewOrchestrator(
		store,
		downloader.NewLocalDownloader(baseDir),
		loader.NewDefaultRegistry(""),
		ch,
		reporter,
		opts...,
	)
	require.NoError(t, err)
	t.Cleanup(orch.Release)

	return &fixture{orch: orch, store: store, reporter: reporter, baseDir: baseDir}
}

func fileJob(key string) core.IndexJob {
	return core.IndexJob{
		TaskID:        testTaskID,
		ContentBaseID: testContentBase,
		FileID:        testFileID,
		Filename:      filepath.Base(key),
		Extension:     "txt",
		Source:        key,
		Kind:          core.SourceKindFile,
	}
}

func TestProcessFileJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	content := "Alpha Beta Gamma.\nDelta Epsilon Zeta."
	require.NoError(t, os.WriteFile(filepath.Join(f.baseDir, "handbook.txt"), []byte(content), 0o644))

	require.NoError(t, f.orch.Process(ctx, fileJob("handbook.txt")))

	job, success := f.reporter.last(t)
	assert.True(t, success)
	assert.Equal(t, testTaskID, job.TaskID)

	hits, err := f.store.QueryByMetadata(ctx, storage.MetadataFilter{
		ContentBaseID: testContentBase,
		FileID:        testFileID,
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	// Content is stored lower-cased.
	assert.Equal(t, "handbook.txt", hits[0].Metadata.Filename)
	assert.Contains(t, hits[0].Metadata.FullPage, "alpha beta gamma")

	full, err := f.store.SearchFullDocument(ctx, testFileID, testContentBase)
	require.NoError(t, err)
	assert.Contains(t, full, "delta epsilon zeta")
}

func TestProcessTextJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := core.IndexJob{
		TaskID:        testTaskID,
		ContentBaseID: testContentBase,
		FileID:        testFileID,
		Extension:     "txt",
		Source:        "Inline Snippet About Compaction",
		Kind:          core.SourceKindText,
	}
	require.NoError(t, f.orch.Process(ctx, job))

	_, success := f.reporter.last(t)
	assert.True(t, success)

	hits, err := f.store.QueryByMetadata(ctx, storage.MetadataFilter{
		ContentBaseID: testContentBase,
		FileID:        testFileID,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "inline snippet about compaction", hits[0].Metadata.FullPage)
}

func TestProcessTextJobStoresPageWhole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Far longer than one chunk; a file source would be split, raw text
	// must land as a single chunk.
	long := strings.TrimSpace(strings.Repeat("Verbose Inline Text ", 80))

	job := core.IndexJob{
		TaskID:        testTaskID,
		ContentBaseID: testContentBase,
		FileID:        testFileID,
		Extension:     "txt",
		Source:        long,
		Kind:          core.SourceKindText,
	}
	require.NoError(t, f.orch.Process(ctx, job))

	hits, err := f.store.QueryByMetadata(ctx, storage.MetadataFilter{
		ContentBaseID: testContentBase,
		FileID:        testFileID,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, strings.ToLower(long), hits[0].Metadata.FullPage)
}

func TestProcessReindexReplaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	path := filepath.Join(f.baseDir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("first version of the notes"), 0o644))
	require.NoError(t, f.orch.Process(ctx, fileJob("notes.txt")))

	require.NoError(t, os.WriteFile(path, []byte("second version of the notes"), 0o644))
	require.NoError(t, f.orch.Process(ctx, fileJob("notes.txt")))

	hits, err := f.store.QueryByMetadata(ctx, storage.MetadataFilter{
		ContentBaseID: testContentBase,
		FileID:        testFileID,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "second version of the notes", hits[0].Metadata.FullPage)
}

func TestProcessDownloadFailureReported(t *testing.T) {
	f := newFixture(t)

	err := f.orch.Process(context.Background(), fileJob("missing.txt"))
	require.ErrorIs(t, err, downloader.ErrNotFound)

	_, success := f.reporter.last(t)
	assert.False(t, success)
}

func TestProcessEmptyDocumentReported(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, os.WriteFile(filepath.Join(f.baseDir, "empty.txt"), []byte("  \n"), 0o644))
	err := f.orch.Process(context.Background(), fileJob("empty.txt"))
	require.Error(t, err)

	_, success := f.reporter.last(t)
	assert.False(t, success)
}

func TestDispatchRejectsInvalidJob(t *testing.T) {
	f := newFixture(t)

	job := fileJob("handbook.txt")
	job.ContentBaseID = "not-a-uuid"
	err := f.orch.Dispatch(context.Background(), job)
	assert.ErrorIs(t, err, core.ErrInvalidJob)

	// Nothing was reported for a rejected job.
	select {
	case <-f.reporter.notify:
		t.Fatal("unexpected report for rejected job")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDispatchRunsAsync(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, os.WriteFile(filepath.Join(f.baseDir, "async.txt"), []byte("async job content"), 0o644))
	require.NoError(t, f.orch.Dispatch(context.Background(), fileJob("async.txt")))

	select {
	case <-f.reporter.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for async job to report")
	}

	_, success := f.reporter.last(t)
	assert.True(t, success)
}

// laggingStore hides chunks from the first visibility check.
type laggingStore struct {
	storage.VectorStore
	mu     sync.Mutex
	checks int
}

func (s *laggingStore) IsEmbedded(ctx context.Context, fileID, contentBaseID string) (bool, error) {
	s.mu.Lock()
	s.checks++
	first := s.checks == 1
	s.mu.Unlock()
	if first {
		return false, nil
	}
	return s.VectorStore.IsEmbedded(ctx, fileID, contentBaseID)
}

func TestVerifyRechecksOnce(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	store, backend, err := badger.NewMemoryStore(embedder)
	require.NoError(t, err)
	defer func() {
		store.Close()
		backend.Close()
	}()

	lagging := &laggingStore{VectorStore: store}

	ch, err := chunker.NewChunker()
	require.NoError(t, err)

	baseDir := t.TempDir()
	reporter := newCaptureReporter()
	orch, err := NewOrchestrator(
		lagging,
		downloader.NewLocalDownloader(baseDir),
		loader.NewDefaultRegistry(""),
		ch,
		reporter,
		WithScratchDir(t.TempDir()),
		WithRecheckDelay(time.Millisecond),
	)
	require.NoError(t, err)
	defer orch.Release()

	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "lagging.txt"), []byte("eventually visible"), 0o644))
	require.NoError(t, orch.Process(context.Background(), fileJob("lagging.txt")))

	_, success := reporter.last(t)
	assert.True(t, success)
	assert.Equal(t, 2, lagging.checks)
}

func TestNewOrchestratorValidation(t *testing.T) {
	ch, err := chunker.NewChunker()
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	store, backend, err := badger.NewMemoryStore(embedder)
	require.NoError(t, err)
	defer func() {
		store.Close()
		backend.Close()
	}()

	dl := downloader.NewLocalDownloader(t.TempDir())
	reg := loader.NewDefaultRegistry("")
	rep := newCaptureReporter()

	_, err = NewOrchestrator(nil, dl, reg, ch, rep)
	assert.ErrorIs(t, err, ErrStoreRequired)
	_, err = NewOrchestrator(store, nil, reg, ch, rep)
	assert.ErrorIs(t, err, ErrDownloaderRequired)
	_, err = NewOrchestrator(store, dl, nil, ch, rep)
	assert.ErrorIs(t, err, ErrLoadersRequired)
	_, err = NewOrchestrator(store, dl, reg, nil, rep)
	assert.ErrorIs(t, err, ErrChunkerRequired)
	_, err = NewOrchestrator(store, dl, reg, ch, nil)
	assert.ErrorIs(t, err, ErrReporterRequired)
}
