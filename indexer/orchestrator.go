package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/veridex/contentd/chunker"
	"github.com/veridex/contentd/core"
	"github.com/veridex/contentd/downloader"
	"github.com/veridex/contentd/loader"
	"github.com/veridex/contentd/report"
	"github.com/veridex/contentd/storage"
)

// Orchestrator runs indexing jobs end to end. Dispatch hands a job to the
// worker pool and returns immediately; the outcome reaches the platform
// through the reporter.
type Orchestrator struct {
	store        storage.VectorStore
	downloader   downloader.Downloader
	loaders      *loader.Registry
	chunker      *chunker.Chunker
	reporter     report.Reporter
	pool         *ants.Pool
	scratchDir   string
	recheckDelay time.Duration
	logger       *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithPoolSize sets the worker pool size for concurrent jobs.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(o *Orchestrator) error {
		if size < 1 {
			size = 1
		}

		if o.pool != nil {
			o.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		o.pool = pool
		return nil
	}
}

// WithScratchDir sets the directory for downloaded files.
// Default is the system temp directory.
func WithScratchDir(dir string) Option {
	return func(o *Orchestrator) error {
		o.scratchDir = dir
		return nil
	}
}

// WithRecheckDelay sets how long to wait before the single visibility
// re-check when saved chunks are not yet searchable. Default is 5 seconds.
func WithRecheckDelay(d time.Duration) Option {
	return func(o *Orchestrator) error {
		if d < 0 {
			return fmt.Errorf("recheck delay must not be negative, got %v", d)
		}
		o.recheckDelay = d
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates an indexing orchestrator.
func NewOrchestrator(
	store storage.VectorStore,
	dl downloader.Downloader,
	loaders *loader.Registry,
	ch *chunker.Chunker,
	reporter report.Reporter,
	opts ...Option,
) (*Orchestrator, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if dl == nil {
		return nil, ErrDownloaderRequired
	}
	if loaders == nil {
		return nil, ErrLoadersRequired
	}
	if ch == nil {
		return nil, ErrChunkerRequired
	}
	if reporter == nil {
		return nil, ErrReporterRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		store:        store,
		downloader:   dl,
		loaders:      loaders,
		chunker:      ch,
		reporter:     reporter,
		pool:         pool,
		scratchDir:   os.TempDir(),
		recheckDelay: 5 * time.Second,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(o); optErr != nil {
			o.Release()
			return nil, optErr
		}
	}

	return o, nil
}

// Dispatch validates the job and submits it to the worker pool. Validation
// errors are returned to the caller; everything after dispatch is reported
// through the reporter, never returned.
func (o *Orchestrator) Dispatch(ctx context.Context, job core.IndexJob) error {
	if err := core.ValidateIndexJob(&job); err != nil {
		return err
	}

	return o.pool.Submit(func() {
		// The dispatching request's context is gone by the time the
		// job runs.
		o.run(context.Background(), job)
	})
}

// Process runs a job synchronously and returns its error. The outcome is
// still reported. Used by the CLI surface; servers should prefer Dispatch.
func (o *Orchestrator) Process(ctx context.Context, job core.IndexJob) error {
	if err := core.ValidateIndexJob(&job); err != nil {
		return err
	}
	return o.run(ctx, job)
}

// run executes the state machine for one job and reports the outcome.
func (o *Orchestrator) run(ctx context.Context, job core.IndexJob) error {
	logger := o.logger.With("task", job.TaskID, "file", job.FileID)

	err := o.index(ctx, logger, job)
	if err != nil {
		logger.Error("indexing failed", "err", err)
	}

	if reportErr := o.reporter.Report(ctx, job, err == nil); reportErr != nil {
		logger.Error("error delivering completion report", "err", reportErr)
		if err == nil {
			err = reportErr
		}
	} else {
		logger.Debug("state transition", "state", core.StateReported)
	}

	return err
}

func (o *Orchestrator) index(ctx context.Context, logger *slog.Logger, job core.IndexJob) error {
	pages, err := o.extract(ctx, logger, job)
	if err != nil {
		return err
	}
	logger.Debug("state transition", "state", core.StateExtracted, "pages", len(pages))

	chunks := o.chunk(job, pages)
	if len(chunks) == 0 {
		return fmt.Errorf("%w: %s", ErrNoChunks, job.Filename)
	}
	logger.Debug("state transition", "state", core.StateChunked, "chunks", len(chunks))

	// Replace, never append: re-indexing the same file must not leave
	// stale chunks behind.
	if _, err := o.store.ReplaceChunkSet(ctx, job.ContentBaseID, job.FileID, chunks); err != nil {
		return fmt.Errorf("replacing chunk set: %w", err)
	}
	logger.Debug("state transition", "state", core.StateSaved)

	doc := core.FullDocument{
		ContentBaseID: job.ContentBaseID,
		FileID:        job.FileID,
		Filename:      job.Filename,
		Content:       strings.Join(pages, "\n"),
	}
	if err := o.store.SaveFullDocument(ctx, doc); err != nil {
		return fmt.Errorf("saving full document: %w", err)
	}
	logger.Debug("state transition", "state", core.StateFullTextSaved)

	if err := o.verify(ctx, job); err != nil {
		return err
	}
	logger.Debug("state transition", "state", core.StateVerified)

	return nil
}

// extract produces lower-cased page text for the job's source.
func (o *Orchestrator) extract(ctx context.Context, logger *slog.Logger, job core.IndexJob) ([]string, error) {
	var (
		pages []string
		err   error
	)

	switch job.Kind {
	case core.SourceKindText:
		// The source field carries the text itself.
		pages = []string{job.Source}

	case core.SourceKindURL:
		var l loader.Loader
		if l, err = o.loaders.Get("urls"); err != nil {
			return nil, err
		}
		pages, err = l.Load(ctx, job.Source)

	default:
		var path string
		path, err = o.downloader.Download(ctx, job.Source, o.scratchDir)
		if err != nil {
			return nil, fmt.Errorf("downloading %s: %w", job.Source, err)
		}
		defer os.Remove(path)
		logger.Debug("state transition", "state", core.StateDownloaded)

		var l loader.Loader
		if l, err = o.loaders.Get(job.Extension); err != nil {
			return nil, err
		}
		pages, err = l.Load(ctx, path)
	}

	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", job.Filename, err)
	}

	// Content is stored lower-cased; queries are lowered to match.
	for i := range pages {
		pages[i] = strings.ToLower(pages[i])
	}
	return pages, nil
}

// chunk splits every page and attaches the job's metadata. The originating
// page text rides along on each chunk for result deduplication. Raw-text
// sources arrive pre-sized from the platform and are stored page-as-chunk,
// bypassing the splitter.
func (o *Orchestrator) chunk(job core.IndexJob, pages []string) []*core.Chunk {
	var chunks []*core.Chunk
	for _, page := range pages {
		contents := o.chunker.Split(page)
		if job.Kind == core.SourceKindText && strings.TrimSpace(page) != "" {
			contents = []string{page}
		}
		for _, content := range contents {
			chunks = append(chunks, &core.Chunk{
				Content: content,
				Metadata: core.ChunkMetadata{
					ContentBaseID: job.ContentBaseID,
					FileID:        job.FileID,
					Filename:      job.Filename,
					FullPage:      page,
				},
			})
		}
	}
	return chunks
}

// verify confirms the saved chunks are visible to search. A freshly saved
// set can lag behind; wait once for the configured delay and check again
// before declaring failure.
func (o *Orchestrator) verify(ctx context.Context, job core.IndexJob) error {
	embedded, err := o.store.IsEmbedded(ctx, job.FileID, job.ContentBaseID)
	if err != nil {
		return fmt.Errorf("checking visibility: %w", err)
	}
	if embedded {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(o.recheckDelay):
	}

	embedded, err = o.store.IsEmbedded(ctx, job.FileID, job.ContentBaseID)
	if err != nil {
		return fmt.Errorf("re-checking visibility: %w", err)
	}
	if !embedded {
		return fmt.Errorf("%w: file %s in content base %s", ErrNotVisible, job.FileID, job.ContentBaseID)
	}
	return nil
}

// Release releases the worker pool. The orchestrator should not be used
// after calling Release.
func (o *Orchestrator) Release() {
	if o.pool != nil {
		o.pool.Release()
	}
}
