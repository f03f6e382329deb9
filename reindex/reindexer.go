package reindex

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/veridex/contentd/core"
	"github.com/veridex/contentd/storage"
)

// Config holds configuration for the re-embedding operation.
type Config struct {
	// BatchSize is the number of chunks re-embedded per store call
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reindexer re-embeds every chunk of a content base against the store's
// current embedder.
type Reindexer struct {
	store    storage.VectorStore
	config   *Config
	progress io.Writer
}

// NewReindexer creates a reindexer.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(store storage.VectorStore, config *Config, progress io.Writer) (*Reindexer, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reindexer{
		store:    store,
		config:   config,
		progress: progress,
	}, nil
}

// Run re-embeds every chunk stored for the content base. Each batch is
// retried with exponential backoff before the run fails.
func (r *Reindexer) Run(ctx context.Context, contentBaseID string) error {
	ids, err := r.collectIDs(ctx, contentBaseID)
	if err != nil {
		return fmt.Errorf("failed to enumerate chunks: %w", err)
	}

	total := len(ids)
	if total == 0 {
		fmt.Fprintf(r.progress, "No chunks found for content base %s\n", contentBaseID)
		return nil
	}

	fmt.Fprintf(r.progress, "Starting re-embedding of %d chunks (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	for start := 0; start < total; start += r.config.BatchSize {
		end := min(start+r.config.BatchSize, total)
		batch := ids[start:end]

		err := RetryWithBackoff(ctx, func() error {
			return r.store.ReembedChunks(ctx, batch)
		}, r.config.MaxRetries, r.config.RetryDelay)
		if err != nil {
			return fmt.Errorf("failed to re-embed chunks %d..%d: %w", start, end-1, err)
		}

		tracker.Update(end)
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Re-embedding complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		total, elapsed.Round(time.Second), float64(total)/elapsed.Seconds())

	return nil
}

// collectIDs pages through the content base gathering every chunk id.
func (r *Reindexer) collectIDs(ctx context.Context, contentBaseID string) ([]core.ID, error) {
	filter := storage.MetadataFilter{ContentBaseID: contentBaseID}

	var (
		ids    []core.ID
		cursor storage.Cursor
	)
	for {
		next, hits, err := r.store.PaginatedQueryByMetadata(ctx, filter, cursor)
		if err != nil {
			return nil, err
		}
		if len(hits) == 0 {
			return ids, nil
		}
		for _, hit := range hits {
			ids = append(ids, hit.Id)
		}
		cursor = next
	}
}
