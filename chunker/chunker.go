package chunker

import (
	"fmt"
	"strings"
)

const (
	// DefaultChunkSize is the maximum chunk length in words.
	DefaultChunkSize = 75

	// DefaultChunkOverlap is the number of trailing words carried into the
	// next chunk.
	DefaultChunkOverlap = 25

	// DefaultSeparator splits the input into segments before merging.
	DefaultSeparator = "\n"
)

// Chunker splits document text into overlapping word-bounded chunks.
//
// The input is first split on the separator. Consecutive segments are merged
// into a chunk until adding the next segment would exceed the chunk size,
// counted in words. When a chunk is emitted, trailing segments up to the
// overlap budget seed the next chunk. A single segment longer than the chunk
// size is windowed at the word level.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	separator    string
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithChunkSize sets the maximum chunk length in words.
func WithChunkSize(size int) Option {
	return func(c *Chunker) error {
		if size <= 0 {
			return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, size)
		}
		c.chunkSize = size
		return nil
	}
}

// WithChunkOverlap sets the number of words carried between adjacent chunks.
func WithChunkOverlap(overlap int) Option {
	return func(c *Chunker) error {
		if overlap < 0 {
			return fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrInvalidConfig, overlap)
		}
		c.chunkOverlap = overlap
		return nil
	}
}

// WithSeparator sets the segment separator.
func WithSeparator(sep string) Option {
	return func(c *Chunker) error {
		if sep == "" {
			return fmt.Errorf("%w: separator must not be empty", ErrInvalidConfig)
		}
		c.separator = sep
		return nil
	}
}

// NewChunker creates a chunker with the given options applied over defaults.
func NewChunker(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		separator:    DefaultSeparator,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.chunkOverlap >= c.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			ErrInvalidConfig, c.chunkOverlap, c.chunkSize)
	}

	return c, nil
}

// Split breaks text into chunks. Every word of the input appears in at least
// one chunk; adjacent chunks share up to the configured overlap. Empty or
// whitespace-only input yields no chunks.
func (c *Chunker) Split(text string) []string {
	var chunks []string

	var window []string // pending segments for the current chunk
	count := 0          // word count of the window

	flush := func() {
		if len(window) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(window, c.separator))

		// Seed the next window with trailing segments within the
		// overlap budget.
		var kept []string
		keptWords := 0
		for i := len(window) - 1; i >= 0; i-- {
			w := countWords(window[i])
			if keptWords+w > c.chunkOverlap {
				break
			}
			kept = append([]string{window[i]}, kept...)
			keptWords += w
		}
		window = kept
		count = keptWords
	}

	for _, segment := range strings.Split(text, c.separator) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		w := countWords(segment)
		if w > c.chunkSize {
			flush()
			window = nil
			count = 0
			chunks = append(chunks, c.splitOversized(segment)...)
			continue
		}

		if count+w > c.chunkSize {
			flush()
		}
		window = append(window, segment)
		count += w
	}

	if len(window) > 0 {
		chunks = append(chunks, strings.Join(window, c.separator))
	}

	return chunks
}

// splitOversized windows a single segment that exceeds the chunk size,
// stepping by chunkSize minus overlap so consecutive windows share words.
func (c *Chunker) splitOversized(segment string) []string {
	words := strings.Fields(segment)
	stride := c.chunkSize - c.chunkOverlap

	var chunks []string
	for start := 0; start < len(words); start += stride {
		end := start + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}

func countWords(s string) int {
	return len(strings.Fields(s))
}
