package loader

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// TextLoader reads plain-text files. The whole file is returned as a single
// page.
type TextLoader struct{}

// NewTextLoader creates a plain-text loader.
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Load reads the file at path and returns its content as one page.
func (l *TextLoader) Load(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}

	return []string{content}, nil
}
