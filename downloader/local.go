package downloader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalDownloader serves objects from a directory on the local filesystem.
// It exists for development and tests.
type LocalDownloader struct {
	baseDir string
}

// NewLocalDownloader creates a downloader rooted at baseDir.
func NewLocalDownloader(baseDir string) *LocalDownloader {
	return &LocalDownloader{baseDir: baseDir}
}

// Download copies the file at key, relative to the base directory, into
// destDir and returns the local path.
func (d *LocalDownloader) Download(ctx context.Context, key string, destDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := os.Open(filepath.Join(d.baseDir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return "", fmt.Errorf("%w: %s: %w", ErrTransient, key, err)
	}
	defer src.Close()

	path := filepath.Join(destDir, filepath.Base(key))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: creating %s: %w", ErrTransient, path, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: copying %s: %w", ErrTransient, key, err)
	}

	return path, nil
}
