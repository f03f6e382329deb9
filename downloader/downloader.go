package downloader

import "context"

// Downloader fetches an object identified by key into destDir and returns
// the path of the local copy. Implementations classify failures with
// ErrNotFound and ErrTransient.
type Downloader interface {
	Download(ctx context.Context, key string, destDir string) (string, error)
}
