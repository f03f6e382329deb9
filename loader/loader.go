package loader

import (
	"context"
	"fmt"
	"strings"
)

// Loader extracts page text from a single source. The source is a local file
// path for file-backed loaders and a URL for the web loader. Each returned
// string is one page of the document.
type Loader interface {
	Load(ctx context.Context, source string) ([]string, error)
}

// Registry maps file extensions to loaders.
type Registry struct {
	loaders map[string]Loader
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{loaders: make(map[string]Loader)}
}

// Register binds a loader to an extension. The extension is stored without a
// leading dot and case-insensitively. Registering twice replaces the earlier
// binding.
func (r *Registry) Register(ext string, l Loader) {
	r.loaders[normalizeExt(ext)] = l
}

// Get returns the loader for an extension or ErrNoLoader.
func (r *Registry) Get(ext string) (Loader, error) {
	l, ok := r.loaders[normalizeExt(ext)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoLoader, ext)
	}
	return l, nil
}

// Extensions returns the registered extensions.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, ext)
	}
	return exts
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
