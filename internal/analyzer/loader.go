package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound is returned by loaders for URLs they have no contents for.
var ErrNotFound = errors.New("document not found")

// Loader returns the contents of a document by URL. URLs are slash
// separated and relative to the loader's root.
type Loader interface {
	Load(ctx context.Context, url string) ([]byte, error)
}

// FSLoader loads documents from a directory on disk.
type FSLoader struct {
	root string
}

// NewFSLoader creates a loader rooted at dir.
func NewFSLoader(dir string) *FSLoader {
	return &FSLoader{root: dir}
}

// Root returns the directory the loader reads from.
func (l *FSLoader) Root() string {
	return l.root
}

// Load reads a document. URLs that would escape the root are rejected.
func (l *FSLoader) Load(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, err := localPath(url)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(l.root, rel))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}
	return data, nil
}

func localPath(url string) (string, error) {
	cleaned := path.Clean(strings.TrimPrefix(url, "/"))
	rel := filepath.FromSlash(cleaned)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("url %q is outside the project root", url)
	}
	return rel, nil
}

// OverlayLoader serves in-memory contents, such as unsaved editor buffers,
// and falls back to another loader for everything else.
type OverlayLoader struct {
	mu       sync.RWMutex
	files    map[string][]byte
	fallback Loader
}

// NewOverlayLoader creates an overlay. fallback may be nil.
func NewOverlayLoader(fallback Loader) *OverlayLoader {
	return &OverlayLoader{
		files:    make(map[string][]byte),
		fallback: fallback,
	}
}

// Set stores contents for url, replacing any previous contents.
func (l *OverlayLoader) Set(url string, contents []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.files[url] = append([]byte(nil), contents...)
}

// Delete removes the overlay for url.
func (l *OverlayLoader) Delete(url string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.files, url)
}

func (l *OverlayLoader) Load(ctx context.Context, url string) ([]byte, error) {
	l.mu.RLock()
	data, ok := l.files[url]
	l.mu.RUnlock()
	if ok {
		return data, nil
	}
	if l.fallback == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	return l.fallback.Load(ctx, url)
}
