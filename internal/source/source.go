// Package source provides the file-reading capability the catalog extractor
// depends on. Implementations read from a real directory, an in-memory
// filesystem, or a cache in front of either.
package source

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"
)

// Reader reads files by slash-separated path relative to its root.
type Reader interface {
	ReadFile(name string) ([]byte, error)
}

// ReadOptional reads name through r. A missing file yields "" and no error;
// any other failure is returned.
func ReadOptional(r Reader, name string) (string, error) {
	data, err := r.ReadFile(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// FS reads files from an afero filesystem.
type FS struct {
	fs afero.Fs
}

// NewFS wraps an afero filesystem whose root is the source root.
func NewFS(fsys afero.Fs) *FS {
	return &FS{fs: fsys}
}

// NewDir returns a reader confined to dir on the OS filesystem.
func NewDir(dir string) *FS {
	return NewFS(afero.NewBasePathFs(afero.NewOsFs(), dir))
}

// ReadFile implements Reader.
func (f *FS) ReadFile(name string) ([]byte, error) {
	return afero.ReadFile(f.fs, filepath.FromSlash(name))
}

// Stat returns file info for name.
func (f *FS) Stat(name string) (os.FileInfo, error) {
	return f.fs.Stat(filepath.FromSlash(name))
}

type cacheEntry struct {
	data    []byte
	size    int64
	modTime time.Time
}

// Cached keeps recently read files in memory and re-reads a file only when
// its size or modification time changes.
type Cached struct {
	base  *FS
	cache *lru.Cache[string, cacheEntry]

	mu     sync.Mutex
	hits   int
	misses int
}

// NewCached wraps base with an LRU cache holding up to size files.
func NewCached(base *FS, size int) (*Cached, error) {
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &Cached{base: base, cache: cache}, nil
}

// ReadFile implements Reader.
func (c *Cached) ReadFile(name string) ([]byte, error) {
	info, err := c.base.Stat(name)
	if err != nil {
		c.cache.Remove(name)
		return nil, err
	}

	if entry, ok := c.cache.Get(name); ok && entry.size == info.Size() && entry.modTime.Equal(info.ModTime()) {
		c.record(true)
		return entry.data, nil
	}

	data, err := c.base.ReadFile(name)
	if err != nil {
		return nil, err
	}
	c.cache.Add(name, cacheEntry{data: data, size: info.Size(), modTime: info.ModTime()})
	c.record(false)
	return data, nil
}

// Stats returns cache hit and miss counts.
func (c *Cached) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *Cached) record(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}
