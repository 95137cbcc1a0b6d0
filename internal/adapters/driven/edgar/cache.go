package edgar

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/edgar-core/internal/core/ports/driven"
)

// DiskCache stores raw filing archives under a root directory, keyed by the
// path component of the download URL. Writes go through a temp file and
// rename so a crashed download never leaves a partial archive behind.
type DiskCache struct {
	root string
}

var _ driven.ArchiveCache = (*DiskCache)(nil)

// NewDiskCache creates the cache directory if needed.
func NewDiskCache(root string) (*DiskCache, error) {
	if root == "" {
		return nil, fmt.Errorf("edgar: cache root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &DiskCache{root: root}, nil
}

// Path maps a source URL to its cache file location. The URL's path is
// flattened into a single filename so the cache stays one directory deep.
func (c *DiskCache) Path(sourceURL string) string {
	key := sourceURL
	if u, err := url.Parse(sourceURL); err == nil && u.Path != "" {
		key = u.Path
	}
	key = strings.Trim(key, "/")
	key = strings.ReplaceAll(key, "/", "_")
	return filepath.Join(c.root, key)
}

// Get returns the cached archive and true when present.
func (c *DiskCache) Get(sourceURL string) (string, bool) {
	data, err := os.ReadFile(c.Path(sourceURL))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Put stores the archive atomically and returns the cache path.
func (c *DiskCache) Put(sourceURL string, body string) (string, error) {
	path := c.Path(sourceURL)

	tmp, err := os.CreateTemp(c.root, ".download-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.WriteString(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("renaming into cache: %w", err)
	}
	return path, nil
}

// Len counts the cached archives.
func (c *DiskCache) Len() (int, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return 0, fmt.Errorf("reading cache directory: %w", err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			n++
		}
	}
	return n, nil
}
