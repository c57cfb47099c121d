// Package caching keeps successful response bodies on disk so that repeated
// runs over the same collection do not hit the remote source again.
package caching

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Cache is a file-based cache keyed by URL with a TTL.
type Cache struct {
	dir string
	ttl time.Duration
}

// NewCache creates the cache directory if needed. A ttl <= 0 never expires.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir, ttl: ttl}, nil
}

func (c *Cache) path(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:]))
}

// Get returns the cached body for url when present and fresh.
func (c *Cache) Get(url string) ([]byte, bool) {
	path := c.path(url)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		return nil, false
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores body for url, replacing any previous entry.
func (c *Cache) Set(url string, body []byte) error {
	path := c.path(url)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0600); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Delete drops the entry for url. Missing entries are not an error.
func (c *Cache) Delete(url string) error {
	err := os.Remove(c.path(url))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}
