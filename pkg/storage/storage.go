// Package storage owns the on-disk form of a record collection: the JSON
// array file, its sibling run log and its run lock.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dtnitsch/ld-enricher/models"
)

var (
	ErrNotFound = errors.New("collection file not found")
	ErrParse    = errors.New("collection is not a JSON array of objects")
	ErrIO       = errors.New("collection I/O failure")
	ErrLocked   = errors.New("collection is locked by another run")
)

// Storage resolves collection names relative to a data directory.
type Storage struct {
	dataDir string
}

// New creates a Storage rooted at dataDir.
func New(dataDir string) *Storage {
	return &Storage{dataDir: dataDir}
}

// Path returns the file path of a collection.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.dataDir, name)
}

// LogPath returns the run log path of a collection.
func (s *Storage) LogPath(name string) string {
	return s.Path(name) + ".log"
}

// HasFile reports whether the collection file exists.
func (s *Storage) HasFile(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Load reads and decodes a collection.
func (s *Storage) Load(name string) (models.Collection, error) {
	path := s.Path(name)
	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: error reading file: %w", ErrIO, err)
	}
	return Decode(data)
}

// Decode parses a JSON array of objects into a collection.
func Decode(data []byte) (models.Collection, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: top level is not an array", ErrParse)
	}

	var coll models.Collection
	if err := json.Unmarshal(trimmed, &coll); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	for i, rec := range coll {
		// null elements decode to nil pointers without reaching Record.UnmarshalJSON
		if rec == nil {
			return nil, fmt.Errorf("%w: element %d is null", ErrParse, i)
		}
	}
	return coll, nil
}

// Encode renders a collection with two-space indentation.
func Encode(coll models.Collection) ([]byte, error) {
	if coll == nil {
		coll = models.Collection{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(coll); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Persist overwrites the collection file. The new content is written to a
// temporary file in the same directory and renamed into place, so readers
// see either the previous or the new collection, never a mix.
func (s *Storage) Persist(name string, coll models.Collection) error {
	data, err := Encode(coll)
	if err != nil {
		return fmt.Errorf("%w: error encoding collection: %w", ErrIO, err)
	}
	if err := writeAtomic(s.Path(name), data); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("error writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("error syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("error closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		cleanup()
		return fmt.Errorf("error setting file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("error replacing file: %w", err)
	}
	return nil
}
