package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RunLog is the append-only failure log of a single run.
type RunLog interface {
	Append(entry string) error
	Close() error
}

type fileLog struct {
	f *os.File
}

// OpenLog creates or truncates the run log next to the collection file.
func (s *Storage) OpenLog(name string) (RunLog, error) {
	path := s.LogPath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("%w: error creating log directory: %w", ErrIO, err)
	}
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: error opening run log: %w", ErrIO, err)
	}
	return &fileLog{f: f}, nil
}

// Append writes entry followed by a newline.
func (l *fileLog) Append(entry string) error {
	if !strings.HasSuffix(entry, "\n") {
		entry += "\n"
	}
	if _, err := l.f.WriteString(entry); err != nil {
		return fmt.Errorf("%w: error appending to run log: %w", ErrIO, err)
	}
	return nil
}

func (l *fileLog) Close() error {
	return l.f.Close()
}
