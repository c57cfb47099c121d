package storage

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// Lock takes an exclusive, non-blocking lock on the collection so that two
// runs never interleave persists of the same file. Release with Unlock.
func (s *Storage) Lock(name string) (*flock.Flock, error) {
	if err := os.MkdirAll(s.dataDir, 0750); err != nil {
		return nil, fmt.Errorf("%w: error creating data directory: %w", ErrIO, err)
	}
	lock := flock.New(s.Path(name) + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: acquire lock: %w", ErrIO, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lock.Path())
	}
	return lock, nil
}
