package store

import (
	"fmt"
	"os"
)

// LegacyStore reads the pre-migration flat store: a single file holding one
// serialized JSON array. It is consulted once at startup and erased after a
// successful migration; nothing else reads or writes it.
type LegacyStore struct {
	path string
}

// NewLegacyStore points at the legacy blob for one collection.
func NewLegacyStore(path string) *LegacyStore {
	return &LegacyStore{path: path}
}

// Load returns the raw blob, or nil when no legacy data exists.
func (l *LegacyStore) Load() ([]byte, error) {
	if l.path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read legacy store %s: %w", l.path, err)
	}
	return data, nil
}

// Erase removes the blob. Erasing an already-absent blob is a no-op.
func (l *LegacyStore) Erase() error {
	if l.path == "" {
		return nil
	}
	err := os.Remove(l.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("erase legacy store %s: %w", l.path, err)
	}
	return nil
}
