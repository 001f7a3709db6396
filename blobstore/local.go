package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore implements Store using the local file system, rooted at a
// converter output directory.
type LocalStore struct {
	root string
}

var (
	_ Store        = (*LocalStore)(nil)
	_ RangeFetcher = (*LocalStore)(nil)
)

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Fetch returns the full contents of the named blob.
func (s *LocalStore) Fetch(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// FetchRange returns length bytes of the named blob starting at offset.
func (s *LocalStore) FetchRange(_ context.Context, name string, offset, length int64) ([]byte, error) {
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make([]byte, length)
	if _, err := f.ReadAt(out, offset); err != nil {
		return nil, fmt.Errorf("read %s range [%d,%d): %w", name, offset, offset+length, err)
	}
	return out, nil
}
