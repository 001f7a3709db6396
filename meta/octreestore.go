package meta

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cmarschner/octoview/blobstore"
	"github.com/cmarschner/octoview/octree"
)

// ErrBadNodeRange reports a hierarchy entry pointing outside the
// octree blob.
type ErrBadNodeRange struct {
	Path     string
	Offset   uint64
	Length   uint64
	BlobSize int
}

func (e *ErrBadNodeRange) Error() string {
	return fmt.Sprintf("node %s: range [%d,%d) outside %d-byte %s", e.Path, e.Offset, e.Offset+e.Length, e.BlobSize, FileOctree)
}

// OctreeStore serves per-node blob names out of a single octree blob,
// adapting the 2.x single-file layout to the per-node fetch model the
// node store works in. A node path missing from the hierarchy maps to
// blobstore.ErrNotFound, the same leaf signal a per-node layout gives.
//
// Names that are not node blobs pass through to the inner store
// untouched.
type OctreeStore struct {
	inner blobstore.Store
	h     *Hierarchy

	// Whole-blob fallback when the inner store cannot serve ranges.
	mu    sync.Mutex
	whole []byte
}

var _ blobstore.Store = (*OctreeStore)(nil)

// NewOctreeStore wraps inner, slicing node blobs out of FileOctree per
// the hierarchy's byte ranges.
func NewOctreeStore(inner blobstore.Store, h *Hierarchy) *OctreeStore {
	return &OctreeStore{inner: inner, h: h}
}

// Fetch returns the records of the node named by name ("r052.bin").
func (s *OctreeStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	path, ok := strings.CutSuffix(name, ".bin")
	if !ok {
		return s.inner.Fetch(ctx, name)
	}
	if _, err := octree.ParsePath(path); err != nil {
		return s.inner.Fetch(ctx, name)
	}

	r, ok := s.h.Lookup(path)
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	if r.Length == 0 {
		return []byte{}, nil
	}

	if rf, ok := s.inner.(blobstore.RangeFetcher); ok {
		return rf.FetchRange(ctx, FileOctree, int64(r.Offset), int64(r.Length))
	}

	data, err := s.wholeBlob(ctx)
	if err != nil {
		return nil, err
	}
	if int64(r.Offset)+int64(r.Length) > int64(len(data)) {
		return nil, &ErrBadNodeRange{Path: path, Offset: r.Offset, Length: r.Length, BlobSize: len(data)}
	}
	out := make([]byte, r.Length)
	copy(out, data[r.Offset:r.Offset+r.Length])
	return out, nil
}

func (s *OctreeStore) wholeBlob(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.whole == nil {
		data, err := s.inner.Fetch(ctx, FileOctree)
		if err != nil {
			return nil, err
		}
		s.whole = data
	}
	return s.whole, nil
}
