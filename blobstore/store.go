// Package blobstore abstracts the source of per-node binary blobs.
//
// Node blobs are small and are decoded whole, so the interface is a
// single Fetch rather than a random-access handle. A store must report
// a missing blob with ErrNotFound: absence is how the octree signals
// that a node does not exist at a given resolution, distinct from a
// transport failure.
package blobstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations must return an error that satisfies
// errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("blob not found")

// Store fetches immutable data blobs by name.
type Store interface {
	// Fetch returns the full contents of the named blob.
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// RangeFetcher is an optional Store capability for reading a byte
// range of a blob without downloading the rest. Backends that can
// serve ranges natively should implement it; callers fall back to a
// whole-blob Fetch when it is absent.
type RangeFetcher interface {
	// FetchRange returns length bytes of the named blob starting at
	// offset. A blob shorter than offset+length is an error, not a
	// short read.
	FetchRange(ctx context.Context, name string, offset, length int64) ([]byte, error)
}
