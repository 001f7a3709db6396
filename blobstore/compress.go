package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
)

// DecompressingStore wraps a Store whose blobs may be stored
// compressed. A fetch first tries the plain name; on ErrNotFound it
// falls back to name+".gz" and name+".lz4" and transparently inflates
// the result. Names that already carry a compression suffix are
// inflated directly.
type DecompressingStore struct {
	inner Store
}

var _ Store = (*DecompressingStore)(nil)

// NewDecompressingStore wraps inner with compression fallback.
func NewDecompressingStore(inner Store) *DecompressingStore {
	return &DecompressingStore{inner: inner}
}

// Fetch returns the decompressed contents of the named blob.
func (s *DecompressingStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	data, err := s.inner.Fetch(ctx, name)
	switch {
	case err == nil:
		return inflate(name, data)
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	for _, suffix := range []string{".gz", ".lz4"} {
		data, err = s.inner.Fetch(ctx, name+suffix)
		if err == nil {
			return inflate(name+suffix, data)
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

func inflate(name string, data []byte) ([]byte, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case strings.HasSuffix(name, ".lz4"):
		return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	default:
		return data, nil
	}
}
