package blobstore

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Fetch(ctx, "r0.bin")
	require.ErrorIs(t, err, ErrNotFound)

	store.Put("r0.bin", []byte{1, 2, 3})
	store.Put("r1.bin", []byte{4})

	data, err := store.Fetch(ctx, "r0.bin")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, data)

	// Returned slice is a copy.
	data[0] = 99
	again, err := store.Fetch(ctx, "r0.bin")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, again)

	require.Equal(t, []string{"r0.bin", "r1.bin"}, store.List("r"))

	store.Delete("r0.bin")
	_, err = store.Fetch(ctx, "r0.bin")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "r.bin"), []byte("abc"), 0o644))

	store := NewLocalStore(dir)

	data, err := store.Fetch(ctx, "data/r.bin")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), data)

	_, err = store.Fetch(ctx, "data/r7.bin")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPStore(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cloud/r.bin":
			_, _ = w.Write([]byte("node-data"))
		case "/cloud/boom.bin":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	store, err := NewHTTPStore(srv.URL+"/cloud/", WithHTTPClient(srv.Client()), WithRateLimit(1000, 10))
	require.NoError(t, err)

	data, err := store.Fetch(ctx, "r.bin")
	require.NoError(t, err)
	require.Equal(t, []byte("node-data"), data)

	_, err = store.Fetch(ctx, "r3.bin")
	require.ErrorIs(t, err, ErrNotFound)

	// A server error is a transport failure, not absence.
	_, err = store.Fetch(ctx, "boom.bin")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreFetchRange(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Put("octree.bin", []byte{0, 1, 2, 3, 4, 5, 6, 7})

	data, err := store.FetchRange(ctx, "octree.bin", 2, 3)
	require.NoError(t, err)
	require.Equal(t, []byte{2, 3, 4}, data)

	_, err = store.FetchRange(ctx, "octree.bin", 6, 4)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)

	_, err = store.FetchRange(ctx, "missing.bin", 0, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreFetchRange(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "octree.bin"), []byte("abcdefgh"), 0o644))

	store := NewLocalStore(dir)

	data, err := store.FetchRange(ctx, "octree.bin", 3, 4)
	require.NoError(t, err)
	require.Equal(t, []byte("defg"), data)

	_, err = store.FetchRange(ctx, "octree.bin", 6, 4)
	require.Error(t, err)

	_, err = store.FetchRange(ctx, "missing.bin", 0, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPStoreFetchRange(t *testing.T) {
	ctx := context.Background()
	blob := []byte("0123456789abcdef")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cloud/octree.bin":
			// ServeContent honors the Range header with a 206.
			http.ServeContent(w, r, "octree.bin", time.Time{}, bytes.NewReader(blob))
		case "/cloud/full.bin":
			// Ignores Range, replies 200 with the whole blob.
			_, _ = w.Write(blob)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	store, err := NewHTTPStore(srv.URL+"/cloud/", WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	data, err := store.FetchRange(ctx, "octree.bin", 4, 6)
	require.NoError(t, err)
	require.Equal(t, []byte("456789"), data)

	// Full-body fallback slices locally.
	data, err = store.FetchRange(ctx, "full.bin", 10, 6)
	require.NoError(t, err)
	require.Equal(t, []byte("abcdef"), data)

	_, err = store.FetchRange(ctx, "missing.bin", 0, 4)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDecompressingStore(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte("gzipped-node"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	inner.Put("r0.bin.gz", gz.Bytes())

	var lz bytes.Buffer
	lw := lz4.NewWriter(&lz)
	_, err = lw.Write([]byte("lz4-node"))
	require.NoError(t, err)
	require.NoError(t, lw.Close())
	inner.Put("r1.bin.lz4", lz.Bytes())

	inner.Put("r2.bin", []byte("plain-node"))

	store := NewDecompressingStore(inner)

	data, err := store.Fetch(ctx, "r0.bin")
	require.NoError(t, err)
	require.Equal(t, []byte("gzipped-node"), data)

	data, err = store.Fetch(ctx, "r1.bin")
	require.NoError(t, err)
	require.Equal(t, []byte("lz4-node"), data)

	data, err = store.Fetch(ctx, "r2.bin")
	require.NoError(t, err)
	require.Equal(t, []byte("plain-node"), data)

	_, err = store.Fetch(ctx, "r3.bin")
	require.ErrorIs(t, err, ErrNotFound)
}

type countingStore struct {
	inner   Store
	fetches atomic.Int64
}

func (c *countingStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	c.fetches.Add(1)
	return c.inner.Fetch(ctx, name)
}

func TestCachingStore(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	inner.Put("r.bin", []byte("root"))

	counting := &countingStore{inner: inner}
	store := NewCachingStore(counting, 1<<20)

	for i := 0; i < 3; i++ {
		data, err := store.Fetch(ctx, "r.bin")
		require.NoError(t, err)
		require.Equal(t, []byte("root"), data)
	}
	require.Equal(t, int64(1), counting.fetches.Load())

	// Negative lookups are cached as well.
	for i := 0; i < 3; i++ {
		_, err := store.Fetch(ctx, "r5.bin")
		require.ErrorIs(t, err, ErrNotFound)
	}
	require.Equal(t, int64(2), counting.fetches.Load())
	require.Equal(t, 2, store.Len())
}

func TestCachingStoreEviction(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	inner.Put("a", make([]byte, 600))
	inner.Put("b", make([]byte, 600))

	counting := &countingStore{inner: inner}
	store := NewCachingStore(counting, 1000)

	_, err := store.Fetch(ctx, "a")
	require.NoError(t, err)
	_, err = store.Fetch(ctx, "b")
	require.NoError(t, err)
	// "a" was evicted to make room for "b".
	_, err = store.Fetch(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, int64(3), counting.fetches.Load())
}

func TestCachingStoreSingleflight(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	inner.Put("r.bin", []byte("root"))

	counting := &countingStore{inner: inner}
	store := NewCachingStore(counting, 1<<20)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := store.Fetch(ctx, "r.bin")
			require.NoError(t, err)
			require.Equal(t, []byte("root"), data)
		}()
	}
	wg.Wait()
	// Concurrent fetches collapse; allow a small race window at startup.
	require.LessOrEqual(t, counting.fetches.Load(), int64(2))
}

func TestCachingStorePrefetch(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	inner.Put("r0.bin", []byte("a"))
	inner.Put("r1.bin", []byte("b"))

	store := NewCachingStore(inner, 1<<20)
	err := store.Prefetch(ctx, []string{"r0.bin", "r1.bin", "r2.bin"}, 2)
	require.NoError(t, err)
	require.Equal(t, 3, store.Len()) // includes the cached miss for r2.bin
}
