package blobstore

import (
	"container/list"
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// CachingStore wraps a Store with an LRU byte cache. Concurrent
// fetches of the same name are collapsed into one upstream request.
// Misses (ErrNotFound) are cached too: the octree probes past its true
// leaves on every depth increase and those probes should not hit the
// network twice.
type CachingStore struct {
	inner    Store
	maxBytes int64

	mu    sync.Mutex
	bytes int64
	ll    *list.List // front = most recent
	items map[string]*list.Element

	group singleflight.Group
}

var _ Store = (*CachingStore)(nil)

type cacheEntry struct {
	name     string
	data     []byte
	notFound bool
}

// NewCachingStore wraps inner with a cache bounded at maxBytes.
// maxBytes <= 0 selects a 64 MiB default.
func NewCachingStore(inner Store, maxBytes int64) *CachingStore {
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}
	return &CachingStore{
		inner:    inner,
		maxBytes: maxBytes,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Fetch returns the full contents of the named blob.
func (s *CachingStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	if el, ok := s.items[name]; ok {
		s.ll.MoveToFront(el)
		entry := el.Value.(*cacheEntry)
		s.mu.Unlock()
		if entry.notFound {
			return nil, ErrNotFound
		}
		return entry.data, nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do(name, func() (any, error) {
		data, err := s.inner.Fetch(ctx, name)
		switch {
		case err == nil:
			s.add(&cacheEntry{name: name, data: data})
			return data, nil
		case errors.Is(err, ErrNotFound):
			s.add(&cacheEntry{name: name, notFound: true})
			return nil, ErrNotFound
		default:
			return nil, err
		}
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Prefetch warms the cache for the given names, fetching up to
// parallel blobs at a time. ErrNotFound is recorded, not returned.
func (s *CachingStore) Prefetch(ctx context.Context, names []string, parallel int) error {
	if parallel <= 0 {
		parallel = 4
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for _, name := range names {
		name := name
		g.Go(func() error {
			if _, err := s.Fetch(ctx, name); err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *CachingStore) add(entry *cacheEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[entry.name]; ok {
		s.bytes -= int64(len(el.Value.(*cacheEntry).data))
		s.ll.Remove(el)
		delete(s.items, entry.name)
	}
	s.items[entry.name] = s.ll.PushFront(entry)
	s.bytes += int64(len(entry.data))

	for s.bytes > s.maxBytes && s.ll.Len() > 1 {
		oldest := s.ll.Back()
		old := oldest.Value.(*cacheEntry)
		s.bytes -= int64(len(old.data))
		s.ll.Remove(oldest)
		delete(s.items, old.name)
	}
}

// Len returns the number of cached entries, negative lookups included.
func (s *CachingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ll.Len()
}
