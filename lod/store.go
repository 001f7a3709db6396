// Package lod manages level-of-detail loading of octree nodes.
//
// The store tracks one state machine per node path
// (unloaded -> loading -> loaded|failed) and enforces additive
// depth-based visibility: raising the depth reveals finer nodes,
// lowering it hides them without unloading, so raising it again costs
// no fetches. The node map is the single shared mutable resource; every
// transition is one critical section under the store mutex, while the
// fetch+decode work itself runs in goroutines off the lock.
package lod

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/cmarschner/octoview/blobstore"
	"github.com/cmarschner/octoview/meta"
	"github.com/cmarschner/octoview/octree"
	"github.com/cmarschner/octoview/points"
)

// DefaultMaxDepth bounds how deep the octree is ever expanded.
const DefaultMaxDepth = 6

// DefaultMaxInflight caps concurrent node fetches.
const DefaultMaxInflight = 8

// NodeView is an immutable snapshot of one node's identity and state.
// Buffer is non-nil only for loaded nodes; Err only for failed ones,
// distinguishing an absent node (blobstore.ErrNotFound) from a fetch
// or decode failure.
type NodeView struct {
	Path   octree.Path
	Box    octree.Box
	State  State
	Buffer *points.Buffer
	Err    error
}

// Depth returns the node's depth in the tree.
func (v NodeView) Depth() int { return v.Path.Depth() }

type node struct {
	path  octree.Path
	box   octree.Box
	state State
	buf   *points.Buffer
	err   error
}

// Store owns the set of known octree nodes and their load state.
type Store struct {
	meta   *meta.Metadata
	blobs  blobstore.Store
	logger *slog.Logger

	maxDepth int
	sem      *semaphore.Weighted

	mu    sync.Mutex
	nodes map[string]*node
	depth int

	wg sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithMaxDepth bounds the expandable depth. Values < 0 are ignored.
func WithMaxDepth(d int) Option {
	return func(s *Store) {
		if d >= 0 {
			s.maxDepth = d
		}
	}
}

// WithMaxInflight caps concurrent node fetches. Values <= 0 remove the cap.
func WithMaxInflight(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.sem = semaphore.NewWeighted(int64(n))
		} else {
			s.sem = nil
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a store reading node blobs from blobs, addressed
// and decoded per md.
func NewStore(md *meta.Metadata, blobs blobstore.Store, opts ...Option) *Store {
	s := &Store{
		meta:     md,
		blobs:    blobs,
		logger:   slog.Default(),
		maxDepth: DefaultMaxDepth,
		sem:      semaphore.NewWeighted(DefaultMaxInflight),
		nodes:    make(map[string]*node),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Depth returns the current visibility depth.
func (s *Store) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depth
}

// MaxDepth returns the configured depth bound.
func (s *Store) MaxDepth() int { return s.maxDepth }

// Load kicks off loading of the root node.
func (s *Store) Load(ctx context.Context) error {
	return s.RequestLoad(ctx, octree.Root())
}

// RequestLoad requests an asynchronous load of the node at p. It is a
// no-op unless the node is currently unloaded; the loading state guards
// against duplicate in-flight fetches for one path. An invalid path is
// an error local to this call.
func (s *Store) RequestLoad(ctx context.Context, p octree.Path) error {
	s.mu.Lock()
	key := p.String()
	n, ok := s.nodes[key]
	if !ok {
		box, err := octree.BoundsOf(p, s.meta.RootBox)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		n = &node{path: p, box: box}
		s.nodes[key] = n
	}
	if n.state != StateUnloaded {
		s.mu.Unlock()
		return nil
	}
	n.state = StateLoading
	s.mu.Unlock()

	s.wg.Add(1)
	go s.load(ctx, n)
	return nil
}

func (s *Store) load(ctx context.Context, n *node) {
	defer s.wg.Done()

	if s.sem != nil {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			s.fail(n, err)
			return
		}
		defer s.sem.Release(1)
	}

	name := s.meta.NodeBlobName(n.path)
	data, err := s.blobs.Fetch(ctx, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			// Expected: the tree simply ends above here. The failed state
			// stops further expansion below this path.
			s.logger.Debug("node absent", "path", n.path.String(), "blob", name)
		} else {
			s.logger.Warn("node fetch failed", "path", n.path.String(), "blob", name, "error", err)
		}
		s.fail(n, err)
		return
	}

	buf, err := points.Decode(data, n.box, s.meta.Scale, s.meta.Offset)
	if err != nil {
		s.logger.Warn("node decode failed", "path", n.path.String(), "error", err)
		s.fail(n, err)
		return
	}

	s.mu.Lock()
	n.state = StateLoaded
	n.buf = buf
	depth := s.depth
	s.mu.Unlock()

	s.logger.Debug("node loaded", "path", n.path.String(), "points", buf.Len())

	// Keep expanding while the node sits above the visibility depth, so
	// a multi-level depth raise settles without further calls.
	if n.path.Depth() < depth {
		s.requestChildren(ctx, n.path)
	}
}

func (s *Store) fail(n *node, err error) {
	s.mu.Lock()
	n.state = StateFailed
	n.err = err
	s.mu.Unlock()
}

func (s *Store) requestChildren(ctx context.Context, p octree.Path) {
	if p.Depth() >= s.maxDepth {
		return
	}
	for o := uint8(0); o < 8; o++ {
		child, err := p.Child(o)
		if err != nil {
			continue
		}
		// Only unloaded children actually start a fetch.
		_ = s.RequestLoad(ctx, child)
	}
}

// SetDepth sets the visibility depth, clamped to [0, MaxDepth], and
// returns the clamped value. Increasing the depth extends loading one
// level past every loaded node above the new depth; decreasing only
// recomputes visibility, loaded nodes stay resident.
func (s *Store) SetDepth(ctx context.Context, d int) int {
	if d < 0 {
		d = 0
	}
	if d > s.maxDepth {
		d = s.maxDepth
	}

	s.mu.Lock()
	prev := s.depth
	s.depth = d
	var frontier []octree.Path
	if d > prev {
		for _, n := range s.nodes {
			if n.state == StateLoaded && n.path.Depth() < d {
				frontier = append(frontier, n.path)
			}
		}
	}
	s.mu.Unlock()

	for _, p := range frontier {
		s.requestChildren(ctx, p)
	}
	return d
}

// Wait blocks until all in-flight loads have settled. Used by tests
// and shutdown.
func (s *Store) Wait() { s.wg.Wait() }

// View returns a snapshot of the node at p.
func (s *Store) View(p octree.Path) (NodeView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[p.String()]
	if !ok {
		return NodeView{}, false
	}
	return NodeView{Path: n.path, Box: n.box, State: n.state, Buffer: n.buf, Err: n.err}, true
}

// Snapshot returns a view of every known node keyed by path string.
// The buffers themselves are shared, not copied; they are mutated only
// by the goroutine driving edits.
func (s *Store) Snapshot() map[string]NodeView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]NodeView, len(s.nodes))
	for key, n := range s.nodes {
		out[key] = NodeView{Path: n.path, Box: n.box, State: n.state, Buffer: n.buf, Err: n.err}
	}
	return out
}

// VisibleNodes returns loaded nodes at or above the current depth,
// the set a renderer should draw.
func (s *Store) VisibleNodes() []NodeView {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []NodeView
	for _, n := range s.nodes {
		if n.state == StateLoaded && n.path.Depth() <= s.depth {
			out = append(out, NodeView{Path: n.path, Box: n.box, State: n.state, Buffer: n.buf})
		}
	}
	return out
}

// Buffer returns the point buffer of a loaded node.
func (s *Store) Buffer(p octree.Path) (*points.Buffer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[p.String()]
	if !ok || n.state != StateLoaded {
		return nil, false
	}
	return n.buf, true
}

// Stats summarizes store contents.
type Stats struct {
	Known   int
	Loaded  int
	Loading int
	Failed  int
	// Points counts decoded points across loaded nodes, deleted included.
	Points int
	// LivePoints excludes deleted points.
	LivePoints int
}

// Stats returns current counts.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{Known: len(s.nodes)}
	for _, n := range s.nodes {
		switch n.state {
		case StateLoaded:
			st.Loaded++
			st.Points += n.buf.Len()
			st.LivePoints += n.buf.LiveLen()
		case StateLoading:
			st.Loading++
		case StateFailed:
			st.Failed++
		}
	}
	return st
}
