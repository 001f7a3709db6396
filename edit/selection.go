// Package edit accumulates point selections and applies reversible
// deletions against loaded point buffers.
package edit

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// SelectionSet maps node path strings to selected point indices.
// A point is selected iff present here for its owning node.
type SelectionSet struct {
	nodes map[string]*roaring.Bitmap
	count uint64
}

// NewSelectionSet creates an empty selection.
func NewSelectionSet() *SelectionSet {
	return &SelectionSet{nodes: make(map[string]*roaring.Bitmap)}
}

// Union adds the given indices for a node. Selection is monotonic
// within a gesture: indices are only ever added here.
func (s *SelectionSet) Union(path string, indices *roaring.Bitmap) {
	if indices == nil || indices.IsEmpty() {
		return
	}
	bm, ok := s.nodes[path]
	if !ok {
		bm = roaring.New()
		s.nodes[path] = bm
	}
	before := bm.GetCardinality()
	bm.Or(indices)
	s.count += bm.GetCardinality() - before
}

// Count returns the total number of selected points.
func (s *SelectionSet) Count() uint64 { return s.count }

// IsEmpty reports whether nothing is selected.
func (s *SelectionSet) IsEmpty() bool { return s.count == 0 }

// Node returns the selected indices for a node, or nil.
func (s *SelectionSet) Node(path string) *roaring.Bitmap { return s.nodes[path] }

// Clear empties the selection. Idempotent.
func (s *SelectionSet) Clear() {
	s.nodes = make(map[string]*roaring.Bitmap)
	s.count = 0
}

// Snapshot returns an immutable deep copy keyed by path.
func (s *SelectionSet) Snapshot() map[string]*roaring.Bitmap {
	out := make(map[string]*roaring.Bitmap, len(s.nodes))
	for path, bm := range s.nodes {
		out[path] = bm.Clone()
	}
	return out
}

// Each calls fn for every (path, indices) pair.
func (s *SelectionSet) Each(fn func(path string, indices *roaring.Bitmap)) {
	for path, bm := range s.nodes {
		fn(path, bm)
	}
}
