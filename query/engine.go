package query

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/golang/geo/r3"

	"github.com/cmarschner/octoview/lod"
	"github.com/cmarschner/octoview/octree"
)

// Result maps node path strings to the qualifying point indices in
// that node's buffer. Index order within a node is unspecified.
type Result map[string]*roaring.Bitmap

// Count returns the total number of selected indices.
func (r Result) Count() uint64 {
	var n uint64
	for _, bm := range r {
		n += bm.GetCardinality()
	}
	return n
}

// Engine runs brush queries against a node store.
type Engine struct {
	store *lod.Store
}

// NewEngine creates an engine reading from store.
func NewEngine(store *lod.Store) *Engine {
	return &Engine{store: store}
}

// Select returns, per node, the indices of live points contained in
// shape. Results reflect exactly the nodes loaded at call time.
// Traversal is depth-first from the root; a node whose box does not
// intersect the shape is skipped along with its entire subtree, so the
// cost tracks the number of intersecting nodes rather than all nodes.
func (e *Engine) Select(shape Shape) Result {
	out := make(Result)
	nodes := e.store.Snapshot()

	e.walk(nodes, octree.Root(), shape, func(v lod.NodeView) {
		bm := roaring.New()
		for i := 0; i < v.Buffer.Len(); i++ {
			idx := uint32(i)
			if v.Buffer.IsDeleted(idx) {
				continue
			}
			if shape.Contains(v.Buffer.Positions[i]) {
				bm.Add(idx)
			}
		}
		if !bm.IsEmpty() {
			out[v.Path.String()] = bm
		}
	})
	return out
}

// walk visits loaded nodes depth-first under the pruning predicate.
func (e *Engine) walk(nodes map[string]lod.NodeView, p octree.Path, shape Shape, visit func(lod.NodeView)) {
	v, ok := nodes[p.String()]
	if !ok {
		return
	}
	if !shape.IntersectsBox(v.Box) {
		return
	}
	if v.State == lod.StateLoaded {
		visit(v)
	}
	for o := uint8(0); o < 8; o++ {
		child, err := p.Child(o)
		if err != nil {
			continue
		}
		e.walk(nodes, child, shape, visit)
	}
}

// Overlay classifies points for the renderer's highlight pass.
type Overlay struct {
	// Selected are world positions of already-selected points.
	Selected []r3.Vector
	// Highlighted are live points inside the shape not yet selected.
	Highlighted []r3.Vector
	// Shadowed are live points within the capped planar drop below the
	// shape center, a visualization-only classification.
	Shadowed []r3.Vector
}

// MaxShadowDrop caps how far below the brush center the shadow
// classification reaches.
const MaxShadowDrop = 4.0

// Classify runs a second pruned pass classifying points against shape
// for overlay rendering. selected marks points already in the
// selection set, keyed like a Result.
func (e *Engine) Classify(shape Shape, selected Result) Overlay {
	var ov Overlay
	nodes := e.store.Snapshot()

	// The shadow volume hangs below the brush; widen the pruning shape
	// so shadow-only nodes are not skipped.
	pruner := shadowPruner{inner: shape}

	e.walk(nodes, octree.Root(), pruner, func(v lod.NodeView) {
		sel := selected[v.Path.String()]
		for i := 0; i < v.Buffer.Len(); i++ {
			idx := uint32(i)
			if v.Buffer.IsDeleted(idx) {
				continue
			}
			pos := v.Buffer.Positions[i]
			switch {
			case sel != nil && sel.Contains(idx):
				ov.Selected = append(ov.Selected, pos)
			case shape.Contains(pos):
				ov.Highlighted = append(ov.Highlighted, pos)
			case inShadow(shape, pos):
				ov.Shadowed = append(ov.Shadowed, pos)
			}
		}
	})
	return ov
}

// inShadow reports whether pos sits inside the shape's planar footprint
// within MaxShadowDrop below its center.
func inShadow(shape Shape, pos r3.Vector) bool {
	s, ok := shape.(Sphere)
	if !ok {
		return false
	}
	if pos.Z > s.Center.Z || pos.Z < s.Center.Z-MaxShadowDrop {
		return false
	}
	dx := pos.X - s.Center.X
	dy := pos.Y - s.Center.Y
	return dx*dx+dy*dy <= s.Radius*s.Radius
}

// shadowPruner widens a shape's box test to include the shadow column.
type shadowPruner struct {
	inner Shape
}

func (p shadowPruner) Contains(v r3.Vector) bool { return p.inner.Contains(v) }

func (p shadowPruner) IntersectsBox(b octree.Box) bool {
	if p.inner.IntersectsBox(b) {
		return true
	}
	s, ok := p.inner.(Sphere)
	if !ok {
		return false
	}
	column := Cylinder{
		Center:     r3.Vector{X: s.Center.X, Y: s.Center.Y, Z: s.Center.Z - MaxShadowDrop/2},
		Radius:     s.Radius,
		HalfHeight: MaxShadowDrop / 2,
	}
	return column.IntersectsBox(b)
}
