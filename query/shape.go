// Package query answers spatial brush queries against loaded octree
// nodes, pruning whole subtrees whose bounding boxes cannot intersect
// the query shape.
package query

import (
	"github.com/golang/geo/r3"

	"github.com/cmarschner/octoview/octree"
)

// Shape is a spatial predicate. IntersectsBox must be conservative:
// it may keep a box that holds no qualifying point, but must never
// reject a box that could hold one.
type Shape interface {
	// Contains is the exact per-point test.
	Contains(p r3.Vector) bool
	// IntersectsBox is the pruning test against a node's bounds.
	IntersectsBox(b octree.Box) bool
}

// Sphere is the brush shape: center plus radius.
type Sphere struct {
	Center r3.Vector
	Radius float64
}

var _ Shape = Sphere{}

// Contains tests squared Euclidean distance against the squared radius.
func (s Sphere) Contains(p r3.Vector) bool {
	d := p.Sub(s.Center)
	return d.Dot(d) <= s.Radius*s.Radius
}

// IntersectsBox clamps the center onto the box and compares the squared
// distance of that closest point against the squared radius. Exact for
// sphere vs box.
func (s Sphere) IntersectsBox(b octree.Box) bool {
	d := b.ClosestPointTo(s.Center).Sub(s.Center)
	return d.Dot(d) <= s.Radius*s.Radius
}

// Cylinder is a Z-axis-aligned cylinder spanning Center.Z +/- HalfHeight.
type Cylinder struct {
	Center     r3.Vector
	Radius     float64
	HalfHeight float64
}

var _ Shape = Cylinder{}

// Contains tests the radial distance in XY and the Z span separately.
func (c Cylinder) Contains(p r3.Vector) bool {
	if p.Z < c.Center.Z-c.HalfHeight || p.Z > c.Center.Z+c.HalfHeight {
		return false
	}
	dx := p.X - c.Center.X
	dy := p.Y - c.Center.Y
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// IntersectsBox clamps per axis: radially in XY, linearly in Z.
func (c Cylinder) IntersectsBox(b octree.Box) bool {
	closest := b.ClosestPointTo(c.Center)
	// The clamped Z is the box Z value nearest the center, so it falls
	// outside the span only when the whole box does.
	if closest.Z < c.Center.Z-c.HalfHeight || closest.Z > c.Center.Z+c.HalfHeight {
		return false
	}
	dx := closest.X - c.Center.X
	dy := closest.Y - c.Center.Y
	return dx*dx+dy*dy <= c.Radius*c.Radius
}
