package octree

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// Box is a world-space axis-aligned bounding box.
type Box struct {
	Min r3.Vector
	Max r3.Vector
}

// NewBox returns the box spanning min..max.
func NewBox(min, max r3.Vector) Box {
	return Box{Min: min, Max: max}
}

// Center returns the box midpoint.
func (b Box) Center() r3.Vector {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the per-axis extent.
func (b Box) Size() r3.Vector {
	return b.Max.Sub(b.Min)
}

// Contains reports whether p lies inside the box (inclusive bounds).
func (b Box) Contains(p r3.Vector) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// ClosestPointTo returns the point inside the box nearest to p
// (the clamped projection of p onto the box).
func (b Box) ClosestPointTo(p r3.Vector) r3.Vector {
	return r3.Vector{
		X: clamp(p.X, b.Min.X, b.Max.X),
		Y: clamp(p.Y, b.Min.Y, b.Max.Y),
		Z: clamp(p.Z, b.Min.Z, b.Max.Z),
	}
}

func (b Box) String() string {
	return fmt.Sprintf("[%g,%g,%g]-[%g,%g,%g]", b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
