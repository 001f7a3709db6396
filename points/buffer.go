package points

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/golang/geo/r3"
)

// DeletedSentinel is the render-facing position of a deleted point.
// The decoded position is retained; only the accessor substitutes this
// value, so undo can restore the point bit-exactly.
var DeletedSentinel = r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}

// Buffer holds the decoded points of one octree node as parallel
// arrays. Positions are world-space, colors are RGB triples in [0,1]
// stored as a stride-3 float32 slice ready for upload. Deleted points
// stay at their index so selection and undo indices remain stable.
type Buffer struct {
	Positions []r3.Vector
	Colors    []float32

	deleted *roaring.Bitmap
}

// NewBuffer allocates a buffer for n points.
func NewBuffer(n int) *Buffer {
	return &Buffer{
		Positions: make([]r3.Vector, n),
		Colors:    make([]float32, n*3),
		deleted:   roaring.New(),
	}
}

// Len returns the number of points, deleted ones included.
func (b *Buffer) Len() int { return len(b.Positions) }

// LiveLen returns the number of points not marked deleted.
func (b *Buffer) LiveLen() int { return b.Len() - int(b.deleted.GetCardinality()) }

// IsDeleted reports whether the point at index i is marked deleted.
func (b *Buffer) IsDeleted(i uint32) bool { return b.deleted.Contains(i) }

// MarkDeleted marks the point at index i as deleted. Position and color
// are left untouched.
func (b *Buffer) MarkDeleted(i uint32) { b.deleted.Add(i) }

// Restore clears the deleted mark on the point at index i.
func (b *Buffer) Restore(i uint32) { b.deleted.Remove(i) }

// Deleted returns the deleted-index set. Callers must not mutate it.
func (b *Buffer) Deleted() *roaring.Bitmap { return b.deleted }

// RenderPosition returns the position to hand to a renderer: the
// decoded position for live points, DeletedSentinel for deleted ones.
func (b *Buffer) RenderPosition(i uint32) r3.Vector {
	if b.deleted.Contains(i) {
		return DeletedSentinel
	}
	return b.Positions[i]
}

// Color returns the RGB triple of the point at index i.
func (b *Buffer) Color(i uint32) [3]float32 {
	return [3]float32{b.Colors[i*3], b.Colors[i*3+1], b.Colors[i*3+2]}
}

// SetPoint sets position and color at index i. Fixture helper.
func (b *Buffer) SetPoint(i uint32, p r3.Vector, r, g, bl float32) {
	b.Positions[i] = p
	b.Colors[i*3+0] = r
	b.Colors[i*3+1] = g
	b.Colors[i*3+2] = bl
}
