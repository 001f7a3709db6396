package octree

// childBox subdivides parent at its midpoint and keeps the half-space
// selected by each bit of the octant: bit 0 picks the upper half in X,
// bit 1 in Y, bit 2 in Z.
func childBox(parent Box, octant uint8) Box {
	mid := parent.Center()
	child := parent
	if octant&1 != 0 {
		child.Min.X = mid.X
	} else {
		child.Max.X = mid.X
	}
	if octant&2 != 0 {
		child.Min.Y = mid.Y
	} else {
		child.Max.Y = mid.Y
	}
	if octant&4 != 0 {
		child.Min.Z = mid.Z
	} else {
		child.Max.Z = mid.Z
	}
	return child
}

// BoundsOf derives the bounding box of the node addressed by path,
// starting from the root box and subdividing once per octant digit.
// The root path returns rootBox unchanged.
func BoundsOf(path Path, rootBox Box) (Box, error) {
	box := rootBox
	for _, o := range path {
		if o > 7 {
			return Box{}, &ErrInvalidNodePath{Raw: path.String()}
		}
		box = childBox(box, o)
	}
	return box, nil
}

// ChildBounds returns the eight child boxes of parent, indexed by
// octant. Together they exactly partition parent.
func ChildBounds(parent Box) [8]Box {
	var out [8]Box
	for o := uint8(0); o < 8; o++ {
		out[o] = childBox(parent, o)
	}
	return out
}
