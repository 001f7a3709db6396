// Package octree provides path-based addressing for an octree of
// axis-aligned bounding boxes.
//
// A node is identified by its path: the sequence of octant digits (0-7)
// walked from the root. The root itself is the empty sequence, rendered
// as "r" in the string form, so the string form of any node is "r"
// followed by its digits ("r", "r0", "r01", ...). Path length equals
// depth. Bounds are a pure function of (path, root box), so callers may
// cache them freely.
package octree

import (
	"fmt"
	"strings"
)

// RootMarker is the leading character of every rendered path.
const RootMarker = 'r'

// Path identifies an octree node as the sequence of octant digits from
// the root. The zero value is the root.
type Path []uint8

// Root returns the root path.
func Root() Path { return Path{} }

// ErrInvalidNodePath indicates a path containing something other than
// octant digits 0-7.
type ErrInvalidNodePath struct {
	Raw string
}

func (e *ErrInvalidNodePath) Error() string {
	return fmt.Sprintf("invalid node path %q: octant digits must be 0-7", e.Raw)
}

// ParsePath parses the string form of a path. The leading root marker
// is optional, so both "r021" and "021" address the same node.
func ParsePath(s string) (Path, error) {
	digits := strings.TrimPrefix(s, string(RootMarker))
	p := make(Path, 0, len(digits))
	for i := 0; i < len(digits); i++ {
		c := digits[i]
		if c < '0' || c > '7' {
			return nil, &ErrInvalidNodePath{Raw: s}
		}
		p = append(p, c-'0')
	}
	return p, nil
}

// String renders the path with the leading root marker.
func (p Path) String() string {
	var sb strings.Builder
	sb.Grow(len(p) + 1)
	sb.WriteByte(RootMarker)
	for _, o := range p {
		sb.WriteByte('0' + o)
	}
	return sb.String()
}

// Depth returns the node's depth; the root is at depth 0.
func (p Path) Depth() int { return len(p) }

// IsRoot reports whether p addresses the root node.
func (p Path) IsRoot() bool { return len(p) == 0 }

// Child returns the path of the given octant's child. The result does
// not alias p.
func (p Path) Child(octant uint8) (Path, error) {
	if octant > 7 {
		return nil, &ErrInvalidNodePath{Raw: fmt.Sprintf("%s+%d", p, octant)}
	}
	child := make(Path, len(p)+1)
	copy(child, p)
	child[len(p)] = octant
	return child, nil
}

// Parent returns the parent path. The parent of the root is the root.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return p
	}
	return p[:len(p)-1]
}

// Validate checks every digit of p.
func (p Path) Validate() error {
	for _, o := range p {
		if o > 7 {
			return &ErrInvalidNodePath{Raw: p.String()}
		}
	}
	return nil
}
