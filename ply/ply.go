// Package ply parses PLY point data for upload mode, where a user
// brings a raw cloud instead of converter output.
//
// ASCII and binary (either endianness) vertex data are supported.
// Vertices with non-finite coordinates are skipped, colors are
// normalized to [0,1] from either float or 0-255 encodings, and the
// result is recentered and scaled to a small working range so
// arbitrary source coordinate frames land somewhere sensible.
package ply

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"

	"github.com/cmarschner/octoview/octree"
	"github.com/cmarschner/octoview/points"
)

// MaxCoord filters out vertices with any coordinate at or beyond this
// magnitude before normalization; scanner artifacts often sit at
// extreme positions.
const MaxCoord = 250.0

// targetExtent is the span the largest source extent is scaled to.
const targetExtent = 10.0

// defaultColor is used when the file carries no color channels or a
// vertex carries non-finite ones.
var defaultColor = [3]float32{0.7, 0.8, 1.0}

var (
	// ErrNotPLY is returned for data without a PLY header.
	ErrNotPLY = errors.New("not a PLY file")
	// ErrNoVertices is returned when no usable vertex survives parsing
	// and filtering.
	ErrNoVertices = errors.New("no valid vertices found")
)

// Cloud is a parsed, normalized point cloud.
type Cloud struct {
	Buffer *points.Buffer
	// Box bounds the normalized positions.
	Box octree.Box
	// HasColors reports whether the source carried color channels.
	HasColors bool
}

type property struct {
	name string
	typ  string
}

type header struct {
	ascii        bool
	littleEndian bool
	vertexCount  int
	properties   []property
	bodyOffset   int
}

func propSize(typ string) (int, error) {
	switch typ {
	case "char", "int8", "uchar", "uint8":
		return 1, nil
	case "short", "int16", "ushort", "uint16":
		return 2, nil
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4, nil
	case "double", "float64":
		return 8, nil
	default:
		return 0, fmt.Errorf("unsupported property type %q", typ)
	}
}

func parseHeader(data []byte) (*header, error) {
	end := bytes.Index(data, []byte("end_header\n"))
	endLen := len("end_header\n")
	if end == -1 {
		end = bytes.Index(data, []byte("end_header\r\n"))
		endLen = len("end_header\r\n")
		if end == -1 {
			return nil, ErrNotPLY
		}
	}

	h := &header{ascii: true, littleEndian: true, bodyOffset: end + endLen}
	inVertex := false
	for _, line := range strings.Split(string(data[:end]), "\n") {
		line = strings.TrimSpace(line)
		fields := strings.Fields(line)
		switch {
		case strings.HasPrefix(line, "format"):
			switch {
			case strings.Contains(line, "binary_little_endian"):
				h.ascii = false
			case strings.Contains(line, "binary_big_endian"):
				h.ascii = false
				h.littleEndian = false
			}
		case strings.HasPrefix(line, "element"):
			inVertex = len(fields) >= 3 && fields[1] == "vertex"
			if inVertex {
				n, err := strconv.Atoi(fields[2])
				if err != nil {
					return nil, fmt.Errorf("bad vertex count: %w", err)
				}
				h.vertexCount = n
			}
		case strings.HasPrefix(line, "property") && inVertex:
			if strings.HasPrefix(line, "property list") || len(fields) < 3 {
				continue
			}
			h.properties = append(h.properties, property{name: fields[2], typ: fields[1]})
		}
	}
	if h.vertexCount == 0 {
		return nil, ErrNoVertices
	}
	return h, nil
}

// channel indices into the property list, -1 when absent.
type layout struct {
	x, y, z, r, g, b int
}

func findLayout(props []property) (layout, error) {
	l := layout{x: -1, y: -1, z: -1, r: -1, g: -1, b: -1}
	for i, p := range props {
		switch p.name {
		case "x":
			l.x = i
		case "y":
			l.y = i
		case "z":
			l.z = i
		case "red", "r":
			l.r = i
		case "green", "g":
			l.g = i
		case "blue", "b":
			l.b = i
		}
	}
	if l.x == -1 || l.y == -1 || l.z == -1 {
		return l, errors.New("PLY file must contain x, y, z coordinates")
	}
	return l, nil
}

func (l layout) hasColors() bool { return l.r != -1 && l.g != -1 && l.b != -1 }

// Parse parses PLY data into a normalized cloud.
func Parse(data []byte) (*Cloud, error) {
	h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	l, err := findLayout(h.properties)
	if err != nil {
		return nil, err
	}

	var verts []r3.Vector
	var colors [][3]float32
	if h.ascii {
		verts, colors = parseASCII(string(data[h.bodyOffset:]), h, l)
	} else {
		verts, colors, err = parseBinary(data[h.bodyOffset:], h, l)
		if err != nil {
			return nil, err
		}
	}
	if len(verts) == 0 {
		return nil, ErrNoVertices
	}
	return normalize(verts, colors, l.hasColors())
}

func parseASCII(body string, h *header, l layout) ([]r3.Vector, [][3]float32) {
	var verts []r3.Vector
	var colors [][3]float32

	lines := strings.Split(body, "\n")
	for i := 0; i < len(lines) && len(verts) < h.vertexCount; i++ {
		fields := strings.Fields(lines[i])
		if len(fields) < len(h.properties) {
			continue
		}
		vals := make([]float64, len(h.properties))
		ok := true
		for j := range vals {
			v, err := strconv.ParseFloat(fields[j], 64)
			if err != nil {
				ok = false
				break
			}
			vals[j] = v
		}
		if !ok {
			continue
		}
		appendVertex(&verts, &colors, vals, l)
	}
	return verts, colors
}

func parseBinary(body []byte, h *header, l layout) ([]r3.Vector, [][3]float32, error) {
	offsets := make([]int, len(h.properties))
	stride := 0
	for i, p := range h.properties {
		size, err := propSize(p.typ)
		if err != nil {
			return nil, nil, err
		}
		offsets[i] = stride
		stride += size
	}

	order := binary.ByteOrder(binary.LittleEndian)
	if !h.littleEndian {
		order = binary.BigEndian
	}

	var verts []r3.Vector
	var colors [][3]float32
	for i := 0; i < h.vertexCount; i++ {
		rec := body[i*stride:]
		if len(rec) < stride {
			break
		}
		vals := make([]float64, len(h.properties))
		for j, p := range h.properties {
			vals[j] = readProp(rec[offsets[j]:], p.typ, order)
		}
		appendVertex(&verts, &colors, vals, l)
	}
	return verts, colors, nil
}

func readProp(b []byte, typ string, order binary.ByteOrder) float64 {
	switch typ {
	case "char", "int8":
		return float64(int8(b[0]))
	case "uchar", "uint8":
		return float64(b[0])
	case "short", "int16":
		return float64(int16(order.Uint16(b)))
	case "ushort", "uint16":
		return float64(order.Uint16(b))
	case "int", "int32":
		return float64(int32(order.Uint32(b)))
	case "uint", "uint32":
		return float64(order.Uint32(b))
	case "float", "float32":
		return float64(math.Float32frombits(order.Uint32(b)))
	case "double", "float64":
		return math.Float64frombits(order.Uint64(b))
	default:
		return 0
	}
}

func appendVertex(verts *[]r3.Vector, colors *[][3]float32, vals []float64, l layout) {
	x, y, z := vals[l.x], vals[l.y], vals[l.z]
	if !finite(x) || !finite(y) || !finite(z) {
		return
	}
	*verts = append(*verts, r3.Vector{X: x, Y: y, Z: z})

	if !l.hasColors() {
		*colors = append(*colors, defaultColor)
		return
	}
	r, g, b := vals[l.r], vals[l.g], vals[l.b]
	if !finite(r) || !finite(g) || !finite(b) {
		*colors = append(*colors, defaultColor)
		return
	}
	if r > 1 || g > 1 || b > 1 {
		r, g, b = r/255, g/255, b/255
	}
	*colors = append(*colors, [3]float32{
		float32(clamp01(r)), float32(clamp01(g)), float32(clamp01(b)),
	})
}

// normalize filters extreme coordinates, recenters on the bounding-box
// midpoint and scales the largest extent to the working range.
func normalize(verts []r3.Vector, colors [][3]float32, hasColors bool) (*Cloud, error) {
	var kept []int
	min := r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max := min.Mul(-1)
	for i, v := range verts {
		if math.Abs(v.X) >= MaxCoord || math.Abs(v.Y) >= MaxCoord || math.Abs(v.Z) >= MaxCoord {
			continue
		}
		kept = append(kept, i)
		min = r3.Vector{X: math.Min(min.X, v.X), Y: math.Min(min.Y, v.Y), Z: math.Min(min.Z, v.Z)}
		max = r3.Vector{X: math.Max(max.X, v.X), Y: math.Max(max.Y, v.Y), Z: math.Max(max.Z, v.Z)}
	}
	if len(kept) == 0 {
		return nil, ErrNoVertices
	}

	center := min.Add(max).Mul(0.5)
	extent := math.Max(max.X-min.X, math.Max(max.Y-min.Y, max.Z-min.Z))
	scale := 1.0
	if extent > 0 {
		scale = targetExtent / extent
	}

	buf := points.NewBuffer(len(kept))
	outMin := r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	outMax := outMin.Mul(-1)
	for out, in := range kept {
		p := verts[in].Sub(center).Mul(scale)
		c := colors[in]
		buf.SetPoint(uint32(out), p, c[0], c[1], c[2])
		outMin = r3.Vector{X: math.Min(outMin.X, p.X), Y: math.Min(outMin.Y, p.Y), Z: math.Min(outMin.Z, p.Z)}
		outMax = r3.Vector{X: math.Max(outMax.X, p.X), Y: math.Max(outMax.Y, p.Y), Z: math.Max(outMax.Z, p.Z)}
	}
	return &Cloud{
		Buffer:    buf,
		Box:       octree.NewBox(outMin, outMax),
		HasColors: hasColors,
	}, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
