package meta

import (
	"encoding/json"
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/cmarschner/octoview/octree"
)

// metadataJSON mirrors the 2.x "metadata.json" descriptor.
type metadataJSON struct {
	Version     string    `json:"version"`
	Points      uint64    `json:"points"`
	Spacing     float64   `json:"spacing"`
	Scale       []float64 `json:"scale"`
	Offset      []float64 `json:"offset"`
	BoundingBox struct {
		Min []float64 `json:"min"`
		Max []float64 `json:"max"`
	} `json:"boundingBox"`
	Hierarchy struct {
		FirstChunkSize int64 `json:"firstChunkSize"`
		StepSize       int   `json:"stepSize"`
		Depth          int   `json:"depth"`
	} `json:"hierarchy"`
}

// ParseV2 parses a 2.x metadata.json descriptor. The per-axis scale is
// reduced to the uniform X component, which is what the quantizer
// actually uses for all three axes in practice.
func ParseV2(data []byte) (*Metadata, error) {
	var m metadataJSON
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse metadata.json: %w", err)
	}
	if len(m.BoundingBox.Min) != 3 || len(m.BoundingBox.Max) != 3 {
		return nil, fmt.Errorf("metadata.json: bounding box must have 3 components per corner")
	}
	if len(m.Scale) == 0 || m.Scale[0] <= 0 {
		return nil, fmt.Errorf("metadata.json: invalid scale %v", m.Scale)
	}
	for i := 0; i < 3; i++ {
		if m.BoundingBox.Max[i] <= m.BoundingBox.Min[i] {
			return nil, fmt.Errorf("metadata.json: degenerate bounding box")
		}
	}

	var offset r3.Vector
	if len(m.Offset) == 3 {
		offset = r3.Vector{X: m.Offset[0], Y: m.Offset[1], Z: m.Offset[2]}
	}
	return &Metadata{
		Version: m.Version,
		RootBox: octree.NewBox(
			r3.Vector{X: m.BoundingBox.Min[0], Y: m.BoundingBox.Min[1], Z: m.BoundingBox.Min[2]},
			r3.Vector{X: m.BoundingBox.Max[0], Y: m.BoundingBox.Max[1], Z: m.BoundingBox.Max[2]},
		),
		Scale:               m.Scale[0],
		Offset:              offset,
		Spacing:             m.Spacing,
		PointCount:          m.Points,
		hierarchyFirstChunk: m.Hierarchy.FirstChunkSize,
	}, nil
}
