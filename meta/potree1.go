package meta

import (
	"encoding/json"
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/cmarschner/octoview/octree"
)

// cloudJS mirrors the 1.x "cloud.js" descriptor.
type cloudJS struct {
	Version     string `json:"version"`
	OctreeDir   string `json:"octreeDir"`
	BoundingBox struct {
		Lx float64 `json:"lx"`
		Ly float64 `json:"ly"`
		Lz float64 `json:"lz"`
		Ux float64 `json:"ux"`
		Uy float64 `json:"uy"`
		Uz float64 `json:"uz"`
	} `json:"boundingBox"`
	Points            uint64  `json:"points"`
	Spacing           float64 `json:"spacing"`
	Scale             float64 `json:"scale"`
	HierarchyStepSize int     `json:"hierarchyStepSize"`
}

// ParseV1 parses a 1.x cloud.js descriptor.
func ParseV1(data []byte) (*Metadata, error) {
	var c cloudJS
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse cloud.js: %w", err)
	}
	if c.Scale <= 0 {
		return nil, fmt.Errorf("cloud.js: invalid scale %g", c.Scale)
	}
	bb := c.BoundingBox
	if bb.Ux <= bb.Lx || bb.Uy <= bb.Ly || bb.Uz <= bb.Lz {
		return nil, fmt.Errorf("cloud.js: degenerate bounding box")
	}

	octreeDir := c.OctreeDir
	if octreeDir == "" {
		octreeDir = "data"
	}
	return &Metadata{
		Version: c.Version,
		RootBox: octree.NewBox(
			r3.Vector{X: c.BoundingBox.Lx, Y: c.BoundingBox.Ly, Z: c.BoundingBox.Lz},
			r3.Vector{X: c.BoundingBox.Ux, Y: c.BoundingBox.Uy, Z: c.BoundingBox.Uz},
		),
		Scale:             c.Scale,
		Spacing:           c.Spacing,
		PointCount:        c.Points,
		octreeDir:         octreeDir,
		hierarchyStepSize: c.HierarchyStepSize,
	}, nil
}
