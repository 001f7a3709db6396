// Package meta normalizes converter metadata descriptors.
//
// Two on-disk descriptor generations exist: the 1.x "cloud.js" and the
// 2.x "metadata.json". Both are reduced to the same Metadata shape so
// the rest of the engine never branches on the source format.
package meta

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/cmarschner/octoview/blobstore"
	"github.com/cmarschner/octoview/octree"
)

// Descriptor file names probed by Load, in order of preference.
const (
	FileV2 = "metadata.json"
	FileV1 = "cloud.js"
)

// ErrNoMetadata is returned when neither descriptor file exists.
var ErrNoMetadata = errors.New("no metadata descriptor found")

// Metadata is the normalized cloud descriptor.
type Metadata struct {
	// Version is the raw descriptor version string ("1.7", "2.0", ...).
	Version string
	// RootBox is the bounding box of the root octree node.
	RootBox octree.Box
	// Scale is the uniform quantization scale applied to record coordinates.
	Scale float64
	// Offset is added to every decoded world position.
	Offset r3.Vector
	// Spacing is the converter's point-spacing hint at the root.
	Spacing float64
	// PointCount is the total point count if the descriptor carries one.
	PointCount uint64

	octreeDir           string
	hierarchyStepSize   int
	hierarchyFirstChunk int64
}

// Load fetches and parses the cloud descriptor from store, preferring
// the 2.x format.
func Load(ctx context.Context, store blobstore.Store) (*Metadata, error) {
	if data, err := store.Fetch(ctx, FileV2); err == nil {
		return ParseV2(data)
	} else if !errors.Is(err, blobstore.ErrNotFound) {
		return nil, err
	}

	if data, err := store.Fetch(ctx, FileV1); err == nil {
		return ParseV1(data)
	} else if !errors.Is(err, blobstore.ErrNotFound) {
		return nil, err
	}

	return nil, ErrNoMetadata
}

// NodeBlobName maps a node path to the blob name holding its records.
//
// The 1.x layout nests node files in subdirectories every
// hierarchyStepSize levels below octreeDir/r. The 2.x layout used here
// is one blob per node at the store root.
func (m *Metadata) NodeBlobName(p octree.Path) string {
	name := p.String()
	if m.octreeDir == "" {
		return name + ".bin"
	}

	dir := m.octreeDir + "/r"
	if step := m.hierarchyStepSize; step > 0 {
		// One directory level per full step of digits, each holding the
		// next step-sized chunk of the path.
		digits := name[1:]
		for i := 0; i < len(digits)/step; i++ {
			dir += "/" + digits[i*step:(i+1)*step]
		}
	}
	return fmt.Sprintf("%s/%s.bin", dir, name)
}
