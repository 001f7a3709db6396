package meta

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/cmarschner/octoview/blobstore"
)

// 2.x single-file layout: node records for the whole cloud live in one
// "octree.bin", and "hierarchy.bin" maps node paths to byte ranges
// within it.
const (
	FileHierarchy = "hierarchy.bin"
	FileOctree    = "octree.bin"
)

// hierarchy.bin is a sequence of fixed records, chunked every stepSize
// levels. A chunk lists its nodes breadth-first starting with the
// chunk root; proxy records point at the chunk holding that node's
// subtree instead of at point data.
const (
	hierarchyRecordSize = 22

	nodeTypeNormal = 0
	nodeTypeLeaf   = 1
	nodeTypeProxy  = 2
)

// NodeRange locates one node's records inside the octree blob.
type NodeRange struct {
	Offset    uint64
	Length    uint64
	NumPoints uint32
}

// Hierarchy maps node paths to their byte ranges in the octree blob.
type Hierarchy struct {
	ranges map[string]NodeRange
}

// Lookup returns the range of the node at the given path string.
func (h *Hierarchy) Lookup(path string) (NodeRange, bool) {
	r, ok := h.ranges[path]
	return r, ok
}

// Len returns the number of indexed nodes.
func (h *Hierarchy) Len() int { return len(h.ranges) }

// LoadHierarchy fetches and parses the cloud's hierarchy blob. Returns
// blobstore.ErrNotFound when the cloud has no hierarchy blob, i.e. it
// ships one blob per node instead of a single octree blob.
func (m *Metadata) LoadHierarchy(ctx context.Context, store blobstore.Store) (*Hierarchy, error) {
	data, err := store.Fetch(ctx, FileHierarchy)
	if err != nil {
		return nil, err
	}

	first := m.hierarchyFirstChunk
	if first <= 0 || first > int64(len(data)) {
		first = int64(len(data))
	}

	h := &Hierarchy{ranges: make(map[string]NodeRange)}
	if err := h.parseChunk(data, 0, first, "r"); err != nil {
		return nil, err
	}
	return h, nil
}

// parseChunk decodes one chunk rooted at rootPath. Records appear
// breadth-first: the first record is the chunk root, and every
// non-proxy record appends its masked children to the order.
func (h *Hierarchy) parseChunk(data []byte, off, size int64, rootPath string) error {
	if off < 0 || size < 0 || off+size > int64(len(data)) {
		return fmt.Errorf("%s: chunk [%d,%d) out of range", FileHierarchy, off, off+size)
	}
	if size%hierarchyRecordSize != 0 {
		return fmt.Errorf("%s: chunk size %d not a record multiple", FileHierarchy, size)
	}

	n := int(size / hierarchyRecordSize)
	paths := append(make([]string, 0, n+1), rootPath)
	for i := 0; i < n; i++ {
		if i >= len(paths) {
			return fmt.Errorf("%s: record %d of chunk at %d has no parent", FileHierarchy, i, off)
		}
		rec := data[off+int64(i)*hierarchyRecordSize:]
		typ := rec[0]
		childMask := rec[1]
		numPoints := binary.LittleEndian.Uint32(rec[2:6])
		byteOffset := binary.LittleEndian.Uint64(rec[6:14])
		byteLength := binary.LittleEndian.Uint64(rec[14:22])

		path := paths[i]
		if typ == nodeTypeProxy {
			// Subtree lives in another chunk whose first record is this
			// node again, this time with its data range.
			if err := h.parseChunk(data, int64(byteOffset), int64(byteLength), path); err != nil {
				return err
			}
			continue
		}
		h.ranges[path] = NodeRange{Offset: byteOffset, Length: byteLength, NumPoints: numPoints}
		for o := 0; o < 8; o++ {
			if childMask&(1<<o) != 0 {
				paths = append(paths, path+strconv.Itoa(o))
			}
		}
	}
	return nil
}
