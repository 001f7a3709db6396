package query

import (
	"context"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"

	"github.com/cmarschner/octoview/blobstore"
	"github.com/cmarschner/octoview/lod"
	"github.com/cmarschner/octoview/meta"
	"github.com/cmarschner/octoview/octree"
	"github.com/cmarschner/octoview/points"
)

const testMetadata = `{
	"version": "2.0",
	"spacing": 1,
	"scale": [0.001, 0.001, 0.001],
	"offset": [0, 0, 0],
	"boundingBox": {"min": [0, 0, 0], "max": [8, 8, 8]}
}`

// loadedStore builds a store with the given node blobs loaded to full
// depth. Each entry maps a path to explicit world positions.
func loadedStore(t *testing.T, nodes map[string][]r3.Vector) *lod.Store {
	t.Helper()

	md, err := meta.ParseV2([]byte(testMetadata))
	require.NoError(t, err)

	blobs := blobstore.NewMemoryStore()
	maxDepth := 0
	for pathStr, pts := range nodes {
		p, err := octree.ParsePath(pathStr)
		require.NoError(t, err)
		if p.Depth() > maxDepth {
			maxDepth = p.Depth()
		}
		box, err := octree.BoundsOf(p, md.RootBox)
		require.NoError(t, err)
		buf := points.NewBuffer(len(pts))
		for i, pt := range pts {
			buf.SetPoint(uint32(i), pt, 1, 1, 1)
		}
		blobs.Put(md.NodeBlobName(p), points.Encode(buf, box, md.Scale, md.Offset))
	}

	ctx := context.Background()
	s := lod.NewStore(md, blobs)
	require.NoError(t, s.Load(ctx))
	s.Wait()
	s.SetDepth(ctx, maxDepth)
	s.Wait()
	return s
}

func TestSelectAcrossNodes(t *testing.T) {
	store := loadedStore(t, map[string][]r3.Vector{
		"r":  {{X: 1, Y: 1, Z: 1}, {X: 7, Y: 7, Z: 7}},
		"r0": {{X: 1.2, Y: 1, Z: 1}, {X: 3.9, Y: 3.9, Z: 3.9}},
		"r7": {{X: 7.1, Y: 7, Z: 7}},
	})
	e := NewEngine(store)

	res := e.Select(Sphere{Center: r3.Vector{X: 1, Y: 1, Z: 1}, Radius: 0.5})
	require.Equal(t, uint64(2), res.Count())
	require.True(t, res["r"].Contains(0))
	require.True(t, res["r0"].Contains(0))
	require.NotContains(t, res, "r7")
}

func TestSelectExcludesDeleted(t *testing.T) {
	store := loadedStore(t, map[string][]r3.Vector{
		"r": {{X: 1, Y: 1, Z: 1}, {X: 1.1, Y: 1, Z: 1}},
	})
	e := NewEngine(store)

	buf, ok := store.Buffer(octree.Root())
	require.True(t, ok)
	buf.MarkDeleted(0)

	res := e.Select(Sphere{Center: r3.Vector{X: 1, Y: 1, Z: 1}, Radius: 0.5})
	require.Equal(t, uint64(1), res.Count())
	require.False(t, res["r"].Contains(0))
	require.True(t, res["r"].Contains(1))
}

func TestSelectEmptyResultOmitsNodes(t *testing.T) {
	store := loadedStore(t, map[string][]r3.Vector{
		"r": {{X: 1, Y: 1, Z: 1}},
	})
	e := NewEngine(store)

	res := e.Select(Sphere{Center: r3.Vector{X: 7, Y: 7, Z: 7}, Radius: 0.1})
	require.Empty(t, res)
}

// Pruned traversal must agree with brute-force enumeration over every
// loaded buffer, for random brushes.
func TestSelectMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(99))

	nodes := map[string][]r3.Vector{"r": nil}
	for _, pathStr := range []string{"r0", "r3", "r5", "r7", "r00", "r07", "r70"} {
		nodes[pathStr] = nil
	}
	md, err := meta.ParseV2([]byte(testMetadata))
	require.NoError(t, err)
	for pathStr := range nodes {
		p, err := octree.ParsePath(pathStr)
		require.NoError(t, err)
		box, err := octree.BoundsOf(p, md.RootBox)
		require.NoError(t, err)
		size := box.Size()
		for i := 0; i < 40; i++ {
			nodes[pathStr] = append(nodes[pathStr], r3.Vector{
				X: box.Min.X + rng.Float64()*size.X,
				Y: box.Min.Y + rng.Float64()*size.Y,
				Z: box.Min.Z + rng.Float64()*size.Z,
			})
		}
	}

	store := loadedStore(t, nodes)
	e := NewEngine(store)

	for iter := 0; iter < 50; iter++ {
		shape := Sphere{
			Center: r3.Vector{X: rng.Float64() * 8, Y: rng.Float64() * 8, Z: rng.Float64() * 8},
			Radius: rng.Float64() * 3,
		}
		got := e.Select(shape)

		for _, v := range store.VisibleNodes() {
			bm := got[v.Path.String()]
			for i := 0; i < v.Buffer.Len(); i++ {
				if shape.Contains(v.Buffer.Positions[i]) {
					require.NotNil(t, bm, "missing node %s", v.Path)
					require.True(t, bm.Contains(uint32(i)), "missing index %d in %s", i, v.Path)
				} else if bm != nil {
					require.False(t, bm.Contains(uint32(i)), "spurious index %d in %s", i, v.Path)
				}
			}
		}
	}
}

func TestClassifyOverlay(t *testing.T) {
	store := loadedStore(t, map[string][]r3.Vector{
		"r": {
			{X: 4, Y: 4, Z: 6},   // inside brush, selected
			{X: 4.2, Y: 4, Z: 6}, // inside brush, not selected
			{X: 4, Y: 4, Z: 3},   // below brush, in shadow column
			{X: 4, Y: 4, Z: 0.5}, // below the shadow cap
			{X: 7.5, Y: 1, Z: 1}, // unrelated
		},
	})
	e := NewEngine(store)
	brush := Sphere{Center: r3.Vector{X: 4, Y: 4, Z: 6}, Radius: 0.5}

	selected := e.Select(brush)
	require.Equal(t, uint64(2), selected.Count())
	// Pretend only index 0 was painted.
	selected["r"].Remove(1)

	ov := e.Classify(brush, selected)
	require.Len(t, ov.Selected, 1)
	require.Len(t, ov.Highlighted, 1)
	require.Len(t, ov.Shadowed, 1)
	require.InDelta(t, 3, ov.Shadowed[0].Z, 0.01)
}
