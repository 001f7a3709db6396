// Package octoview is the storage and query core of an octree-indexed
// point-cloud viewer.
//
// The engine is the part of a viewer that has real structure: it maps
// path-encoded node identifiers to world-space bounds, decodes the
// fixed 16-byte point record format, manages level-of-detail node
// loading with additive visibility, answers spherical brush queries
// with hierarchical bounding-box pruning, and runs the selection /
// delete / undo state machine whose point-index sets a renderer
// consumes. Rendering, camera control and UI chrome are external
// collaborators: the core only hands out point buffers, visibility
// flags and overlay point sets.
//
// # Quick start
//
//	ctx := context.Background()
//	store, _ := blobstore.NewHTTPStore("https://clouds.example.com/site-a/")
//	v, err := octoview.Open(ctx, store)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	v.SetDepth(ctx, 2)
//	v.WaitForLoads()
//
//	v.BeginPaint()
//	v.PaintAt(r3.Vector{X: 4, Y: 4, Z: 6}) // pointer move events
//	v.EndPaint()
//
//	if err := v.DeleteSelection(); err != nil {
//	    // ErrNoSelection is informational, not fatal
//	}
//	_ = v.Undo()
//
// Node data can come from the local filesystem, HTTP, S3 or MinIO; see
// the blobstore package. Metadata descriptors of both converter
// generations (cloud.js and metadata.json) are normalized by the meta
// package.
package octoview
