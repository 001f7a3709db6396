package octoview

import (
	"context"
	"errors"
	"time"

	"github.com/golang/geo/r3"

	"github.com/cmarschner/octoview/blobstore"
	"github.com/cmarschner/octoview/edit"
	"github.com/cmarschner/octoview/lod"
	"github.com/cmarschner/octoview/meta"
	"github.com/cmarschner/octoview/octree"
	"github.com/cmarschner/octoview/points"
	"github.com/cmarschner/octoview/query"
)

// DefaultBrushRadius is the brush radius used when none is configured.
const DefaultBrushRadius = 0.5

// Viewer is the viewer core: LOD node store, brush query engine and
// selection/edit state machine behind one command surface.
//
// Loads complete on background goroutines; everything else (queries,
// painting, delete/undo) must be driven from one goroutine, typically
// the input-event loop.
type Viewer struct {
	logger  *Logger
	metrics MetricsCollector

	meta   *meta.Metadata
	store  *lod.Store
	engine *query.Engine
	editor *edit.Editor

	brushRadius float64
}

// Open loads the cloud descriptor from blobs, builds the node store
// and kicks off the root node load.
func Open(ctx context.Context, blobs blobstore.Store, opts ...Option) (*Viewer, error) {
	md, err := meta.Load(ctx, blobs)
	if err != nil {
		return nil, err
	}

	// 2.x exports ship one octree blob plus a hierarchy index; adapt
	// them to the per-node fetch model. No hierarchy blob means the
	// cloud already stores one blob per node.
	if h, err := md.LoadHierarchy(ctx, blobs); err == nil {
		blobs = meta.NewOctreeStore(blobs, h)
	} else if !errors.Is(err, blobstore.ErrNotFound) {
		return nil, err
	}

	return open(ctx, md, blobs, opts)
}

// OpenBuffer wraps an already-decoded point buffer (an uploaded PLY
// cloud, say) as a single-node tree at the root, reusing the same
// query and edit machinery as an octree-backed cloud.
func OpenBuffer(ctx context.Context, buf *points.Buffer, box octree.Box, opts ...Option) (*Viewer, error) {
	const scale = 0.001

	blobs := blobstore.NewMemoryStore()
	md := &meta.Metadata{
		Version:    "buffer",
		RootBox:    box,
		Scale:      scale,
		PointCount: uint64(buf.Len()),
	}
	blobs.Put(md.NodeBlobName(octree.Root()), points.Encode(buf, box, scale, r3.Vector{}))

	v, err := open(ctx, md, blobs, opts)
	if err != nil {
		return nil, err
	}
	v.WaitForLoads()
	return v, nil
}

func open(ctx context.Context, md *meta.Metadata, blobs blobstore.Store, opts []Option) (*Viewer, error) {
	o := options{
		logger:      NewLogger(nil),
		metrics:     NoopMetricsCollector{},
		maxDepth:    lod.DefaultMaxDepth,
		maxInflight: lod.DefaultMaxInflight,
		brushRadius: DefaultBrushRadius,
	}
	for _, opt := range opts {
		opt(&o)
	}

	store := lod.NewStore(md, blobs,
		lod.WithMaxDepth(o.maxDepth),
		lod.WithMaxInflight(o.maxInflight),
		lod.WithLogger(o.logger.Logger),
	)
	v := &Viewer{
		logger:      o.logger,
		metrics:     o.metrics,
		meta:        md,
		store:       store,
		engine:      query.NewEngine(store),
		editor:      edit.NewEditor(store, o.undoLimit),
		brushRadius: o.brushRadius,
	}
	if err := store.Load(ctx); err != nil {
		return nil, err
	}
	return v, nil
}

// Metadata returns the normalized cloud descriptor.
func (v *Viewer) Metadata() *meta.Metadata { return v.meta }

// Depth returns the current visibility depth.
func (v *Viewer) Depth() int { return v.store.Depth() }

// SetDepth sets the visibility depth, clamped to [0, max], and returns
// the applied value.
func (v *Viewer) SetDepth(ctx context.Context, d int) int {
	applied := v.store.SetDepth(ctx, d)
	v.logger.LogDepthChange(applied)
	v.metrics.RecordDepthChange(applied)
	return applied
}

// IncreaseDepth raises the depth one level.
func (v *Viewer) IncreaseDepth(ctx context.Context) int {
	return v.SetDepth(ctx, v.store.Depth()+1)
}

// DecreaseDepth lowers the depth one level.
func (v *Viewer) DecreaseDepth(ctx context.Context) int {
	return v.SetDepth(ctx, v.store.Depth()-1)
}

// WaitForLoads blocks until all in-flight node loads settle.
func (v *Viewer) WaitForLoads() { v.store.Wait() }

// VisibleNodes returns the loaded nodes a renderer should draw.
func (v *Viewer) VisibleNodes() []lod.NodeView { return v.store.VisibleNodes() }

// Brush returns the brush shape centered at c.
func (v *Viewer) Brush(c r3.Vector) query.Sphere {
	return query.Sphere{Center: c, Radius: v.brushRadius}
}

// BeginPaint starts a paint gesture.
func (v *Viewer) BeginPaint() { v.editor.BeginGesture() }

// PaintAt handles a pointer move during a gesture: it queries the
// brush at c and unions the result into the selection. Returns the
// running selection count. A node that finishes loading mid-gesture is
// picked up by the next call.
func (v *Viewer) PaintAt(c r3.Vector) uint64 {
	start := time.Now()
	res := v.engine.Select(v.Brush(c))
	v.editor.Extend(res)

	v.logger.LogQuery(res.Count(), len(res))
	v.metrics.RecordQuery(res.Count(), time.Since(start))
	return v.editor.Selection().Count()
}

// EndPaint finishes the gesture. The selection survives until deleted
// or cleared.
func (v *Viewer) EndPaint() { v.editor.EndGesture() }

// SelectionCount returns the number of selected points.
func (v *Viewer) SelectionCount() uint64 { return v.editor.Selection().Count() }

// DeleteSelection deletes every selected point, recording the action
// for undo. Returns ErrNoSelection if nothing is selected.
func (v *Viewer) DeleteSelection() error {
	action, err := v.editor.ApplyDelete()
	var count uint64
	if action != nil {
		count = action.Count()
	}
	v.logger.LogDelete(count, err)
	v.metrics.RecordDelete(count, err)
	return err
}

// Undo reverts the most recent deletion.
func (v *Viewer) Undo() error {
	action, err := v.editor.Undo()
	var count uint64
	if action != nil {
		count = action.Count()
	}
	v.logger.LogUndo(count, err)
	v.metrics.RecordUndo(err)
	return err
}

// Redo re-applies the most recently undone deletion.
func (v *Viewer) Redo() error {
	action, err := v.editor.Redo()
	var count uint64
	if action != nil {
		count = action.Count()
	}
	v.logger.LogRedo(count, err)
	v.metrics.RecordRedo(err)
	return err
}

// ClearSelection drops the selection without touching deletions.
func (v *Viewer) ClearSelection() { v.editor.ClearSelection() }

// Overlay classifies points around the brush at c for the renderer's
// highlight pass.
func (v *Viewer) Overlay(c r3.Vector) query.Overlay {
	sel := query.Result(v.editor.Selection().Snapshot())
	return v.engine.Classify(v.Brush(c), sel)
}

// Counts is the status-line summary.
type Counts struct {
	Depth        int
	MaxDepth     int
	VisibleNodes int
	LoadedPoints int
	LivePoints   int
	Selected     uint64
	UndoDepth    int
	RedoDepth    int
}

// Counts returns the current status summary.
func (v *Viewer) Counts() Counts {
	st := v.store.Stats()
	return Counts{
		Depth:        v.store.Depth(),
		MaxDepth:     v.store.MaxDepth(),
		VisibleNodes: len(v.store.VisibleNodes()),
		LoadedPoints: st.Points,
		LivePoints:   st.LivePoints,
		Selected:     v.editor.Selection().Count(),
		UndoDepth:    v.editor.UndoDepth(),
		RedoDepth:    v.editor.RedoDepth(),
	}
}
