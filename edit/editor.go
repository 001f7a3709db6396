package edit

import (
	"errors"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/cmarschner/octoview/octree"
	"github.com/cmarschner/octoview/points"
)

var (
	// ErrNoSelection is returned by ApplyDelete with nothing selected.
	ErrNoSelection = errors.New("nothing selected")
	// ErrEmptyUndoStack is returned by Undo with no recorded actions.
	ErrEmptyUndoStack = errors.New("undo stack is empty")
	// ErrEmptyRedoStack is returned by Redo with nothing undone.
	ErrEmptyRedoStack = errors.New("redo stack is empty")
)

// DefaultUndoLimit bounds the undo history; the oldest action is
// dropped when it overflows.
const DefaultUndoLimit = 32

// Action is one recorded deletion: an immutable snapshot of the point
// indices it affected, per node path.
type Action struct {
	nodes map[string]*roaring.Bitmap
}

// Count returns the number of points the action covers.
func (a *Action) Count() uint64 {
	var n uint64
	for _, bm := range a.nodes {
		n += bm.GetCardinality()
	}
	return n
}

// BufferSource resolves node paths to their live point buffers.
// Satisfied by the lod store.
type BufferSource interface {
	Buffer(p octree.Path) (*points.Buffer, bool)
}

// GestureState tracks whether a paint gesture is in progress.
type GestureState uint8

const (
	// Idle means no active paint gesture.
	Idle GestureState = iota
	// Painting means a gesture is in progress and move events extend
	// the selection.
	Painting
)

// Editor is the selection and deletion state machine. It must be
// driven from a single goroutine, the same one that runs queries.
type Editor struct {
	buffers   BufferSource
	selection *SelectionSet
	gesture   GestureState

	undo      []*Action
	redo      []*Action
	undoLimit int
}

// NewEditor creates an editor mutating buffers from src.
func NewEditor(src BufferSource, undoLimit int) *Editor {
	if undoLimit <= 0 {
		undoLimit = DefaultUndoLimit
	}
	return &Editor{
		buffers:   src,
		selection: NewSelectionSet(),
		undoLimit: undoLimit,
	}
}

// Selection returns the live selection set.
func (e *Editor) Selection() *SelectionSet { return e.selection }

// Gesture returns the current gesture state.
func (e *Editor) Gesture() GestureState { return e.gesture }

// UndoDepth returns the number of undoable actions.
func (e *Editor) UndoDepth() int { return len(e.undo) }

// RedoDepth returns the number of redoable actions.
func (e *Editor) RedoDepth() int { return len(e.redo) }

// BeginGesture starts a paint gesture. Starting while already painting
// is tolerated and keeps the accumulated selection.
func (e *Editor) BeginGesture() { e.gesture = Painting }

// EndGesture finishes the gesture; the selection survives it.
func (e *Editor) EndGesture() { e.gesture = Idle }

// Extend unions query results into the selection. Outside a gesture it
// is ignored, so stray move events cannot select.
func (e *Editor) Extend(result map[string]*roaring.Bitmap) {
	if e.gesture != Painting {
		return
	}
	for path, bm := range result {
		e.selection.Union(path, bm)
	}
}

// ClearSelection drops the selection without touching deletion state.
func (e *Editor) ClearSelection() { e.selection.Clear() }

// ApplyDelete deletes every selected point, records the action for
// undo, clears the redo stack and the selection.
func (e *Editor) ApplyDelete() (*Action, error) {
	if e.selection.IsEmpty() {
		return nil, ErrNoSelection
	}

	action := &Action{nodes: e.selection.Snapshot()}
	e.markDeleted(action, true)

	e.undo = append(e.undo, action)
	if len(e.undo) > e.undoLimit {
		copy(e.undo, e.undo[1:])
		e.undo = e.undo[:e.undoLimit]
	}
	e.redo = nil
	e.selection.Clear()
	return action, nil
}

// Undo reverts the most recent deletion, restoring every affected
// point to its decoded position and color, and makes it redoable.
func (e *Editor) Undo() (*Action, error) {
	if len(e.undo) == 0 {
		return nil, ErrEmptyUndoStack
	}
	action := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]

	e.markDeleted(action, false)
	e.redo = append(e.redo, action)
	return action, nil
}

// Redo re-applies the most recently undone deletion.
func (e *Editor) Redo() (*Action, error) {
	if len(e.redo) == 0 {
		return nil, ErrEmptyRedoStack
	}
	action := e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]

	e.markDeleted(action, true)
	e.undo = append(e.undo, action)
	return action, nil
}

func (e *Editor) markDeleted(action *Action, deleted bool) {
	for pathStr, bm := range action.nodes {
		p, err := octree.ParsePath(pathStr)
		if err != nil {
			continue
		}
		buf, ok := e.buffers.Buffer(p)
		if !ok {
			continue
		}
		it := bm.Iterator()
		for it.HasNext() {
			idx := it.Next()
			if deleted {
				buf.MarkDeleted(idx)
			} else {
				buf.Restore(idx)
			}
		}
	}
}
