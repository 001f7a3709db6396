package octoview

import (
	"errors"

	"github.com/cmarschner/octoview/blobstore"
	"github.com/cmarschner/octoview/edit"
	"github.com/cmarschner/octoview/meta"
)

// User-facing sentinels. The edit-machine errors are informational
// no-ops: surface them as status text, never as crashes.
var (
	// ErrNoSelection is returned when deleting with nothing selected.
	ErrNoSelection = edit.ErrNoSelection
	// ErrEmptyUndoStack is returned when there is nothing to undo.
	ErrEmptyUndoStack = edit.ErrEmptyUndoStack
	// ErrEmptyRedoStack is returned when there is nothing to redo.
	ErrEmptyRedoStack = edit.ErrEmptyRedoStack
	// ErrNotFound unifies blob absence.
	ErrNotFound = blobstore.ErrNotFound
	// ErrNoMetadata is returned by Open when the store has no
	// recognizable cloud descriptor.
	ErrNoMetadata = meta.ErrNoMetadata
)

// IsInformational reports whether err is a user-facing no-op rather
// than a real failure.
func IsInformational(err error) bool {
	return errors.Is(err, ErrNoSelection) ||
		errors.Is(err, ErrEmptyUndoStack) ||
		errors.Is(err, ErrEmptyRedoStack)
}
