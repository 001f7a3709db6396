package lod

// State is the load state of one octree node.
type State uint8

const (
	// StateUnloaded means no load has been requested yet.
	StateUnloaded State = iota
	// StateLoading means a fetch is in flight.
	StateLoading
	// StateLoaded means the node's point buffer is resident.
	StateLoaded
	// StateFailed is terminal: the fetch or decode failed, or the node
	// does not exist at this resolution. Never retried.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
