package octoview

type options struct {
	logger      *Logger
	metrics     MetricsCollector
	maxDepth    int
	maxInflight int
	undoLimit   int
	brushRadius float64
}

// Option configures Viewer construction.
type Option func(*options)

// WithLogger sets the structured logger. Nil restores the default.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NewLogger(nil)
		}
		o.logger = l
	}
}

// WithMetrics sets the metrics collector. Nil disables collection.
func WithMetrics(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.metrics = m
	}
}

// WithMaxDepth bounds how deep the octree is expanded. Negative values
// are ignored.
func WithMaxDepth(d int) Option {
	return func(o *options) {
		if d >= 0 {
			o.maxDepth = d
		}
	}
}

// WithMaxInflightLoads caps concurrent node fetches. Values <= 0
// remove the cap.
func WithMaxInflightLoads(n int) Option {
	return func(o *options) { o.maxInflight = n }
}

// WithUndoLimit bounds the undo history. Values <= 0 select the
// default.
func WithUndoLimit(n int) Option {
	return func(o *options) { o.undoLimit = n }
}

// WithBrushRadius sets the brush radius used by PaintAt and Overlay.
// Values <= 0 are ignored.
func WithBrushRadius(r float64) Option {
	return func(o *options) {
		if r > 0 {
			o.brushRadius = r
		}
	}
}
