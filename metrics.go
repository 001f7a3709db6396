package octoview

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational
// metrics. Implement it to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordQuery is called after each brush query.
	RecordQuery(matched uint64, duration time.Duration)

	// RecordDelete is called after each delete attempt.
	// count is the number of points deleted; err is nil if successful.
	RecordDelete(count uint64, err error)

	// RecordUndo is called after each undo attempt.
	RecordUndo(err error)

	// RecordRedo is called after each redo attempt.
	RecordRedo(err error)

	// RecordDepthChange is called after the LOD depth changes.
	RecordDepthChange(depth int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordQuery(uint64, time.Duration) {}
func (NoopMetricsCollector) RecordDelete(uint64, error)        {}
func (NoopMetricsCollector) RecordUndo(error)                  {}
func (NoopMetricsCollector) RecordRedo(error)                  {}
func (NoopMetricsCollector) RecordDepthChange(int)             {}

// BasicMetricsCollector provides simple in-memory metrics collection,
// useful for debugging without external dependencies.
type BasicMetricsCollector struct {
	QueryCount      atomic.Int64
	QueryMatched    atomic.Int64
	QueryTotalNanos atomic.Int64
	DeleteCount     atomic.Int64
	DeleteErrors    atomic.Int64
	DeletedPoints   atomic.Int64
	UndoCount       atomic.Int64
	UndoErrors      atomic.Int64
	RedoCount       atomic.Int64
	RedoErrors      atomic.Int64
	DepthChanges    atomic.Int64
}

var _ MetricsCollector = (*BasicMetricsCollector)(nil)

func (m *BasicMetricsCollector) RecordQuery(matched uint64, d time.Duration) {
	m.QueryCount.Add(1)
	m.QueryMatched.Add(int64(matched))
	m.QueryTotalNanos.Add(int64(d))
}

func (m *BasicMetricsCollector) RecordDelete(count uint64, err error) {
	m.DeleteCount.Add(1)
	if err != nil {
		m.DeleteErrors.Add(1)
		return
	}
	m.DeletedPoints.Add(int64(count))
}

func (m *BasicMetricsCollector) RecordUndo(err error) {
	m.UndoCount.Add(1)
	if err != nil {
		m.UndoErrors.Add(1)
	}
}

func (m *BasicMetricsCollector) RecordRedo(err error) {
	m.RedoCount.Add(1)
	if err != nil {
		m.RedoErrors.Add(1)
	}
}

func (m *BasicMetricsCollector) RecordDepthChange(int) {
	m.DepthChanges.Add(1)
}
