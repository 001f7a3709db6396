package octoview

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with viewer-specific helpers so call sites
// log the same field names everywhere.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))}
}

// WithDepth adds the current LOD depth to the logger.
func (l *Logger) WithDepth(depth int) *Logger {
	return &Logger{Logger: l.Logger.With("depth", depth)}
}

// WithPath adds a node path to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{Logger: l.Logger.With("path", path)}
}

// LogQuery logs a brush query.
func (l *Logger) LogQuery(matched uint64, nodes int) {
	l.Debug("brush query completed",
		"matched", matched,
		"nodes", nodes,
	)
}

// LogDelete logs a deletion.
func (l *Logger) LogDelete(count uint64, err error) {
	if err != nil {
		l.Info("delete skipped", "error", err)
	} else {
		l.Info("selection deleted", "points", count)
	}
}

// LogUndo logs an undo.
func (l *Logger) LogUndo(count uint64, err error) {
	if err != nil {
		l.Info("undo skipped", "error", err)
	} else {
		l.Info("deletion undone", "points", count)
	}
}

// LogRedo logs a redo.
func (l *Logger) LogRedo(count uint64, err error) {
	if err != nil {
		l.Info("redo skipped", "error", err)
	} else {
		l.Info("deletion redone", "points", count)
	}
}

// LogDepthChange logs a visibility depth change.
func (l *Logger) LogDepthChange(depth int) {
	l.Info("depth changed", "depth", depth)
}
