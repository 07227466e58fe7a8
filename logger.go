package versego

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with training-specific context.
// This provides structured logging with consistent field names.
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
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithMode adds a mode field to the logger.
func (l *Logger) WithMode(mode Mode) *Logger {
	return &Logger{
		Logger: l.Logger.With("mode", mode.String()),
	}
}

// WithRunID adds a run_id field to the logger.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", id),
	}
}

// LogTrainStart logs the parameters of a training run.
func (l *Logger) LogTrainStart(ctx context.Context, nodes, edges, dim, workers int, totalSteps, seed uint64) {
	l.InfoContext(ctx, "training started",
		"nodes", nodes,
		"edges", edges,
		"dimension", dim,
		"workers", workers,
		"total_steps", totalSteps,
		"seed", seed,
	)
}

// LogTrainDone logs the outcome of a training run.
func (l *Logger) LogTrainDone(ctx context.Context, res *Result) {
	l.InfoContext(ctx, "training completed",
		"steps", res.Steps,
		"skipped", res.Skipped,
		"duration", res.Duration,
	)
}

// LogProgress logs the global step count.
func (l *Logger) LogProgress(ctx context.Context, done, total uint64) {
	pct := 100 * float64(min(done, total)) / float64(max(total, 1))
	l.DebugContext(ctx, "training progress",
		"done", done,
		"total", total,
		"percent", pct,
	)
}

// LogLoad logs a graph load.
func (l *Logger) LogLoad(ctx context.Context, name string, nodes, edges int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "graph load failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "graph loaded",
			"name", name,
			"nodes", nodes,
			"edges", edges,
			"elapsed", elapsed,
		)
	}
}

// LogSave logs an embedding or manifest write.
func (l *Logger) LogSave(ctx context.Context, name string, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "saved",
			"name", name,
			"bytes", bytes,
		)
	}
}
