package versego

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting training metrics.
// Implement this interface to integrate with monitoring systems like Prometheus
// (see package metrics/prometheus).
type MetricsCollector interface {
	// RecordTraining is called after each training run.
	// err is nil if the run was started and completed.
	RecordTraining(mode Mode, res *Result, err error)

	// RecordProgress is called whenever the global step counter is flushed
	// by the reporting worker.
	RecordProgress(mode Mode, done, total uint64)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordTraining(Mode, *Result, error)  {}
func (NoopMetricsCollector) RecordProgress(Mode, uint64, uint64) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	RunCount      atomic.Int64
	RunErrors     atomic.Int64
	RunTotalNanos atomic.Int64
	Steps         atomic.Uint64
	Samples       atomic.Uint64
	Skipped       atomic.Uint64
	LastDone      atomic.Uint64
	LastTotal     atomic.Uint64
}

// RecordTraining implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTraining(_ Mode, res *Result, err error) {
	b.RunCount.Add(1)
	if err != nil {
		b.RunErrors.Add(1)
		return
	}
	b.RunTotalNanos.Add(res.Duration.Nanoseconds())
	b.Steps.Add(res.Steps)
	b.Samples.Add(res.Samples)
	b.Skipped.Add(res.Skipped)
}

// RecordProgress implements MetricsCollector.
func (b *BasicMetricsCollector) RecordProgress(_ Mode, done, total uint64) {
	b.LastDone.Store(done)
	b.LastTotal.Store(total)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		RunCount:    b.RunCount.Load(),
		RunErrors:   b.RunErrors.Load(),
		RunAvgNanos: b.getAvgRunNanos(),
		Steps:       b.Steps.Load(),
		Samples:     b.Samples.Load(),
		Skipped:     b.Skipped.Load(),
		LastDone:    b.LastDone.Load(),
		LastTotal:   b.LastTotal.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgRunNanos() int64 {
	count := b.RunCount.Load() - b.RunErrors.Load()
	if count <= 0 {
		return 0
	}
	return b.RunTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	RunCount    int64
	RunErrors   int64
	RunAvgNanos int64
	Steps       uint64
	Samples     uint64
	Skipped     uint64
	LastDone    uint64
	LastTotal   uint64
}

// AvgRunDuration returns the mean duration of successful runs.
func (s BasicMetricsStats) AvgRunDuration() time.Duration {
	return time.Duration(s.RunAvgNanos)
}
