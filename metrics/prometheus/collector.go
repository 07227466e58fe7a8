// Package prometheus exports training metrics through prometheus/client_golang.
package prometheus

import (
	"github.com/hupe1980/versego"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements versego.MetricsCollector.
type Collector struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	steps    *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	progress *prometheus.GaugeVec
}

var _ versego.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers its metrics with reg.
// A nil reg means prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "versego",
			Name:      "training_runs_total",
			Help:      "Training runs by mode and status",
		}, []string{"mode", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "versego",
			Name:      "training_duration_seconds",
			Help:      "Wall-clock time of successful training runs",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 10),
		}, []string{"mode"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "versego",
			Name:      "training_steps_total",
			Help:      "Samples counted by the global step counter",
		}, []string{"mode"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "versego",
			Name:      "training_skipped_samples_total",
			Help:      "Sampling attempts that hit a dead end",
		}, []string{"mode"}),
		progress: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "versego",
			Name:      "training_progress_ratio",
			Help:      "Fraction of the step budget consumed by the running job",
		}, []string{"mode"}),
	}

	reg.MustRegister(c.runs, c.duration, c.steps, c.skipped, c.progress)
	return c
}

// RecordTraining implements versego.MetricsCollector.
func (c *Collector) RecordTraining(mode versego.Mode, res *versego.Result, err error) {
	m := mode.String()
	if err != nil {
		c.runs.WithLabelValues(m, "error").Inc()
		return
	}

	c.runs.WithLabelValues(m, "ok").Inc()
	c.duration.WithLabelValues(m).Observe(res.Duration.Seconds())
	c.steps.WithLabelValues(m).Add(float64(res.Steps))
	c.skipped.WithLabelValues(m).Add(float64(res.Skipped))
	c.progress.WithLabelValues(m).Set(1)
}

// RecordProgress implements versego.MetricsCollector.
func (c *Collector) RecordProgress(mode versego.Mode, done, total uint64) {
	if total == 0 {
		return
	}
	c.progress.WithLabelValues(mode.String()).Set(min(1, float64(done)/float64(total)))
}
