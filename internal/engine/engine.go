package engine

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/versego/embedding"
	"github.com/hupe1980/versego/graph"
	"github.com/hupe1980/versego/internal/sigmoid"
	"github.com/hupe1980/versego/xrand"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is the number of local samples a worker processes between
// flushes to the global step counter.
const DefaultBatchSize = 10000

// ProgressFunc receives the global step count after a flush by worker 0.
// done may exceed total on the final call.
type ProgressFunc func(done, total uint64)

// Config holds the training parameters.
type Config struct {
	// Negatives is the number of negative samples per positive pair.
	Negatives int

	// LearningRate scales every gradient step.
	LearningRate float32

	// Workers is the number of concurrent training goroutines. Must be >= 1.
	Workers int

	// TotalSteps is the global sample budget (epochs × nodes). Must be >= 1;
	// New raises 0 to 1.
	TotalSteps uint64

	// BatchSize is the flush interval of the per-worker sample counter.
	// If 0, DefaultBatchSize is used.
	BatchSize uint64

	// Seed is the master seed. Per-worker seeds are derived from it.
	Seed uint64

	// UseBias subtracts the noise-contrastive bias (log N for positives,
	// log(N/Negatives) for negatives) from every score.
	UseBias bool

	// Progress, if non-nil, is invoked by worker 0 after each flush.
	Progress ProgressFunc

	// Logger, if non-nil, receives debug events.
	Logger *slog.Logger
}

// Weights names the matrices an update touches.
type Weights struct {
	// Source holds the node embeddings. Source rows are always updated in place.
	Source *embedding.Matrix

	// Target is the matrix target rows are read from. nil means Source.
	Target *embedding.Matrix

	// TargetOut receives target updates. nil means Target.
	TargetOut *embedding.Matrix
}

// Stats describes a finished run.
type Stats struct {
	// Steps is the final value of the global step counter.
	Steps uint64
	// Samples is the number of positive pairs trained, summed over workers.
	Samples uint64
	// Skipped counts iterations whose sampler produced no target.
	Skipped uint64
	// PerWorker holds each worker's sample count.
	PerWorker []uint64
	// Duration is the wall-clock time from barrier release to the last worker exiting.
	Duration time.Duration
}

// Engine runs the training loop over one graph and one set of weights.
// An Engine may be run several times; each run resets the step counter.
type Engine struct {
	cfg      Config
	sampler  Sampler
	upd      updater
	numNodes int
	posBias  float32
	negBias  float32

	step atomic.Uint64
}

// New creates an Engine. The caller guarantees that the weights have
// g.NumNodes() rows of equal width and that cfg is valid.
func New(g *graph.CSR, sampler Sampler, w Weights, cfg Config) *Engine {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.TotalSteps == 0 {
		cfg.TotalSteps = 1
	}

	target := w.Target
	if target == nil {
		target = w.Source
	}
	out := w.TargetOut
	if out == nil {
		out = target
	}

	e := &Engine{
		cfg:      cfg,
		sampler:  sampler,
		numNodes: g.NumNodes(),
		upd: updater{
			src: w.Source.Data(),
			tgt: target.Data(),
			out: out.Data(),
			dim: w.Source.Dim(),
			lr:  cfg.LearningRate,
			sig: sigmoid.New(),
		},
	}

	if cfg.UseBias {
		e.posBias = float32(math.Log(float64(e.numNodes)))
		if cfg.Negatives > 0 {
			e.negBias = float32(math.Log(float64(e.numNodes) / float64(cfg.Negatives)))
		}
	}

	return e
}

// Biases returns the positive and negative score offsets.
func (e *Engine) Biases() (pos, neg float32) {
	return e.posBias, e.negBias
}

// Steps returns the current value of the global step counter.
func (e *Engine) Steps() uint64 {
	return e.step.Load()
}

type worker struct {
	id      int
	rng     *xrand.Source
	samples uint64
	skipped uint64
}

// Run trains until the global step counter reaches TotalSteps and returns once
// every worker has stopped. Run cannot fail.
func (e *Engine) Run() Stats {
	e.step.Store(0)

	seeds := xrand.NewSplitMix64(e.cfg.Seed)
	workers := make([]*worker, e.cfg.Workers)
	for i := range workers {
		workers[i] = &worker{id: i, rng: xrand.New(seeds.Next())}
	}

	if e.cfg.Logger != nil {
		e.cfg.Logger.Debug("training workers starting",
			"workers", len(workers),
			"sampler", e.sampler.Name(),
			"total_steps", e.cfg.TotalSteps,
			"batch_size", e.cfg.BatchSize,
		)
	}

	var ready sync.WaitGroup
	ready.Add(len(workers))
	start := make(chan struct{})

	var g errgroup.Group
	for _, w := range workers {
		g.Go(func() error {
			ready.Done()
			<-start
			e.loop(w)
			return nil
		})
	}

	ready.Wait()
	began := time.Now()
	close(start)
	_ = g.Wait()

	stats := Stats{
		Steps:     e.step.Load(),
		PerWorker: make([]uint64, len(workers)),
		Duration:  time.Since(began),
	}
	for i, w := range workers {
		stats.Samples += w.samples
		stats.Skipped += w.skipped
		stats.PerWorker[i] = w.samples
	}

	if e.cfg.Logger != nil {
		e.cfg.Logger.Debug("training workers finished",
			"steps", stats.Steps,
			"skipped", stats.Skipped,
			"duration", stats.Duration,
		)
	}

	return stats
}

func (e *Engine) loop(w *worker) {
	var (
		n         = e.numNodes
		rng       = w.rng
		upd       = &e.upd
		negatives = e.cfg.Negatives
		batch     = e.cfg.BatchSize
		total     = e.cfg.TotalSteps
		samples   uint64
		flushed   uint64
		skipped   uint64
	)

	for {
		if samples-flushed >= batch {
			done := e.step.Add(samples - flushed)
			flushed = samples
			if w.id == 0 && e.cfg.Progress != nil {
				e.cfg.Progress(done, total)
			}
			if done >= total {
				break
			}
		}

		src := int32(rng.Intn(n))
		dst, ok := e.sampler.Sample(src, rng)
		if !ok {
			skipped++
			continue
		}

		upd.update(src, dst, 1, e.posBias)
		for range negatives {
			upd.update(src, int32(rng.Intn(n)), 0, e.negBias)
		}
		samples++
	}

	w.samples = samples
	w.skipped = skipped
}
