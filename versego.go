package versego

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hupe1980/versego/embedding"
	"github.com/hupe1980/versego/graph"
	"github.com/hupe1980/versego/internal/engine"
)

// Mode selects the similarity measure positive pairs are drawn from.
type Mode int

const (
	// ModeNeighbor pairs a node with a direct out-neighbor.
	ModeNeighbor Mode = iota
	// ModePPR pairs a node with the end of a restart walk.
	ModePPR
	// ModeSimRank pairs a node with the end of two chained restart walks.
	ModeSimRank
)

func (m Mode) String() string {
	switch m {
	case ModeNeighbor:
		return "neighbor"
	case ModePPR:
		return "ppr"
	case ModeSimRank:
		return "simrank"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode name as returned by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "neighbor", "neigh", "adjacency":
		return ModeNeighbor, nil
	case "ppr", "pagerank":
		return ModePPR, nil
	case "simrank":
		return ModeSimRank, nil
	default:
		return 0, &ErrInvalidConfig{Field: "mode", Value: s}
	}
}

// Result summarizes a finished training run.
type Result struct {
	Mode Mode
	// Steps is the final value of the global step counter.
	Steps uint64
	// Samples is the number of positive pairs trained.
	Samples uint64
	// Skipped counts draws that produced no positive pair.
	Skipped uint64
	Workers int
	// Seed is the master seed, useful to reproduce single-worker runs.
	Seed     uint64
	Duration time.Duration
}

// TrainNeighbor trains w with adjacency similarity.
func TrainNeighbor(ctx context.Context, g *graph.CSR, w *embedding.Matrix, optFns ...Option) (*Result, error) {
	return Train(ctx, g, w, ModeNeighbor, optFns...)
}

// TrainPPR trains w with personalized PageRank similarity.
func TrainPPR(ctx context.Context, g *graph.CSR, w *embedding.Matrix, optFns ...Option) (*Result, error) {
	return Train(ctx, g, w, ModePPR, optFns...)
}

// TrainSimRank trains w with SimRank-style similarity.
func TrainSimRank(ctx context.Context, g *graph.CSR, w *embedding.Matrix, optFns ...Option) (*Result, error) {
	return Train(ctx, g, w, ModeSimRank, optFns...)
}

// Train updates w in place until epochs × g.NumNodes() positive pairs have been
// trained. w must have one row per node and is expected to be initialized,
// for example with InitUniform.
//
// All configuration errors are reported before any worker starts; once started,
// training always runs to completion. ctx only carries logging context.
// Train does not check the result for non-finite values; call w.CheckFinite.
func Train(ctx context.Context, g *graph.CSR, w *embedding.Matrix, mode Mode, optFns ...Option) (*Result, error) {
	o := applyOptions(optFns)
	logger := o.logger.WithMode(mode)

	weights, sampler, err := prepare(g, w, mode, &o)
	if err != nil {
		logger.ErrorContext(ctx, "invalid training configuration", "error", err)
		o.metricsCollector.RecordTraining(mode, nil, err)
		return nil, err
	}

	var seed uint64
	if o.seed != nil {
		seed = *o.seed
	} else {
		seed = uint64(time.Now().UnixNano())
	}

	total := uint64(o.epochs) * uint64(g.NumNodes())

	e := engine.New(g, sampler, weights, engine.Config{
		Negatives:    o.negatives,
		LearningRate: o.learningRate,
		Workers:      o.workers,
		TotalSteps:   total,
		BatchSize:    uint64(o.batchSize),
		Seed:         seed,
		UseBias:      o.useBias,
		Progress: func(done, total uint64) {
			logger.LogProgress(ctx, done, total)
			o.metricsCollector.RecordProgress(mode, done, total)
			if o.progress != nil {
				o.progress(done, total)
			}
		},
		Logger: logger.Logger,
	})

	logger.LogTrainStart(ctx, g.NumNodes(), g.NumEdges(), w.Dim(), o.workers, total, seed)

	stats := e.Run()

	res := &Result{
		Mode:     mode,
		Steps:    stats.Steps,
		Samples:  stats.Samples,
		Skipped:  stats.Skipped,
		Workers:  o.workers,
		Seed:     seed,
		Duration: stats.Duration,
	}

	logger.LogTrainDone(ctx, res)
	o.metricsCollector.RecordTraining(mode, res, nil)

	return res, nil
}

func prepare(g *graph.CSR, w *embedding.Matrix, mode Mode, o *options) (engine.Weights, engine.Sampler, error) {
	var weights engine.Weights

	if g == nil || g.NumNodes() == 0 {
		return weights, nil, ErrEmptyGraph
	}
	if w == nil {
		return weights, nil, fmt.Errorf("%w: nil embedding matrix", ErrShapeMismatch)
	}
	if w.Dim() <= 0 {
		return weights, nil, &ErrInvalidDimension{Dimension: w.Dim()}
	}

	n, dim := g.NumNodes(), w.Dim()
	if w.Rows() != n {
		return weights, nil, shapeError("embedding", w.Rows(), w.Dim(), n, dim)
	}

	if err := o.validate(); err != nil {
		return weights, nil, err
	}

	weights.Source = w
	if o.context != nil {
		if o.context.Rows() != n || o.context.Dim() != dim {
			return weights, nil, shapeError("context", o.context.Rows(), o.context.Dim(), n, dim)
		}
		weights.Target = o.context
		weights.TargetOut = o.context
		if o.contextOut != nil {
			if o.contextOut.Rows() != n || o.contextOut.Dim() != dim {
				return weights, nil, shapeError("context output", o.contextOut.Rows(), o.contextOut.Dim(), n, dim)
			}
			weights.TargetOut = o.contextOut
		}
	}

	var sampler engine.Sampler
	switch mode {
	case ModeNeighbor:
		if g.NumEdges() == 0 {
			return weights, nil, ErrNoEdges
		}
		sampler = engine.NeighborSampler{Graph: g}
	case ModePPR:
		sampler = engine.PPRSampler{Graph: g, Alpha: o.alpha}
	case ModeSimRank:
		sampler = engine.SimRankSampler{Graph: g, Alpha: o.alpha}
	default:
		return weights, nil, &ErrUnknownMode{Mode: mode}
	}

	return weights, sampler, nil
}

func (o *options) validate() error {
	lr := float64(o.learningRate)

	switch {
	case o.epochs < 1:
		return &ErrInvalidConfig{Field: "epochs", Value: o.epochs}
	case o.negatives < 0:
		return &ErrInvalidConfig{Field: "negatives", Value: o.negatives}
	case !(lr > 0) || math.IsInf(lr, 0):
		return &ErrInvalidConfig{Field: "learning rate", Value: o.learningRate}
	case !(o.alpha >= 0 && o.alpha < 1):
		return &ErrInvalidConfig{Field: "alpha", Value: o.alpha}
	case o.workers < 1:
		return &ErrInvalidConfig{Field: "workers", Value: o.workers}
	case o.batchSize < 1:
		return &ErrInvalidConfig{Field: "batch size", Value: o.batchSize}
	}

	return nil
}
