package versego

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/versego/embedding"
	"github.com/hupe1980/versego/internal/engine"
)

const (
	// DefaultEpochs is the default number of positive pairs per node.
	DefaultEpochs = 100000
	// DefaultNegatives is the default number of negative samples per pair.
	DefaultNegatives = 3
	// DefaultLearningRate is the default SGD step size.
	DefaultLearningRate = 0.0025
	// DefaultAlpha is the default walk continuation probability.
	DefaultAlpha = 0.85
	// DefaultBatchSize is the default flush interval of the step counter.
	DefaultBatchSize = engine.DefaultBatchSize
)

// ProgressFunc receives the global step count and the step budget.
type ProgressFunc func(done, total uint64)

type options struct {
	epochs           int
	negatives        int
	learningRate     float32
	alpha            float64
	workers          int
	seed             *uint64
	batchSize        int
	useBias          bool
	context          *embedding.Matrix
	contextOut       *embedding.Matrix
	progress         ProgressFunc
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures a training run.
type Option func(*options)

// WithEpochs sets the number of positive pairs per node. Training stops once
// epochs × N pairs have been counted.
func WithEpochs(epochs int) Option {
	return func(o *options) {
		o.epochs = epochs
	}
}

// WithNegatives sets the number of negative samples per positive pair.
// Zero disables negative sampling.
func WithNegatives(n int) Option {
	return func(o *options) {
		o.negatives = n
	}
}

// WithLearningRate sets the SGD step size.
func WithLearningRate(lr float32) Option {
	return func(o *options) {
		o.learningRate = lr
	}
}

// WithAlpha sets the walk continuation probability used by ModePPR and
// ModeSimRank. It must lie in [0, 1).
func WithAlpha(alpha float64) Option {
	return func(o *options) {
		o.alpha = alpha
	}
}

// WithWorkers sets the number of concurrent workers.
// Default is runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithSeed fixes the master seed. Without it a wall-clock seed is used and
// reported in Result.Seed.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = &seed
	}
}

// WithBatchSize sets how many local samples a worker processes between
// updates of the shared step counter.
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

// WithoutBias disables the noise-contrastive score offsets.
func WithoutBias() Option {
	return func(o *options) {
		o.useBias = false
	}
}

// WithContextBuffer trains against a separate context matrix. Target rows are
// read from ctx and their updates are written to out. If out is nil, ctx is
// updated in place. Both must have the shape of the node matrix.
func WithContextBuffer(ctx, out *embedding.Matrix) Option {
	return func(o *options) {
		o.context = ctx
		o.contextOut = out
	}
}

// WithProgress registers a progress callback. It is invoked from a worker
// goroutine and must be fast.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &versego.BasicMetricsCollector{}
//	_, _ = versego.TrainPPR(ctx, g, w, versego.WithMetricsCollector(metrics))
//	fmt.Println(metrics.GetStats().Samples)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		epochs:           DefaultEpochs,
		negatives:        DefaultNegatives,
		learningRate:     DefaultLearningRate,
		alpha:            DefaultAlpha,
		workers:          runtime.GOMAXPROCS(0),
		batchSize:        DefaultBatchSize,
		useBias:          true,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
