package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/versego"
	"github.com/hupe1980/versego/blobstore"
	"github.com/hupe1980/versego/embedding"
	"github.com/hupe1980/versego/graph"
	"github.com/hupe1980/versego/graph/xgfs"
	"github.com/hupe1980/versego/internal/hash"
	"github.com/hupe1980/versego/manifest"
	"github.com/hupe1980/versego/resource"
	"github.com/hupe1980/versego/xrand"
)

// Config describes a training job. Zero values select the library defaults.
type Config struct {
	// Graph is the XGFS blob in the input store.
	Graph string `yaml:"graph"`
	// Labels is an optional index blob ("row,label" lines) in the input store.
	Labels string `yaml:"labels"`
	// Output is the embedding blob in the output store. Defaults to the graph
	// name with its extension replaced by ".emb".
	Output string `yaml:"output"`

	Mode          string   `yaml:"mode"`
	Dim           int      `yaml:"dim"`
	Epochs        int      `yaml:"epochs"`
	Negatives     *int     `yaml:"negatives"`
	LearningRate  float32  `yaml:"learning_rate"`
	Alpha         *float64 `yaml:"alpha"`
	Workers       int      `yaml:"workers"`
	BatchSize     int      `yaml:"batch_size"`
	Seed          *uint64  `yaml:"seed"`
	NoBias        bool     `yaml:"no_bias"`
	ContextBuffer bool     `yaml:"context_buffer"`
	Compression   string   `yaml:"compression"`
}

const (
	// DefaultDim is the embedding width used when Config.Dim is zero.
	DefaultDim = 128
	// DefaultMode is used when Config.Mode is empty.
	DefaultMode = versego.ModeSimRank
)

// ErrNoGraph is returned when Config.Graph is empty.
var ErrNoGraph = errors.New("job: no graph configured")

// Job is a configured training job. A Job may be run more than once; every run
// gets its own id and manifest.
type Job struct {
	cfg         Config
	mode        versego.Mode
	compression embedding.Compression

	in        blobstore.BlobStore
	out       blobstore.BlobStore
	manifests *manifest.Store

	rc       *resource.Controller
	logger   *versego.Logger
	metrics  versego.MetricsCollector
	progress versego.ProgressFunc
}

// Option configures a Job.
type Option func(*Job)

// WithResourceController limits memory, concurrency and upload bandwidth.
func WithResourceController(rc *resource.Controller) Option {
	return func(j *Job) {
		j.rc = rc
	}
}

// WithLogger sets the logger. Nil disables logging.
func WithLogger(l *versego.Logger) Option {
	return func(j *Job) {
		if l == nil {
			l = versego.NoopLogger()
		}
		j.logger = l
	}
}

// WithMetricsCollector forwards training metrics to mc.
func WithMetricsCollector(mc versego.MetricsCollector) Option {
	return func(j *Job) {
		j.metrics = mc
	}
}

// WithProgress registers a training progress callback.
func WithProgress(fn versego.ProgressFunc) Option {
	return func(j *Job) {
		j.progress = fn
	}
}

// WithManifestStore commits manifests somewhere other than the output store.
func WithManifestStore(s *manifest.Store) Option {
	return func(j *Job) {
		j.manifests = s
	}
}

// New validates cfg and creates a Job reading from in and writing to out.
func New(cfg Config, in, out blobstore.BlobStore, opts ...Option) (*Job, error) {
	if cfg.Graph == "" {
		return nil, ErrNoGraph
	}

	if cfg.Mode == "" {
		cfg.Mode = DefaultMode.String()
	}
	mode, err := versego.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	comp, err := embedding.ParseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}
	if cfg.Dim == 0 {
		cfg.Dim = DefaultDim
	}
	if cfg.Dim < 0 {
		return nil, &versego.ErrInvalidDimension{Dimension: cfg.Dim}
	}
	if cfg.Output == "" {
		cfg.Output = strings.TrimSuffix(cfg.Graph, path.Ext(cfg.Graph)) + ".emb" + comp.Extension()
	}

	j := &Job{
		cfg:         cfg,
		mode:        mode,
		compression: comp,
		in:          in,
		out:         out,
		logger:      versego.NoopLogger(),
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.manifests == nil {
		j.manifests = manifest.NewStore(out)
	}
	return j, nil
}

// Config returns the effective configuration.
func (j *Job) Config() Config {
	return j.cfg
}

// Run executes the job and returns the committed manifest.
func (j *Job) Run(ctx context.Context) (*manifest.Manifest, error) {
	if err := j.rc.AcquireJob(ctx); err != nil {
		return nil, err
	}
	defer j.rc.ReleaseJob()

	id := uuid.NewString()
	logger := j.logger.WithRunID(id).WithMode(j.mode)

	g, err := j.loadGraph(ctx, logger)
	if err != nil {
		return nil, err
	}

	var labels []string
	if j.cfg.Labels != "" {
		if labels, err = j.loadLabels(ctx, g.NumNodes()); err != nil {
			return nil, err
		}
	}

	n, dim := g.NumNodes(), j.cfg.Dim
	matrices := int64(1)
	if j.cfg.ContextBuffer {
		matrices = 2
	}
	release, err := j.rc.ReserveMemory(ctx, g.SizeBytes()+matrices*int64(n)*int64(dim)*4)
	if err != nil {
		return nil, fmt.Errorf("job: reserve memory: %w", err)
	}
	defer release()

	seed := uint64(time.Now().UnixNano())
	if j.cfg.Seed != nil {
		seed = *j.cfg.Seed
	}

	w := embedding.NewMatrix(n, dim)
	w.InitUniform(xrand.New(seed))

	opts := j.trainOptions(logger, seed)
	var wctx *embedding.Matrix
	if j.cfg.ContextBuffer {
		wctx = embedding.NewMatrix(n, dim)
		opts = append(opts, versego.WithContextBuffer(wctx, nil))
	}

	res, err := versego.Train(ctx, g, w, j.mode, opts...)
	if err != nil {
		return nil, err
	}
	if err := w.CheckFinite(); err != nil {
		logger.ErrorContext(ctx, "training diverged", "error", err)
		return nil, fmt.Errorf("job: %w", err)
	}

	m := &manifest.Manifest{
		ID:    id,
		Mode:  j.mode.String(),
		Graph: manifest.Graph{Name: j.cfg.Graph, Nodes: n, Edges: g.NumEdges()},
		Params: manifest.Params{
			Dim:           dim,
			Epochs:        j.cfg.Epochs,
			Negatives:     j.cfg.negatives(),
			LearningRate:  j.cfg.learningRate(),
			Alpha:         j.cfg.alpha(),
			Workers:       res.Workers,
			BatchSize:     j.cfg.BatchSize,
			UseBias:       !j.cfg.NoBias,
			ContextBuffer: j.cfg.ContextBuffer,
		},
		Seed:       res.Seed,
		Steps:      res.Steps,
		Samples:    res.Samples,
		Skipped:    res.Skipped,
		DurationMS: res.Duration.Milliseconds(),
	}
	if m.Params.Epochs == 0 {
		m.Params.Epochs = versego.DefaultEpochs
	}
	if m.Params.BatchSize == 0 {
		m.Params.BatchSize = versego.DefaultBatchSize
	}

	if m.Embedding, err = j.writeMatrix(ctx, logger, j.cfg.Output, w); err != nil {
		return nil, err
	}
	written := []string{m.Embedding.Name}
	if wctx != nil {
		name := j.sibling(".ctx.emb" + j.compression.Extension())
		b, err := j.writeMatrix(ctx, logger, name, wctx)
		if err != nil {
			j.discard(ctx, logger, written)
			return nil, err
		}
		m.Context = &b
		written = append(written, name)
	}
	if labels != nil {
		b, err := j.writeIndex(ctx, logger, labels)
		if err != nil {
			j.discard(ctx, logger, written)
			return nil, err
		}
		m.Index = &b
		written = append(written, b.Name)
	}

	if err := j.manifests.Save(ctx, m); err != nil {
		logger.LogSave(ctx, manifest.Name(id), 0, err)
		j.discard(ctx, logger, written)
		return nil, err
	}
	logger.InfoContext(ctx, "manifest committed", "name", manifest.Name(id))

	return m, nil
}

func (j *Job) trainOptions(logger *versego.Logger, seed uint64) []versego.Option {
	opts := []versego.Option{
		versego.WithSeed(seed),
		versego.WithLogger(logger),
		versego.WithMetricsCollector(j.metrics),
		versego.WithProgress(j.progress),
	}
	if j.cfg.Epochs != 0 {
		opts = append(opts, versego.WithEpochs(j.cfg.Epochs))
	}
	if j.cfg.Negatives != nil {
		opts = append(opts, versego.WithNegatives(*j.cfg.Negatives))
	}
	if j.cfg.LearningRate != 0 {
		opts = append(opts, versego.WithLearningRate(j.cfg.LearningRate))
	}
	if j.cfg.Alpha != nil {
		opts = append(opts, versego.WithAlpha(*j.cfg.Alpha))
	}
	if j.cfg.Workers != 0 {
		opts = append(opts, versego.WithWorkers(j.cfg.Workers))
	}
	if j.cfg.BatchSize != 0 {
		opts = append(opts, versego.WithBatchSize(j.cfg.BatchSize))
	}
	if j.cfg.NoBias {
		opts = append(opts, versego.WithoutBias())
	}
	return opts
}

func (c Config) negatives() int {
	if c.Negatives != nil {
		return *c.Negatives
	}
	return versego.DefaultNegatives
}

func (c Config) learningRate() float32 {
	if c.LearningRate != 0 {
		return c.LearningRate
	}
	return versego.DefaultLearningRate
}

func (c Config) alpha() float64 {
	if c.Alpha != nil {
		return *c.Alpha
	}
	return versego.DefaultAlpha
}

func (j *Job) loadGraph(ctx context.Context, logger *versego.Logger) (*graph.CSR, error) {
	start := time.Now()

	b, err := j.in.Open(ctx, j.cfg.Graph)
	if err != nil {
		logger.LogLoad(ctx, j.cfg.Graph, 0, 0, 0, err)
		return nil, fmt.Errorf("job: open graph: %w", err)
	}
	defer b.Close()

	g, _, err := xgfs.Read(ctx, b)
	if err != nil {
		logger.LogLoad(ctx, j.cfg.Graph, 0, 0, 0, err)
		return nil, fmt.Errorf("job: decode graph %s: %w", j.cfg.Graph, err)
	}

	logger.LogLoad(ctx, j.cfg.Graph, g.NumNodes(), g.NumEdges(), time.Since(start), nil)
	return g, nil
}

// loadLabels reads the label index and orders it by row.
func (j *Job) loadLabels(ctx context.Context, nodes int) ([]string, error) {
	b, err := j.in.Open(ctx, j.cfg.Labels)
	if err != nil {
		return nil, fmt.Errorf("job: open labels: %w", err)
	}
	defer b.Close()

	index, err := embedding.ReadIndex(blobstore.NewReader(ctx, b))
	if err != nil {
		return nil, fmt.Errorf("job: read labels %s: %w", j.cfg.Labels, err)
	}

	labels := make([]string, nodes)
	for label, row := range index {
		if row < 0 || row >= nodes {
			return nil, fmt.Errorf("job: label %q maps to row %d outside [0,%d)", label, row, nodes)
		}
		labels[row] = label
	}
	return labels, nil
}

func (j *Job) writeMatrix(ctx context.Context, logger *versego.Logger, name string, m *embedding.Matrix) (manifest.Blob, error) {
	b := manifest.Blob{
		Name:        name,
		Compression: j.compression.String(),
		Rows:        m.Rows(),
		Dim:         m.Dim(),
	}

	size, sum, err := j.write(ctx, name, func(w io.Writer) error {
		return embedding.Encode(w, m, j.compression)
	})
	logger.LogSave(ctx, name, size, err)
	if err != nil {
		return b, err
	}

	b.Size, b.CRC32C = size, sum
	return b, nil
}

func (j *Job) writeIndex(ctx context.Context, logger *versego.Logger, labels []string) (manifest.Blob, error) {
	name := j.sibling(".index")

	size, sum, err := j.write(ctx, name, func(w io.Writer) error {
		return embedding.WriteIndex(w, labels)
	})
	logger.LogSave(ctx, name, size, err)
	if err != nil {
		return manifest.Blob{}, err
	}
	return manifest.Blob{Name: name, Size: size, CRC32C: sum, Rows: len(labels)}, nil
}

// discard removes blobs of a run that will not be committed. A blob no
// manifest references is never read, so failures are only logged.
func (j *Job) discard(ctx context.Context, logger *versego.Logger, names []string) {
	ctx = context.WithoutCancel(ctx)
	for _, name := range names {
		if err := j.out.Delete(ctx, name); err != nil {
			logger.WarnContext(ctx, "failed to discard blob", "name", name, "error", err)
		}
	}
}

// sibling names a blob next to the embedding output: "runs/x.emb.zst" with
// suffix ".index" gives "runs/x.index".
func (j *Job) sibling(suffix string) string {
	base := strings.TrimSuffix(j.cfg.Output, j.compression.Extension())
	return strings.TrimSuffix(base, path.Ext(base)) + suffix
}

// write streams fn's output into a new blob, rate limited by the resource
// controller, and returns its size and CRC32C.
func (j *Job) write(ctx context.Context, name string, fn func(io.Writer) error) (int64, uint32, error) {
	wb, err := j.out.Create(ctx, name)
	if err != nil {
		return 0, 0, fmt.Errorf("job: create %s: %w", name, err)
	}

	cw := hash.NewWriter(resource.NewRateLimitedWriter(ctx, wb, j.rc))
	if err := fn(cw); err != nil {
		_ = wb.Close()
		_ = j.out.Delete(ctx, name)
		return 0, 0, fmt.Errorf("job: write %s: %w", name, err)
	}
	if err := wb.Close(); err != nil {
		return 0, 0, fmt.Errorf("job: commit %s: %w", name, err)
	}
	return cw.Count(), cw.Sum32(), nil
}
