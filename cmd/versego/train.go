package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/hupe1980/versego"
	"github.com/hupe1980/versego/job"
	promcollector "github.com/hupe1980/versego/metrics/prometheus"
	"github.com/hupe1980/versego/resource"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

type trainFlags struct {
	config      string
	outputStore string
	output      string
	labels      string
	mode        string
	dim         int
	epochs      int
	negatives   int
	lr          float32
	alpha       float64
	workers     int
	batchSize   int
	seed        uint64
	noBias      bool
	ctxBuffer   bool
	compression string
	metricsAddr string
	memLimit    int64
	ioLimit     int64
	quiet       bool
}

func newTrainCmd(g *globalFlags) *cobra.Command {
	f := &trainFlags{}

	cmd := &cobra.Command{
		Use:   "train [graph-uri]",
		Short: "Train embeddings for an XGFS graph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadTrainConfig(f.config)
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			if len(args) == 1 {
				cfg.Input = args[0]
			}
			if cfg.Input == "" {
				return errors.New("no graph given")
			}
			return runTrain(cmd, g, cfg, f.quiet)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.config, "config", "", "YAML file with training settings")
	fs.StringVar(&f.outputStore, "output-store", "", "store URI for results (default: the graph's store)")
	fs.StringVarP(&f.output, "output", "o", "", "embedding blob name")
	fs.StringVar(&f.labels, "labels", "", "label index blob name in the graph's store")
	fs.StringVar(&f.mode, "mode", job.DefaultMode.String(), "similarity (neighbor, ppr, simrank)")
	fs.IntVar(&f.dim, "dim", job.DefaultDim, "embedding dimension")
	fs.IntVar(&f.epochs, "epochs", versego.DefaultEpochs, "positive samples per node")
	fs.IntVar(&f.negatives, "negatives", versego.DefaultNegatives, "negative samples per positive")
	fs.Float32Var(&f.lr, "lr", versego.DefaultLearningRate, "learning rate")
	fs.Float64Var(&f.alpha, "alpha", versego.DefaultAlpha, "walk continuation probability")
	fs.IntVar(&f.workers, "workers", 0, "worker goroutines (default GOMAXPROCS)")
	fs.IntVar(&f.batchSize, "batch-size", versego.DefaultBatchSize, "samples between step counter flushes")
	fs.Uint64Var(&f.seed, "seed", 0, "master seed (default: wall clock)")
	fs.BoolVar(&f.noBias, "no-bias", false, "disable the noise-contrastive score offsets")
	fs.BoolVar(&f.ctxBuffer, "context-buffer", false, "train a separate context matrix and store it")
	fs.StringVar(&f.compression, "compression", "none", "embedding compression (none, lz4, zstd)")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fs.Int64Var(&f.memLimit, "memory-limit", 0, "memory limit in bytes for graph and embeddings")
	fs.Int64Var(&f.ioLimit, "io-limit", 0, "upload limit in bytes per second")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "do not print progress")

	return cmd
}

// apply copies explicitly set flags over the file configuration.
func (f *trainFlags) apply(cmd *cobra.Command, cfg *trainConfig) {
	set := cmd.Flags().Changed
	c := &cfg.Job

	if set("output-store") {
		cfg.OutputStore = f.outputStore
	}
	if set("output") {
		c.Output = f.output
	}
	if set("labels") {
		c.Labels = f.labels
	}
	if set("mode") || c.Mode == "" {
		c.Mode = f.mode
	}
	if set("dim") || c.Dim == 0 {
		c.Dim = f.dim
	}
	if set("epochs") {
		c.Epochs = f.epochs
	}
	if set("negatives") {
		c.Negatives = &f.negatives
	}
	if set("lr") {
		c.LearningRate = f.lr
	}
	if set("alpha") {
		c.Alpha = &f.alpha
	}
	if set("workers") {
		c.Workers = f.workers
	}
	if set("batch-size") {
		c.BatchSize = f.batchSize
	}
	if set("seed") {
		c.Seed = &f.seed
	}
	if set("no-bias") {
		c.NoBias = f.noBias
	}
	if set("context-buffer") {
		c.ContextBuffer = f.ctxBuffer
	}
	if set("compression") {
		c.Compression = f.compression
	}
	if set("metrics-addr") {
		cfg.MetricsAddr = f.metricsAddr
	}
	if set("memory-limit") {
		cfg.Resources.MemoryLimitBytes = f.memLimit
	}
	if set("io-limit") {
		cfg.Resources.IOLimitBytesPerSec = f.ioLimit
	}
}

func runTrain(cmd *cobra.Command, g *globalFlags, cfg *trainConfig, quiet bool) error {
	ctx := cmd.Context()

	logger, err := g.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	storeURI, name, err := splitBlobURI(cfg.Input)
	if err != nil {
		return err
	}
	in, err := openStore(ctx, storeURI)
	if err != nil {
		return err
	}
	out := in
	if cfg.OutputStore != "" {
		if out, err = openStore(ctx, cfg.OutputStore); err != nil {
			return err
		}
	}
	cfg.Job.Graph = name

	opts := []job.Option{
		job.WithLogger(logger),
		job.WithResourceController(resource.NewController(resource.Config{
			MemoryLimitBytes:   cfg.Resources.MemoryLimitBytes,
			IOLimitBytesPerSec: cfg.Resources.IOLimitBytesPerSec,
		})),
	}

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, job.WithMetricsCollector(promcollector.New(reg)))

		stop, err := serveMetrics(ctx, cfg.MetricsAddr, reg)
		if err != nil {
			return err
		}
		defer stop()
		logger.InfoContext(ctx, "serving metrics", "addr", cfg.MetricsAddr)
	}

	if !quiet {
		progress := &rate.Sometimes{First: 1, Interval: time.Second}
		w := cmd.ErrOrStderr()
		opts = append(opts, job.WithProgress(func(done, total uint64) {
			progress.Do(func() {
				fmt.Fprintf(w, "\rprogress: %.2f%%", 100*float64(min(done, total))/float64(max(total, 1)))
			})
		}))
	}

	j, err := job.New(cfg.Job, in, out, opts...)
	if err != nil {
		return err
	}

	m, err := j.Run(ctx)
	if !quiet {
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %s (%d steps, %s)\n", m.ID, m.Embedding.Name, m.Steps, m.Duration())
	return nil
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() { _ = srv.Serve(ln) }()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
