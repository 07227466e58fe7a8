package job

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hupe1980/versego"
	"github.com/hupe1980/versego/blobstore"
	"github.com/hupe1980/versego/embedding"
	"github.com/hupe1980/versego/graph/xgfs"
	"github.com/hupe1980/versego/internal/hash"
	"github.com/hupe1980/versego/manifest"
	"github.com/hupe1980/versego/resource"
	"github.com/hupe1980/versego/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T, nodes int) *blobstore.MemoryStore {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, xgfs.Write(&buf, testutil.Ring(nodes), nil))

	s := blobstore.NewMemoryStore()
	require.NoError(t, s.Put(context.Background(), "graphs/ring.xgfs", buf.Bytes()))
	return s
}

func smallConfig() Config {
	seed := uint64(7)
	return Config{
		Graph:     "graphs/ring.xgfs",
		Mode:      "ppr",
		Dim:       8,
		Epochs:    20,
		Workers:   1,
		BatchSize: 10,
		Seed:      &seed,
	}
}

func TestNew_Defaults(t *testing.T) {
	s := blobstore.NewMemoryStore()
	j, err := New(Config{Graph: "graphs/karate.xgfs", Compression: "zstd"}, s, s)
	require.NoError(t, err)

	cfg := j.Config()
	assert.Equal(t, DefaultDim, cfg.Dim)
	assert.Equal(t, "simrank", cfg.Mode)
	assert.Equal(t, "graphs/karate.emb.zst", cfg.Output)
}

func TestNew_Errors(t *testing.T) {
	s := blobstore.NewMemoryStore()

	_, err := New(Config{}, s, s)
	assert.ErrorIs(t, err, ErrNoGraph)

	_, err = New(Config{Graph: "g", Mode: "deepwalk"}, s, s)
	var cfgErr *versego.ErrInvalidConfig
	assert.ErrorAs(t, err, &cfgErr)

	_, err = New(Config{Graph: "g", Compression: "brotli"}, s, s)
	assert.Error(t, err)

	_, err = New(Config{Graph: "g", Dim: -1}, s, s)
	var dimErr *versego.ErrInvalidDimension
	assert.ErrorAs(t, err, &dimErr)
}

func TestRun_WritesEmbeddingAndManifest(t *testing.T) {
	ctx := context.Background()
	in := seedStore(t, 6)
	out := blobstore.NewMemoryStore()

	cfg := smallConfig()
	cfg.Compression = "zstd"

	metrics := &versego.BasicMetricsCollector{}
	var progressCalls int
	j, err := New(cfg, in, out,
		WithMetricsCollector(metrics),
		WithProgress(func(done, total uint64) { progressCalls++ }),
		WithResourceController(resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20})),
	)
	require.NoError(t, err)

	m, err := j.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, "ppr", m.Mode)
	assert.Equal(t, manifest.Graph{Name: "graphs/ring.xgfs", Nodes: 6, Edges: 12}, m.Graph)
	assert.Equal(t, uint64(7), m.Seed)
	assert.Equal(t, uint64(120), m.Steps)
	assert.Equal(t, 3, m.Params.Negatives)
	assert.True(t, m.Params.UseBias)
	assert.Nil(t, m.Context)
	assert.Nil(t, m.Index)
	assert.Equal(t, int64(1), metrics.RunCount.Load())
	assert.Equal(t, 12, progressCalls)

	raw, err := blobstore.Get(ctx, out, "graphs/ring.emb.zst")
	require.NoError(t, err)
	assert.Equal(t, int64(len(raw)), m.Embedding.Size)
	assert.Equal(t, hash.CRC32C(raw), m.Embedding.CRC32C)
	assert.Equal(t, "zstd", m.Embedding.Compression)

	w, err := embedding.Decode(bytes.NewReader(raw), 8, embedding.CompressionZSTD)
	require.NoError(t, err)
	assert.Equal(t, 6, w.Rows())
	require.NoError(t, w.CheckFinite())

	cur, err := manifest.NewStore(out).LoadCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, m.ID, cur.ID)
}

func TestRun_ContextBufferAndLabels(t *testing.T) {
	ctx := context.Background()
	in := seedStore(t, 4)

	var idx bytes.Buffer
	require.NoError(t, embedding.WriteIndex(&idx, []string{"a", "b", "c", "d"}))
	require.NoError(t, in.Put(ctx, "graphs/ring.index", idx.Bytes()))

	out := blobstore.NewMemoryStore()
	cfg := smallConfig()
	cfg.Labels = "graphs/ring.index"
	cfg.Output = "runs/ring.emb"
	cfg.ContextBuffer = true

	j, err := New(cfg, in, out)
	require.NoError(t, err)
	m, err := j.Run(ctx)
	require.NoError(t, err)

	require.NotNil(t, m.Context)
	assert.Equal(t, "runs/ring.ctx.emb", m.Context.Name)
	require.NotNil(t, m.Index)
	assert.Equal(t, "runs/ring.index", m.Index.Name)

	raw, err := blobstore.Get(ctx, out, "runs/ring.index")
	require.NoError(t, err)
	assert.Equal(t, idx.Bytes(), raw)

	raw, err = blobstore.Get(ctx, out, "runs/ring.ctx.emb")
	require.NoError(t, err)
	assert.Len(t, raw, 4*8*4)
}

func TestRun_DivergenceIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	in := seedStore(t, 6)

	cfg := smallConfig()
	cfg.LearningRate = 1e30

	j, err := New(cfg, in, in)
	require.NoError(t, err)

	_, err = j.Run(ctx)
	require.ErrorIs(t, err, embedding.ErrNonFinite)

	names, err := in.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"graphs/ring.xgfs"}, names)
}

var errIndexWrite = errors.New("index write refused")

// indexFailingStore refuses to create index blobs.
type indexFailingStore struct {
	*blobstore.MemoryStore
}

func (s indexFailingStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	if strings.HasSuffix(name, ".index") {
		return nil, errIndexWrite
	}
	return s.MemoryStore.Create(ctx, name)
}

func TestRun_FailedWriteDiscardsEarlierBlobs(t *testing.T) {
	ctx := context.Background()
	in := seedStore(t, 4)

	var idx bytes.Buffer
	require.NoError(t, embedding.WriteIndex(&idx, []string{"a", "b", "c", "d"}))
	require.NoError(t, in.Put(ctx, "graphs/ring.index", idx.Bytes()))

	out := indexFailingStore{blobstore.NewMemoryStore()}
	cfg := smallConfig()
	cfg.Labels = "graphs/ring.index"
	cfg.Output = "runs/ring.emb"
	cfg.ContextBuffer = true

	j, err := New(cfg, in, out)
	require.NoError(t, err)

	_, err = j.Run(ctx)
	require.ErrorIs(t, err, errIndexWrite)

	names, err := out.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestRun_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing graph", func(t *testing.T) {
		s := blobstore.NewMemoryStore()
		j, err := New(smallConfig(), s, s)
		require.NoError(t, err)
		_, err = j.Run(ctx)
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("corrupt graph", func(t *testing.T) {
		s := blobstore.NewMemoryStore()
		require.NoError(t, s.Put(ctx, "graphs/ring.xgfs", []byte("not a graph at all, really")))
		j, err := New(smallConfig(), s, s)
		require.NoError(t, err)
		_, err = j.Run(ctx)
		assert.ErrorIs(t, err, xgfs.ErrBadMagic)
	})

	t.Run("memory limit", func(t *testing.T) {
		s := seedStore(t, 6)
		j, err := New(smallConfig(), s, s,
			WithResourceController(resource.NewController(resource.Config{MemoryLimitBytes: 64})))
		require.NoError(t, err)
		_, err = j.Run(ctx)
		assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	})

	t.Run("label out of range", func(t *testing.T) {
		s := seedStore(t, 4)
		require.NoError(t, s.Put(ctx, "labels", []byte("9,x\n")))
		cfg := smallConfig()
		cfg.Labels = "labels"
		j, err := New(cfg, s, s)
		require.NoError(t, err)
		_, err = j.Run(ctx)
		assert.ErrorContains(t, err, "outside")
	})

	t.Run("invalid training config", func(t *testing.T) {
		s := seedStore(t, 4)
		cfg := smallConfig()
		alpha := 1.5
		cfg.Alpha = &alpha
		j, err := New(cfg, s, s)
		require.NoError(t, err)
		_, err = j.Run(ctx)
		var cfgErr *versego.ErrInvalidConfig
		assert.ErrorAs(t, err, &cfgErr)
	})
}
