package engine

import (
	"math"
	"testing"

	"github.com/hupe1980/versego/embedding"
	"github.com/hupe1980/versego/graph"
	"github.com/hupe1980/versego/internal/race"
	"github.com/hupe1980/versego/internal/sigmoid"
	"github.com/hupe1980/versego/testutil"
	"github.com/hupe1980/versego/xrand"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initMatrix(rows, dim int, seed uint64) *embedding.Matrix {
	return testutil.Matrix(testutil.NewRNG(seed), rows, dim)
}

func TestUpdater_InPlace(t *testing.T) {
	data := []float32{1, 0, 0, 1}
	sig := sigmoid.New()
	u := updater{src: data, tgt: data, out: data, dim: 2, lr: 0.1, sig: sig}

	g := (1 - sig.Eval(0)) * 0.1
	u.update(0, 1, 1, 0)

	// target row first, then source with the updated target
	assert.InDelta(t, g*1, data[2], 1e-6)
	assert.InDelta(t, 1, data[3], 1e-6)
	assert.InDelta(t, 1+g*(g*1), data[0], 1e-6)
	assert.InDelta(t, g*1, data[1], 1e-6)
}

func TestUpdater_ContextBuffer(t *testing.T) {
	src := []float32{1, 0, 0, 0}
	tgt := []float32{0, 0, 0, 1}
	out := []float32{0, 0, 0, 1}
	sig := sigmoid.New()
	u := updater{src: src, tgt: tgt, out: out, dim: 2, lr: 0.1, sig: sig}

	g := (1 - sig.Eval(0)) * 0.1
	u.update(0, 1, 1, 0)

	assert.InDelta(t, g, out[2], 1e-6)
	assert.InDelta(t, 1, out[3], 1e-6)
	// source sees the target row from before the step
	assert.InDelta(t, 1, src[0], 1e-6)
	assert.InDelta(t, g, src[1], 1e-6)
	// the read buffer is left untouched
	assert.Equal(t, []float32{0, 0, 0, 1}, tgt)
}

func TestUpdater_NegativeLabelPushesApart(t *testing.T) {
	data := []float32{1, 1, 1, 1}
	u := updater{src: data, tgt: data, out: data, dim: 2, lr: 0.5, sig: sigmoid.New()}

	u.update(0, 1, 0, 0)

	assert.Less(t, data[2], float32(1))
	assert.Less(t, data[0], float32(1))
}

func TestUpdater_BiasShiftsScore(t *testing.T) {
	sig := sigmoid.New()

	a := []float32{0, 0, 0, 1}
	ua := updater{src: a, tgt: a, out: a, dim: 2, lr: 1, sig: sig}
	ua.update(0, 1, 1, 0)

	b := []float32{0, 0, 0, 1}
	ub := updater{src: b, tgt: b, out: b, dim: 2, lr: 1, sig: sig}
	ub.update(0, 1, 1, 3)

	// a larger bias lowers the score and so increases the positive gradient
	assert.Greater(t, b[1], a[1])
	assert.InDelta(t, 1-sig.Eval(-3), b[1], 1e-6)
}

func TestNew_Biases(t *testing.T) {
	g := testutil.Ring(100)
	w := Weights{Source: initMatrix(100, 4, 1)}

	e := New(g, NeighborSampler{Graph: g}, w, Config{Negatives: 5, Workers: 1, UseBias: true})
	pos, neg := e.Biases()
	assert.InDelta(t, math.Log(100), pos, 1e-5)
	assert.InDelta(t, math.Log(20), neg, 1e-5)

	e = New(g, NeighborSampler{Graph: g}, w, Config{Negatives: 0, Workers: 1, UseBias: true})
	pos, neg = e.Biases()
	assert.InDelta(t, math.Log(100), pos, 1e-5)
	assert.Zero(t, neg)

	e = New(g, NeighborSampler{Graph: g}, w, Config{Negatives: 5, Workers: 1})
	pos, neg = e.Biases()
	assert.Zero(t, pos)
	assert.Zero(t, neg)
}

func TestRun_SingleWorkerStepAccounting(t *testing.T) {
	g := testutil.Ring(10)
	w := Weights{Source: initMatrix(10, 8, 1)}

	var calls []uint64
	cfg := Config{
		Negatives:    2,
		LearningRate: 0.025,
		Workers:      1,
		TotalSteps:   1000,
		BatchSize:    100,
		Seed:         7,
		Progress: func(done, total uint64) {
			assert.Equal(t, uint64(1000), total)
			calls = append(calls, done)
		},
	}

	stats := New(g, NeighborSampler{Graph: g}, w, cfg).Run()

	assert.Equal(t, uint64(1000), stats.Steps)
	assert.Equal(t, uint64(1000), stats.Samples)
	assert.Zero(t, stats.Skipped)
	assert.Equal(t, []uint64{1000}, stats.PerWorker)
	require.Len(t, calls, 10)
	for i, c := range calls {
		assert.Equal(t, uint64(i+1)*100, c)
	}
}

func TestRun_OvershootIsBounded(t *testing.T) {
	if race.Enabled {
		t.Skip("hogwild updates race by design")
	}

	const (
		n       = 50
		workers = 4
		batch   = 64
		total   = 1000
	)
	g := testutil.Ring(n)
	w := Weights{Source: initMatrix(n, 8, 1)}

	stats := New(g, PPRSampler{Graph: g, Alpha: 0.85}, w, Config{
		Negatives:    1,
		LearningRate: 0.025,
		Workers:      workers,
		TotalSteps:   total,
		BatchSize:    batch,
		Seed:         1,
	}).Run()

	assert.GreaterOrEqual(t, stats.Steps, uint64(total))
	assert.Less(t, stats.Steps, uint64(total+workers*batch))
	assert.Equal(t, stats.Steps, stats.Samples)
	assert.Len(t, stats.PerWorker, workers)
	for _, s := range stats.PerWorker {
		assert.Zero(t, s%batch)
	}
}

func TestRun_ZeroTotalStepsRunsOneBatch(t *testing.T) {
	g := testutil.Ring(10)
	w := Weights{Source: initMatrix(10, 4, 1)}

	var totals []uint64
	stats := New(g, NeighborSampler{Graph: g}, w, Config{
		Negatives:    1,
		LearningRate: 0.025,
		Workers:      1,
		BatchSize:    16,
		Seed:         2,
		Progress: func(_, total uint64) {
			totals = append(totals, total)
		},
	}).Run()

	assert.Equal(t, uint64(16), stats.Steps)
	assert.Less(t, stats.Steps, uint64(1+16))
	assert.Equal(t, []uint64{1}, totals)
}

func TestRun_DivergenceCompletes(t *testing.T) {
	g := testutil.Ring(6)
	w := Weights{Source: initMatrix(6, 8, 1)}

	var stats Stats
	require.NotPanics(t, func() {
		stats = New(g, NeighborSampler{Graph: g}, w, Config{
			Negatives:    2,
			LearningRate: 1e30,
			Workers:      1,
			TotalSteps:   1000,
			BatchSize:    100,
			Seed:         4,
		}).Run()
	})

	assert.Equal(t, uint64(1000), stats.Steps)
	assert.ErrorIs(t, w.Source.CheckFinite(), embedding.ErrNonFinite)
}

func TestRun_SkipsDeadEnds(t *testing.T) {
	// 0 -> 1, node 1 has no out-edges
	g, err := graph.New([]int32{0, 1, 1}, []int32{1})
	require.NoError(t, err)
	w := Weights{Source: initMatrix(2, 4, 1)}

	stats := New(g, NeighborSampler{Graph: g}, w, Config{
		Negatives:    1,
		LearningRate: 0.025,
		Workers:      1,
		TotalSteps:   200,
		BatchSize:    50,
		Seed:         3,
	}).Run()

	assert.Equal(t, uint64(200), stats.Steps)
	assert.Equal(t, uint64(200), stats.Samples)
	assert.Positive(t, stats.Skipped)
}

func TestRun_DeterministicWithOneWorker(t *testing.T) {
	g := testutil.Ring(20)
	run := func() []float32 {
		w := Weights{Source: initMatrix(20, 8, 11)}
		New(g, SimRankSampler{Graph: g, Alpha: 0.85}, w, Config{
			Negatives:    3,
			LearningRate: 0.025,
			Workers:      1,
			TotalSteps:   2000,
			Seed:         42,
			UseBias:      true,
		}).Run()
		return w.Source.Data()
	}

	assert.Equal(t, run(), run())
}

func TestRun_ContextBufferLeavesTargetUntouched(t *testing.T) {
	g := testutil.Ring(16)
	src := initMatrix(16, 8, 1)
	tgt := initMatrix(16, 8, 2)
	before := tgt.Clone()
	out := tgt.Clone()

	New(g, NeighborSampler{Graph: g}, Weights{Source: src, Target: tgt, TargetOut: out}, Config{
		Negatives:    2,
		LearningRate: 0.025,
		Workers:      1,
		TotalSteps:   500,
		Seed:         5,
	}).Run()

	assert.Equal(t, before.Data(), tgt.Data())
	assert.NotEqual(t, before.Data(), out.Data())
}

func TestRun_RestartsStepCounter(t *testing.T) {
	g := testutil.Ring(8)
	e := New(g, NeighborSampler{Graph: g}, Weights{Source: initMatrix(8, 4, 1)}, Config{
		Workers:      1,
		LearningRate: 0.025,
		TotalSteps:   100,
		BatchSize:    10,
	})

	first := e.Run()
	second := e.Run()
	assert.Equal(t, first.Steps, second.Steps)
	assert.Equal(t, uint64(100), e.Steps())
}

func TestRun_RingNeighborsEndUpCloser(t *testing.T) {
	const n = 12
	g := testutil.Ring(n)
	w := Weights{Source: initMatrix(n, 16, 9)}

	New(g, NeighborSampler{Graph: g}, w, Config{
		Negatives:    3,
		LearningRate: 0.05,
		Workers:      1,
		TotalSteps:   200000,
		Seed:         9,
	}).Run()

	m := w.Source
	var near, far float64
	for i := range n {
		near += testutil.Cosine(m.Row(i), m.Row((i+1)%n))
		far += testutil.Cosine(m.Row(i), m.Row((i+n/2)%n))
	}
	assert.Greater(t, near, far)
}

func TestSamplers(t *testing.T) {
	g := testutil.Ring(6)
	rng := xrand.New(1)

	for _, s := range []Sampler{
		NeighborSampler{Graph: g},
		PPRSampler{Graph: g, Alpha: 0.5},
		SimRankSampler{Graph: g, Alpha: 0.5},
	} {
		t.Run(s.Name(), func(t *testing.T) {
			for range 1000 {
				dst, ok := s.Sample(2, rng)
				require.True(t, ok)
				assert.GreaterOrEqual(t, dst, int32(0))
				assert.Less(t, dst, int32(6))
			}
		})
	}

	nb := NeighborSampler{Graph: g}
	for range 100 {
		dst, _ := nb.Sample(2, rng)
		assert.Contains(t, []int32{1, 3}, dst)
	}

	ppr := PPRSampler{Graph: g, Alpha: 0}
	dst, ok := ppr.Sample(4, rng)
	assert.True(t, ok)
	assert.Equal(t, int32(4), dst)
}

func BenchmarkRun(b *testing.B) {
	g := testutil.Ring(1000)
	w := Weights{Source: initMatrix(1000, 128, 1)}
	e := New(g, PPRSampler{Graph: g, Alpha: 0.85}, w, Config{
		Negatives:    3,
		LearningRate: 0.0025,
		Workers:      1,
		TotalSteps:   100000,
	})

	b.ResetTimer()
	for b.Loop() {
		e.Run()
	}
}
