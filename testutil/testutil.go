package testutil

import (
	"math"
	"sync"

	"github.com/hupe1980/versego/embedding"
	"github.com/hupe1980/versego/graph"
	"github.com/hupe1980/versego/xrand"
)

// RNG wraps an xoroshiro128+ source together with its seed.
// It is thread-safe.
type RNG struct {
	src  *xrand.Source
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		src:  xrand.New(seed),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.src.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Intn(n)
}

// Float64 returns a pseudo-random number in [0,1).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Float64()
}

// Source returns an independent xrand.Source seeded from r.
func (r *RNG) Source() *xrand.Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	return xrand.New(r.src.Uint64())
}

// Zipf returns a Zipfian-distributed value in [0, n).
// P(k) ∝ 1/k^s where s is the skew parameter.
func (r *RNG) Zipf(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// Ring returns the undirected cycle 0-1-...-(n-1)-0.
func Ring(n int) *graph.CSR {
	b := graph.NewBuilder(n, true)
	for i := range n {
		must(b.AddEdge(i, (i+1)%n))
	}
	return build(b)
}

// Path returns the directed path 0->1->...->(n-1). The last node is a dead end.
func Path(n int) *graph.CSR {
	b := graph.NewBuilder(n, false)
	for i := range n - 1 {
		must(b.AddEdge(i, i+1))
	}
	return build(b)
}

// Star returns an undirected star with hub 0.
func Star(n int) *graph.CSR {
	b := graph.NewBuilder(n, true)
	for i := 1; i < n; i++ {
		must(b.AddEdge(0, i))
	}
	return build(b)
}

// Random returns an undirected graph with about n*avgDegree/2 edges whose
// endpoints follow a Zipf distribution, giving a skewed degree profile.
// Self-loops are dropped.
func Random(r *RNG, n, avgDegree int) *graph.CSR {
	b := graph.NewBuilder(n, true)
	for range n * avgDegree / 2 {
		src := r.Zipf(n, 1.1)
		dst := r.Intn(n)
		if src == dst {
			continue
		}
		must(b.AddEdge(src, dst))
	}
	return build(b)
}

// Matrix returns a rows × dim matrix initialized uniformly in [-0.5, 0.5).
func Matrix(r *RNG, rows, dim int) *embedding.Matrix {
	m := embedding.NewMatrix(rows, dim)
	m.InitUniform(r.Source())
	return m
}

// Cosine returns the cosine similarity of a and b, or 0 if either is zero.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / math.Sqrt(na*nb)
}

// MeanEdgeCosine returns the mean cosine similarity over all edges of g.
func MeanEdgeCosine(g *graph.CSR, m *embedding.Matrix) float64 {
	if g.NumEdges() == 0 {
		return 0
	}

	var sum float64
	for u := range int32(g.NumNodes()) {
		for _, v := range g.Neighbors(u) {
			sum += Cosine(m.Row(int(u)), m.Row(int(v)))
		}
	}
	return sum / float64(g.NumEdges())
}

// MeanRandomCosine returns the mean cosine similarity of uniformly
// drawn pairs of distinct rows.
func MeanRandomCosine(r *RNG, m *embedding.Matrix, pairs int) float64 {
	if m.Rows() < 2 || pairs <= 0 {
		return 0
	}

	var sum float64
	for range pairs {
		a := r.Intn(m.Rows())
		b := r.Intn(m.Rows() - 1)
		if b >= a {
			b++
		}
		sum += Cosine(m.Row(a), m.Row(b))
	}
	return sum / float64(pairs)
}

func build(b *graph.Builder) *graph.CSR {
	g, err := b.Build()
	must(err)
	return g
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
