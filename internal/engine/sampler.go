package engine

import (
	"github.com/hupe1980/versego/graph"
	"github.com/hupe1980/versego/xrand"
)

// Sampler produces the positive target for a source node.
// Implementations must be safe for concurrent use with distinct rng values.
type Sampler interface {
	// Sample returns a target for src, or false when no target exists and the
	// iteration should be skipped.
	Sample(src int32, rng *xrand.Source) (int32, bool)

	// Name identifies the similarity measure in logs and manifests.
	Name() string
}

// NeighborSampler pairs a node with one of its direct out-neighbors
// (adjacency similarity).
type NeighborSampler struct {
	Graph *graph.CSR
}

func (s NeighborSampler) Sample(src int32, rng *xrand.Source) (int32, bool) {
	return s.Graph.SampleNeighbor(src, rng)
}

func (NeighborSampler) Name() string { return "neighbor" }

// PPRSampler pairs a node with the end of one restart walk
// (personalized PageRank similarity).
type PPRSampler struct {
	Graph *graph.CSR
	Alpha float64
}

func (s PPRSampler) Sample(src int32, rng *xrand.Source) (int32, bool) {
	return s.Graph.Walk(src, s.Alpha, rng), true
}

func (PPRSampler) Name() string { return "ppr" }

// SimRankSampler chains two restart walks: the first reaches an intermediate
// node, the second, started there, yields the target (diffusion similarity).
type SimRankSampler struct {
	Graph *graph.CSR
	Alpha float64
}

func (s SimRankSampler) Sample(src int32, rng *xrand.Source) (int32, bool) {
	mid := s.Graph.Walk(src, s.Alpha, rng)
	return s.Graph.Walk(mid, s.Alpha, rng), true
}

func (SimRankSampler) Name() string { return "simrank" }
