package graph

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// Builder accumulates edges and produces a CSR with sorted, de-duplicated
// neighbor lists. A Builder is not safe for concurrent use.
type Builder struct {
	adj        []*roaring.Bitmap
	weights    map[uint64]float32
	undirected bool
}

// NewBuilder creates a Builder for numNodes nodes. When undirected is true every
// edge is stored in both directions.
func NewBuilder(numNodes int, undirected bool) *Builder {
	return &Builder{
		adj:        make([]*roaring.Bitmap, numNodes),
		undirected: undirected,
	}
}

// NumNodes returns the current node count.
func (b *Builder) NumNodes() int {
	return len(b.adj)
}

// Grow raises the node count to at least n.
func (b *Builder) Grow(n int) {
	for len(b.adj) < n {
		b.adj = append(b.adj, nil)
	}
}

// AddEdge adds src -> dst (and dst -> src for undirected builders).
// Duplicate edges are kept once.
func (b *Builder) AddEdge(src, dst int) error {
	if src < 0 || dst < 0 || src >= len(b.adj) || dst >= len(b.adj) {
		return fmt.Errorf("%w: edge %d->%d outside [0,%d)", ErrInvalidGraph, src, dst, len(b.adj))
	}
	b.add(src, dst)
	if b.undirected {
		b.add(dst, src)
	}
	return nil
}

// AddWeightedEdge adds src -> dst with weight w. A repeated edge keeps the
// last weight. Edges added without a weight default to 1.
func (b *Builder) AddWeightedEdge(src, dst int, w float32) error {
	if err := b.AddEdge(src, dst); err != nil {
		return err
	}
	if b.weights == nil {
		b.weights = make(map[uint64]float32)
	}
	b.weights[edgeKey(src, dst)] = w
	if b.undirected {
		b.weights[edgeKey(dst, src)] = w
	}
	return nil
}

func edgeKey(src, dst int) uint64 {
	return uint64(uint32(src))<<32 | uint64(uint32(dst))
}

func (b *Builder) add(src, dst int) {
	bm := b.adj[src]
	if bm == nil {
		bm = roaring.New()
		b.adj[src] = bm
	}
	bm.Add(uint32(dst))
}

// Build emits the CSR.
func (b *Builder) Build() (*CSR, error) {
	var total uint64
	for _, bm := range b.adj {
		if bm != nil {
			total += bm.GetCardinality()
		}
	}
	if total > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d edges exceed int32 offsets", ErrInvalidGraph, total)
	}

	offsets := make([]int32, len(b.adj)+1)
	edges := make([]int32, 0, total)
	for i, bm := range b.adj {
		if bm != nil {
			it := bm.Iterator()
			for it.HasNext() {
				edges = append(edges, int32(it.Next()))
			}
		}
		offsets[i+1] = int32(len(edges))
	}

	return NewUnchecked(offsets, edges), nil
}

// BuildWeighted emits the CSR together with per-edge weights aligned to Edges().
// Weights is nil when no weighted edge was added.
func (b *Builder) BuildWeighted() (*CSR, []float32, error) {
	g, err := b.Build()
	if err != nil || b.weights == nil {
		return g, nil, err
	}

	weights := make([]float32, g.NumEdges())
	for src := range g.NumNodes() {
		lo := g.offsets[src]
		for i, dst := range g.Neighbors(int32(src)) {
			w, ok := b.weights[edgeKey(src, int(dst))]
			if !ok {
				w = 1
			}
			weights[int(lo)+i] = w
		}
	}
	return g, weights, nil
}
