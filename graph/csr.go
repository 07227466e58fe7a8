package graph

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// CSR is an immutable compressed-sparse-row adjacency structure.
type CSR struct {
	offsets []int32
	edges   []int32
}

// New wraps offsets and edges after validating the CSR invariants.
// The slices are retained, not copied.
func New(offsets, edges []int32) (*CSR, error) {
	g := NewUnchecked(offsets, edges)
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// NewUnchecked wraps offsets and edges without validation. Sampling from a CSR
// that violates the invariants is undefined behaviour.
func NewUnchecked(offsets, edges []int32) *CSR {
	return &CSR{offsets: offsets, edges: edges}
}

// Validate checks that offsets has at least one entry, starts at 0, is
// non-decreasing, ends at len(edges), and that every edge is a valid node id.
func (g *CSR) Validate() error {
	if len(g.offsets) == 0 {
		return &ErrInvariant{Reason: "missing offsets", Index: 0}
	}
	if g.offsets[0] != 0 {
		return &ErrInvariant{Reason: "offsets[0] must be 0", Index: 0}
	}

	n := len(g.offsets) - 1
	for i := 1; i <= n; i++ {
		if g.offsets[i] < g.offsets[i-1] {
			return &ErrInvariant{Reason: "offsets decrease", Index: i}
		}
	}
	if int(g.offsets[n]) != len(g.edges) {
		return &ErrInvariant{Reason: "offsets[N] must equal the edge count", Index: n}
	}

	for i, e := range g.edges {
		if e < 0 || int(e) >= n {
			return &ErrInvariant{Reason: "edge target out of range", Index: i}
		}
	}
	return nil
}

// NumNodes returns N.
func (g *CSR) NumNodes() int {
	return len(g.offsets) - 1
}

// NumEdges returns E.
func (g *CSR) NumEdges() int {
	return len(g.edges)
}

// Degree returns the out-degree of node.
func (g *CSR) Degree(node int32) int {
	return int(g.offsets[node+1] - g.offsets[node])
}

// Neighbors returns the out-neighbors of node. The slice aliases the CSR and
// must not be modified.
func (g *CSR) Neighbors(node int32) []int32 {
	return g.edges[g.offsets[node]:g.offsets[node+1]:g.offsets[node+1]]
}

// Offsets returns the offsets array (length N+1).
func (g *CSR) Offsets() []int32 {
	return g.offsets
}

// Edges returns the flattened neighbor array (length E).
func (g *CSR) Edges() []int32 {
	return g.edges
}

// Isolated returns the set of nodes with zero out-degree.
func (g *CSR) Isolated() *roaring.Bitmap {
	bm := roaring.New()
	for i := range g.NumNodes() {
		if g.offsets[i] == g.offsets[i+1] {
			bm.Add(uint32(i))
		}
	}
	return bm
}

// Stats summarizes the degree distribution.
type Stats struct {
	Nodes     int
	Edges     int
	Isolated  int
	MaxDegree int
	AvgDegree float64
}

// Stats computes degree statistics.
func (g *CSR) Stats() Stats {
	s := Stats{
		Nodes: g.NumNodes(),
		Edges: g.NumEdges(),
	}
	for i := range s.Nodes {
		d := int(g.offsets[i+1] - g.offsets[i])
		if d == 0 {
			s.Isolated++
		}
		s.MaxDegree = max(s.MaxDegree, d)
	}
	if s.Nodes > 0 {
		s.AvgDegree = float64(s.Edges) / float64(s.Nodes)
	}
	return s
}

// SizeBytes returns the memory held by the offset and edge arrays.
func (g *CSR) SizeBytes() int64 {
	return int64(len(g.offsets)+len(g.edges)) * 4
}
