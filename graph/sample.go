package graph

import "github.com/hupe1980/versego/xrand"

// SampleNeighbor returns a uniformly random out-neighbor of node.
// It reports false when node has no out-edges.
func (g *CSR) SampleNeighbor(node int32, rng *xrand.Source) (int32, bool) {
	lo, hi := g.offsets[node], g.offsets[node+1]
	if lo == hi {
		return -1, false
	}
	return g.edges[rng.IntRange(int(lo), int(hi))], true
}

// Walk performs a random walk from node that continues with probability alpha
// before each step and returns the node where it stopped. A node without
// out-edges ends the walk early. alpha must be in [0, 1); the expected number of
// steps is alpha/(1-alpha).
func (g *CSR) Walk(node int32, alpha float64, rng *xrand.Source) int32 {
	cur := node
	for rng.Float64() < alpha {
		next, ok := g.SampleNeighbor(cur, rng)
		if !ok {
			return cur
		}
		cur = next
	}
	return cur
}
