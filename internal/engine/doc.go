// Package engine implements the asynchronous skip-gram training loop.
//
// The engine orchestrates:
//   - a fixed pool of worker goroutines released together from a start barrier
//   - per-worker xoroshiro128+ sources derived from one master seed
//   - positive pairs from a pluggable Sampler (neighbor, PPR walk, chained walks)
//   - negative pairs drawn uniformly over all nodes
//   - Hogwild updates: embedding rows are read and written without locks
//   - a global step counter advanced in batches; crossing the step budget is the
//     only termination condition
//
// Races on embedding rows are intentional: concurrent updates to the same row
// may be lost or partially applied. Only the step counter is atomic.
package engine
