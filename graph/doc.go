// Package graph provides the compact (CSR) adjacency structure the trainer samples from.
//
// A CSR stores N+1 offsets and E flattened neighbor ids; the out-neighbors of
// node i are edges[offsets[i]:offsets[i+1]]. Degree lookup and uniform neighbor
// sampling are O(1).
//
// A CSR is immutable after construction and safe for concurrent reads. The sampling
// methods take the caller's *xrand.Source, which must not be shared between
// goroutines.
//
// Use Builder to assemble a CSR from edge pairs, or New to wrap existing arrays.
package graph
