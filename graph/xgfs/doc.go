// Package xgfs reads and writes the XGFS binary graph format.
//
// An XGFS file is little-endian:
//
//	"XGFS"          4-byte magic
//	int64  N        node count
//	int64  E        edge count
//	int32  offsets  N entries (the trailing E is implied)
//	int32  edges    E entries
//	float32 weights E entries, optional
//
// Weights are only written when at least one of them differs from 1.
package xgfs
