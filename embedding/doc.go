// Package embedding holds the trained parameter matrix and its on-disk formats.
//
// # Matrix
//
// A Matrix is a dense rows × dim float32 array, row-major and 64-byte aligned.
// Training mutates rows in place from many goroutines without locks; the matrix
// offers no synchronization of its own.
//
// # Formats
//
// The raw format is the little-endian float32 dump of the backing array, which
// numpy reads with fromfile(path, dtype=float32).reshape(-1, dim). Encode and
// Decode optionally wrap the stream in zstd or lz4 framing.
//
// An index file maps row numbers to node labels, one "row,label" pair per line.
package embedding
