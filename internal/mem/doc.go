// Package mem provides memory allocation utilities.
//
// # Aligned Allocation
//
// Embedding matrices are allocated on 64-byte boundaries so that row kernels
// start on a cache line.
package mem
