// Package simd provides the float32 kernels used by the gradient update.
//
// # Operations
//
//   - Dot: inner product of two rows
//   - Axpy: y += a*x, in place
//
// # Dispatch
//
// Runtime CPU feature detection (golang.org/x/sys/cpu) selects between a plain
// loop and an 8-way unrolled kernel with independent accumulators. Wide-vector
// CPUs (AVX2+FMA, AVX-512, NEON, SVE2) get the unrolled kernel.
// Set VERSEGO_SIMD=generic or VERSEGO_SIMD=unrolled to override.
//
// Kernels never synchronize. Callers that share rows between goroutines accept
// lost or torn float updates.
package simd
