// Package xrand provides the fast, seedable pseudo-random generator used by the
// samplers and the training workers.
//
// # Algorithm
//
// Source implements xoroshiro128+ (two 64-bit state words, rotate/xor/shift update).
// Seeding runs a SplitMix64 avalanche over the seed so that adjacent seeds yield
// decorrelated streams.
//
// # Thread Safety
//
// A Source is NOT safe for concurrent use. Each goroutine owns its own instance;
// use SplitMix64 to derive independent per-worker seeds from one master seed:
//
//	sm := xrand.NewSplitMix64(master)
//	for i := range workers {
//	    rngs[i] = xrand.New(sm.Next())
//	}
//
// Bounded integers are produced by modulo reduction. The resulting bias is
// negligible for bounds far below 2^64 and is not corrected.
package xrand
