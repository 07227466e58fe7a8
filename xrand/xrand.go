package xrand

import (
	"math"
	"math/bits"
)

const (
	golden = 0x9E3779B97F4A7C15
	mixA   = 0xBF58476D1CE4E5B9
	mixB   = 0x94D049BB133111EB
)

// Source is a xoroshiro128+ generator.
type Source struct {
	s0, s1 uint64
}

// New returns a Source seeded with seed.
func New(seed uint64) *Source {
	s := &Source{}
	s.Seed(seed)
	return s
}

// Seed resets the generator state from seed.
func (s *Source) Seed(seed uint64) {
	sm := SplitMix64(seed)
	s.s0 = sm.Next()
	s.s1 = sm.Next()
}

// State returns the two internal state words.
func (s *Source) State() (uint64, uint64) {
	return s.s0, s.s1
}

// Uint64 returns the next pseudo-random 64-bit value.
func (s *Source) Uint64() uint64 {
	s0 := s.s0
	s1 := s.s1
	result := s0 + s1

	s1 ^= s0
	s.s0 = bits.RotateLeft64(s0, 55) ^ s1 ^ (s1 << 14)
	s.s1 = bits.RotateLeft64(s1, 36)

	return result
}

// Float64 returns a uniform value in [0, 1).
func (s *Source) Float64() float64 {
	return math.Float64frombits(0x3FF<<52|s.Uint64()>>12) - 1.0
}

// Intn returns a value in [0, bound). bound must be positive.
func (s *Source) Intn(bound int) int {
	return int(s.Uint64() % uint64(bound))
}

// IntRange returns a value in [lo, hi). hi must be greater than lo.
func (s *Source) IntRange(lo, hi int) int {
	return int(s.Uint64()%uint64(hi-lo)) + lo
}

// SplitMix64 is a counter-based generator used for seeding.
type SplitMix64 uint64

// NewSplitMix64 returns a SplitMix64 stream starting at seed.
func NewSplitMix64(seed uint64) *SplitMix64 {
	sm := SplitMix64(seed)
	return &sm
}

// Next advances the stream and returns the next mixed value.
func (sm *SplitMix64) Next() uint64 {
	*sm += golden
	z := uint64(*sm)
	z = (z ^ z>>30) * mixA
	z = (z ^ z>>27) * mixB
	return z ^ z>>31
}
