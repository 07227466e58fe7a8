package simd

import (
	"os"
	"strings"
)

// Kernel identifies a kernel family.
type Kernel uint8

const (
	// Generic is the straightforward scalar loop.
	Generic Kernel = iota
	// Unrolled processes eight lanes per iteration with split accumulators.
	Unrolled
)

// String returns the string representation of a Kernel.
func (k Kernel) String() string {
	switch k {
	case Generic:
		return "generic"
	case Unrolled:
		return "unrolled"
	default:
		return "unknown"
	}
}

// ParseKernel parses a string into a Kernel value.
func ParseKernel(s string) (Kernel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generic":
		return Generic, true
	case "unrolled":
		return Unrolled, true
	default:
		return Generic, false
	}
}

// Package-level state, initialized once by the platform init.
var (
	activeKernel Kernel
	hasOverride  bool

	// CPU feature flags (set by platform-specific init)
	hasASIMD   bool // ARM64 NEON
	hasSVE2    bool // ARM64 SVE2
	hasAVX2    bool // x86-64 AVX2 + FMA
	hasAVX512F bool // x86-64 AVX-512 Foundation
)

// initCapabilities is called from platform-specific init functions
// after CPU features are detected.
func initCapabilities() {
	if override := os.Getenv("VERSEGO_SIMD"); override != "" {
		if k, ok := ParseKernel(override); ok {
			hasOverride = true
			setKernel(k)
			return
		}
	}
	setKernel(selectBestKernel())
}

func selectBestKernel() Kernel {
	if hasAVX2 || hasAVX512F || hasASIMD || hasSVE2 {
		return Unrolled
	}
	return Generic
}

func setKernel(k Kernel) {
	activeKernel = k
	switch k {
	case Unrolled:
		dotImpl = dotUnrolled
		axpyImpl = axpyUnrolled
	default:
		dotImpl = dotGeneric
		axpyImpl = axpyGeneric
	}
}

// ActiveKernel returns the kernel family in use.
func ActiveKernel() Kernel {
	return activeKernel
}

// IsOverridden returns true if VERSEGO_SIMD was set to a valid kernel.
func IsOverridden() bool {
	return hasOverride
}

// HasAVX2 returns true if x86-64 AVX2+FMA is available.
func HasAVX2() bool {
	return hasAVX2
}

// HasAVX512 returns true if x86-64 AVX-512F is available.
func HasAVX512() bool {
	return hasAVX512F
}

// HasASIMD returns true if ARM64 NEON is available.
func HasASIMD() bool {
	return hasASIMD
}

// HasSVE2 returns true if ARM64 SVE2 is available.
func HasSVE2() bool {
	return hasSVE2
}
