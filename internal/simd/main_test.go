package simd

import (
	"fmt"
	"os"
	"runtime"
	"testing"
)

// TestMain prints the selected kernel so CI logs show which path ran.
func TestMain(m *testing.M) {
	fmt.Printf("=== SIMD Kernel Diagnostics ===\n")
	fmt.Printf("GOOS=%s GOARCH=%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("VERSEGO_SIMD=%q\n", os.Getenv("VERSEGO_SIMD"))
	fmt.Printf("Active kernel: %s\n", ActiveKernel())
	fmt.Printf("Override: %v\n", IsOverridden())

	switch runtime.GOARCH {
	case "arm64":
		fmt.Printf("  ASIMD (NEON): %v\n", HasASIMD())
		fmt.Printf("  SVE2: %v\n", HasSVE2())
	case "amd64":
		fmt.Printf("  AVX2+FMA: %v\n", HasAVX2())
		fmt.Printf("  AVX-512F: %v\n", HasAVX512())
	}

	fmt.Printf("===============================\n\n")

	os.Exit(m.Run())
}
