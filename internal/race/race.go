//go:build !race

// Package race reports whether the binary was built with the race detector.
package race

// Enabled is true when built with -race.
const Enabled = false
