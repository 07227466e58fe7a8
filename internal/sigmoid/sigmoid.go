// Package sigmoid provides a table-driven approximation of the logistic function
// for the innermost training loop.
package sigmoid

import "math"

const (
	// Bound is the half-width of the tabulated domain [-Bound, Bound].
	Bound = 6.0
	// TableSize is the number of table entries.
	TableSize = 1024
	// Resolution maps a shifted input to a table index.
	Resolution = float32(TableSize / (2 * Bound))
)

// Table is an immutable lookup table. It is safe for concurrent use.
type Table struct {
	values [TableSize]float32
}

// New precomputes the table.
func New() *Table {
	t := &Table{}
	for k := range TableSize {
		x := 2*Bound*float64(k)/TableSize - Bound
		t.values[k] = float32(1 / (1 + math.Exp(-x)))
	}
	return t
}

// Eval returns the nearest-below table entry for x. Inputs at or beyond the
// bound saturate to exactly 0 or 1. NaN evaluates to 0.
func (t *Table) Eval(x float32) float32 {
	if x >= Bound {
		return 1
	}
	if !(x > -Bound) { // also NaN
		return 0
	}
	k := int((x + Bound) * Resolution)
	if k >= TableSize {
		// float32 rounding just below the upper bound
		k = TableSize - 1
	}
	return t.values[k]
}

// At returns table entry k.
func (t *Table) At(k int) float32 {
	return t.values[k]
}
