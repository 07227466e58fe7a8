package embedding

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/versego/internal/mem"
	"github.com/hupe1980/versego/xrand"
)

// ErrNonFinite is returned by CheckFinite when a NaN or Inf is present.
var ErrNonFinite = errors.New("embedding contains non-finite values")

// ErrNonFiniteAt locates the first non-finite value.
type ErrNonFiniteAt struct {
	Row, Col int
	Value    float32
}

func (e *ErrNonFiniteAt) Error() string {
	return fmt.Sprintf("embedding contains non-finite value %v at row %d, col %d", e.Value, e.Row, e.Col)
}

func (e *ErrNonFiniteAt) Unwrap() error { return ErrNonFinite }

// Matrix is a dense row-major float32 matrix.
type Matrix struct {
	rows int
	dim  int
	data []float32
}

// NewMatrix allocates a zeroed rows × dim matrix.
func NewMatrix(rows, dim int) *Matrix {
	return &Matrix{
		rows: rows,
		dim:  dim,
		data: mem.AllocAlignedFloat32(rows * dim),
	}
}

// FromSlice wraps data as a rows × dim matrix without copying.
func FromSlice(data []float32, dim int) (*Matrix, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension: %d", dim)
	}
	if len(data)%dim != 0 {
		return nil, fmt.Errorf("%d values are not divisible by dimension %d", len(data), dim)
	}
	return &Matrix{rows: len(data) / dim, dim: dim, data: data}, nil
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Dim returns the row width.
func (m *Matrix) Dim() int { return m.dim }

// Data returns the backing array.
func (m *Matrix) Data() []float32 { return m.data }

// Row returns row i. The slice aliases the matrix.
func (m *Matrix) Row(i int) []float32 {
	off := i * m.dim
	return m.data[off : off+m.dim : off+m.dim]
}

// SizeBytes returns the size of the backing array in bytes.
func (m *Matrix) SizeBytes() int64 {
	return int64(len(m.data)) * 4
}

// InitUniform fills the matrix with independent draws from [-0.5, 0.5).
func (m *Matrix) InitUniform(rng *xrand.Source) {
	for i := range m.data {
		m.data[i] = float32(rng.Float64() - 0.5)
	}
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	c := NewMatrix(m.rows, m.dim)
	copy(c.data, m.data)
	return c
}

// CheckFinite returns an *ErrNonFiniteAt for the first NaN or Inf, or nil.
func (m *Matrix) CheckFinite() error {
	for i, v := range m.data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return &ErrNonFiniteAt{Row: i / m.dim, Col: i % m.dim, Value: v}
		}
	}
	return nil
}
