package versego

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch is returned when an embedding matrix does not have one
	// row per node or matrices disagree on their width.
	ErrShapeMismatch = errors.New("embedding shape mismatch")

	// ErrNoEdges is returned for neighbor training on a graph without edges.
	// No sample could ever succeed and training would not terminate.
	ErrNoEdges = errors.New("graph has no edges")

	// ErrEmptyGraph is returned when the graph has no nodes.
	ErrEmptyGraph = errors.New("graph has no nodes")
)

// ErrInvalidDimension indicates an invalid embedding width.
type ErrInvalidDimension struct {
	Dimension int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

// ErrInvalidConfig indicates an out-of-range training parameter.
type ErrInvalidConfig struct {
	Field string
	Value any
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Value)
}

// ErrUnknownMode indicates an unsupported similarity mode.
type ErrUnknownMode struct {
	Mode Mode
}

func (e *ErrUnknownMode) Error() string {
	return fmt.Sprintf("unknown mode: %d", int(e.Mode))
}

func shapeError(what string, rows, dim, wantRows, wantDim int) error {
	return fmt.Errorf("%w: %s is %dx%d, want %dx%d", ErrShapeMismatch, what, rows, dim, wantRows, wantDim)
}
