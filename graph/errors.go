package graph

import (
	"errors"
	"fmt"
)

// ErrInvalidGraph is the sentinel matched by every CSR invariant violation.
var ErrInvalidGraph = errors.New("invalid graph")

// ErrInvariant describes a violated CSR invariant.
//
// errors.Is(err, ErrInvalidGraph) reports true for every ErrInvariant.
type ErrInvariant struct {
	Reason string
	Index  int
}

func (e *ErrInvariant) Error() string {
	return fmt.Sprintf("invalid graph: %s (at %d)", e.Reason, e.Index)
}

func (e *ErrInvariant) Unwrap() error { return ErrInvalidGraph }
