package wfc

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady is returned when an operation requires a buffer state the
	// buffer is not in, such as stepping before Begin or reading results
	// before collapse.
	ErrNotReady = errors.New("wfc: buffer not in the required state")

	// ErrInvalidSize is returned for non-positive grid dimensions and for
	// out-of-range cell indices.
	ErrInvalidSize = errors.New("wfc: invalid grid size or index")

	// ErrContradiction is the sentinel wrapped by ContradictionError.
	ErrContradiction = errors.New("wfc: contradiction")

	// ErrCollapseFailed is returned when a cell exhausts its resolution
	// attempts without being assigned a type.
	ErrCollapseFailed = errors.New("wfc: cell could not be resolved")

	// ErrNoCandidateCells is returned when a step finds no unresolved cell
	// to work on. It indicates misuse rather than a solver failure.
	ErrNoCandidateCells = errors.New("wfc: no unresolved cells to collapse")

	// ErrCorruptState is returned when an internal consistency check fails,
	// such as a completed grid holding a cell with no assigned type.
	ErrCorruptState = errors.New("wfc: corrupt buffer state")
)

// ContradictionError reports a cell whose resolved neighbors permit no tile
// type at all. Snapshot holds a copy of the grid at the moment of detection
// for diagnostics.
type ContradictionError struct {
	Index    int
	Snapshot []Cell
}

// Error implements the error interface.
func (e *ContradictionError) Error() string {
	return fmt.Sprintf("wfc: contradiction at cell %d: no tile type satisfies all resolved neighbors", e.Index)
}

// Unwrap makes the error match ErrContradiction under errors.Is.
func (e *ContradictionError) Unwrap() error {
	return ErrContradiction
}
