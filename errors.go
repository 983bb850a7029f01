package cds

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange matches every *BoundsError via errors.Is.
	ErrOutOfRange = errors.New("cds: element access out of range")

	// ErrAllocationFailed is returned by allocators that cannot provide storage.
	ErrAllocationFailed = errors.New("cds: allocation failed")

	// ErrDestroyed is returned by operations on a Vector after Destroy.
	ErrDestroyed = errors.New("cds: container destroyed")

	// ErrLengthMismatch is returned when swapping arrays of different lengths.
	ErrLengthMismatch = errors.New("cds: container lengths differ")

	// ErrNegativeCount is returned by constructors given a negative element count.
	ErrNegativeCount = errors.New("cds: negative element count")

	// ErrEmptyArray is returned when an Array of length zero is requested.
	ErrEmptyArray = errors.New("cds: arrays must hold at least one element")

	// ErrAccessorReleased is returned by scoped accessors used after Release.
	ErrAccessorReleased = errors.New("cds: scoped accessor already released")

	// ErrUnsupportedElem is returned by allocators that cannot store the element type.
	ErrUnsupportedElem = errors.New("cds: unsupported element type")
)

// BoundsError reports an index at or past the logical size of a container.
type BoundsError struct {
	Pos int
	Len int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("cds: index %d out of range [0:%d)", e.Pos, e.Len)
}

// Is reports ErrOutOfRange as a match.
func (e *BoundsError) Is(target error) bool {
	return target == ErrOutOfRange
}

// ConstructionError reports that constructing the element at Index failed.
// Err is the element's own failure, returned unchanged.
type ConstructionError struct {
	Index int
	Err   error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("cds: constructing element %d: %v", e.Index, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// checkIndex validates pos against n. The caller must hold the container lock.
func checkIndex(pos, n int) error {
	if pos < 0 || pos >= n {
		return &BoundsError{Pos: pos, Len: n}
	}
	return nil
}
