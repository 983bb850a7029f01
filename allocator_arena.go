package cds

import (
	"fmt"

	"github.com/pavanmanishd/cds/arena"
)

// ArenaAllocator serves Vector buffers from a SafeArena. Buffers cannot be
// freed one by one; the arena resets once every buffer handed out has been
// deallocated. Allocators over the same arena share that count, so any of
// them may deallocate a buffer another one allocated.
type ArenaAllocator[T any] struct {
	arena *arena.SafeArena
}

// NewArenaAllocator returns an allocator over a. Element types holding
// pointers are rejected with ErrUnsupportedElem because the garbage
// collector does not scan arena memory.
func NewArenaAllocator[T any](a *arena.SafeArena) (*ArenaAllocator[T], error) {
	if !arena.PointerFree[T]() {
		var zero T
		return nil, fmt.Errorf("%w: %T holds pointers", ErrUnsupportedElem, zero)
	}
	return &ArenaAllocator[T]{arena: a}, nil
}

func (aa *ArenaAllocator[T]) Allocate(n int) ([]T, error) {
	if n < 0 {
		return nil, ErrNegativeCount
	}
	if n > MaxSize[T]() {
		return nil, fmt.Errorf("%w: %d elements exceeds max size", ErrAllocationFailed, n)
	}
	buf, err := arena.SafeAllocSlice[T](aa.arena, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllocationFailed, err)
	}
	return buf, nil
}

func (aa *ArenaAllocator[T]) Deallocate(buf []T) {
	if len(buf) == 0 {
		return
	}
	aa.arena.Free()
}

func (aa *ArenaAllocator[T]) Construct(slot *T, ctor func() (T, error)) error {
	return construct(slot, ctor)
}

func (aa *ArenaAllocator[T]) Destroy(slot *T) {
	destroyValue(slot)
}

// Equal reports whether other draws from the same arena.
func (aa *ArenaAllocator[T]) Equal(other Allocator[T]) bool {
	o, ok := other.(*ArenaAllocator[T])
	return ok && o.arena == aa.arena
}

// Outstanding returns the number of buffers not yet deallocated by any
// allocator over the arena.
func (aa *ArenaAllocator[T]) Outstanding() int {
	return aa.arena.Outstanding()
}

// Metrics returns the backing arena's statistics.
func (aa *ArenaAllocator[T]) Metrics() arena.ArenaMetrics {
	return aa.arena.Metrics()
}
