package cds

import (
	"fmt"
	"math"
	"sync"
	"unsafe"
)

// Allocator provides raw storage and element construction for a Vector.
//
// Allocate returns n zeroed slots that hold no live value. Deallocate
// receives exactly a slice returned by Allocate, after every live element
// in it has been destroyed. Construct stores the result of ctor into slot
// or returns ctor's error untouched, leaving slot raw. Destroy ends the
// life of the element in slot. Equal reports whether storage from one
// allocator may be deallocated by the other.
type Allocator[T any] interface {
	Allocate(n int) ([]T, error)
	Deallocate(buf []T)
	Construct(slot *T, ctor func() (T, error)) error
	Destroy(slot *T)
	Equal(other Allocator[T]) bool
}

// CopySelector is implemented by allocators that decide which allocator a
// copied container uses. Without it the source allocator is shared.
type CopySelector[T any] interface {
	SelectOnCopy() Allocator[T]
}

// MaxSize returns the largest element count an allocator may be asked for.
func MaxSize[T any]() int {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return math.MaxInt
	}
	return math.MaxInt / size
}

// selectOnCopy applies the allocator's copy policy.
func selectOnCopy[T any](a Allocator[T]) Allocator[T] {
	if cs, ok := a.(CopySelector[T]); ok {
		return cs.SelectOnCopy()
	}
	return a
}

// construct is the plain Construct implementation shared by allocators.
func construct[T any](slot *T, ctor func() (T, error)) error {
	v, err := ctor()
	if err != nil {
		return err
	}
	*slot = v
	return nil
}

// --------------------------------------------------------------------------
// HeapAllocator
// --------------------------------------------------------------------------

// HeapAllocator allocates from the Go heap. It is stateless: every
// HeapAllocator compares equal to every other one of the same element type.
type HeapAllocator[T any] struct{}

func (HeapAllocator[T]) Allocate(n int) ([]T, error) {
	if n < 0 {
		return nil, ErrNegativeCount
	}
	if n > MaxSize[T]() {
		return nil, fmt.Errorf("%w: %d elements exceeds max size", ErrAllocationFailed, n)
	}
	if n == 0 {
		return nil, nil
	}
	return make([]T, n), nil
}

// Deallocate leaves the buffer to the garbage collector.
func (HeapAllocator[T]) Deallocate([]T) {}

func (HeapAllocator[T]) Construct(slot *T, ctor func() (T, error)) error {
	return construct(slot, ctor)
}

func (HeapAllocator[T]) Destroy(slot *T) {
	destroyValue(slot)
}

func (HeapAllocator[T]) Equal(other Allocator[T]) bool {
	_, ok := other.(HeapAllocator[T])
	return ok
}

// --------------------------------------------------------------------------
// LimitedAllocator
// --------------------------------------------------------------------------

// LimitedAllocator caps the number of element slots allocated through it
// at any time. Requests over the budget fail with ErrAllocationFailed.
// Copies of a container share the budget.
type LimitedAllocator[T any] struct {
	inner Allocator[T]
	limit int

	mu    sync.Mutex
	inUse int
}

// NewLimitedAllocator wraps inner (HeapAllocator when nil) with a budget of
// limit element slots.
func NewLimitedAllocator[T any](inner Allocator[T], limit int) *LimitedAllocator[T] {
	if inner == nil {
		inner = HeapAllocator[T]{}
	}
	return &LimitedAllocator[T]{inner: inner, limit: limit}
}

func (l *LimitedAllocator[T]) Allocate(n int) ([]T, error) {
	l.mu.Lock()
	if n > 0 && l.inUse+n > l.limit {
		inUse := l.inUse
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %d slots requested, %d of %d in use", ErrAllocationFailed, n, inUse, l.limit)
	}
	l.inUse += max(n, 0)
	l.mu.Unlock()

	buf, err := l.inner.Allocate(n)
	if err != nil {
		l.mu.Lock()
		l.inUse -= max(n, 0)
		l.mu.Unlock()
		return nil, err
	}
	return buf, nil
}

func (l *LimitedAllocator[T]) Deallocate(buf []T) {
	l.inner.Deallocate(buf)
	l.mu.Lock()
	l.inUse -= len(buf)
	l.mu.Unlock()
}

func (l *LimitedAllocator[T]) Construct(slot *T, ctor func() (T, error)) error {
	return l.inner.Construct(slot, ctor)
}

func (l *LimitedAllocator[T]) Destroy(slot *T) {
	l.inner.Destroy(slot)
}

// Equal reports whether other is the same budget.
func (l *LimitedAllocator[T]) Equal(other Allocator[T]) bool {
	o, ok := other.(*LimitedAllocator[T])
	return ok && o == l
}

// InUse returns the number of element slots currently allocated.
func (l *LimitedAllocator[T]) InUse() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inUse
}
