package cds

import (
	"iter"
	"log/slog"
)

// Vector is a thread-safe array whose length is chosen at run time. It
// owns one allocation obtained from its Allocator: len(buf) is the
// capacity and buf[:n] holds the live elements. Slots past n are raw.
//
// Thread-safety: every method that reads the buffer or the length takes
// the shared lock and every method that changes them takes the exclusive
// lock. All and Backward do not lock; iterate through a scoped accessor.
//
// A Vector must be ended with Destroy. After Destroy every method other
// than Destroy, Len, Cap and Empty fails with ErrDestroyed.
type Vector[T any] struct {
	id      uint64
	lock    LockStrategy
	newLock func() LockStrategy
	logger  *slog.Logger

	// guarded by lock
	alloc     Allocator[T]
	buf       []T
	n         int
	destroyed bool
}

// NewVector returns an empty vector. A nil alloc selects HeapAllocator.
// Nothing is allocated until elements are constructed or Reserve is
// called.
func NewVector[T any](alloc Allocator[T], opts ...Option) *Vector[T] {
	return newVector(orHeap(alloc), buildOptions(opts))
}

// NewVectorFill returns a vector of count copies of value.
func NewVectorFill[T any](count int, value T, alloc Allocator[T], opts ...Option) (*Vector[T], error) {
	ctor := copyCtor(value)
	return newVectorBuilt(count, orHeap(alloc), buildOptions(opts), func(int) func() (T, error) {
		return ctor
	})
}

// NewVectorSize returns a vector of count default-constructed elements.
func NewVectorSize[T any](count int, alloc Allocator[T], opts ...Option) (*Vector[T], error) {
	return newVectorBuilt(count, orHeap(alloc), buildOptions(opts), func(int) func() (T, error) {
		return defaultCtor[T]
	})
}

// NewVectorFrom returns a vector holding copies of values.
func NewVectorFrom[T any](values []T, alloc Allocator[T], opts ...Option) (*Vector[T], error) {
	return newVectorBuilt(len(values), orHeap(alloc), buildOptions(opts), func(i int) func() (T, error) {
		return copyCtor(values[i])
	})
}

// NewVectorFromSeq returns a vector holding copies of the values yielded
// by seq. The sequence is drained before anything is allocated.
func NewVectorFromSeq[T any](seq iter.Seq[T], alloc Allocator[T], opts ...Option) (*Vector[T], error) {
	var values []T
	for v := range seq {
		values = append(values, v)
	}
	return NewVectorFrom(values, alloc, opts...)
}

// VectorOf returns a heap-allocated vector holding copies of values.
func VectorOf[T any](values ...T) (*Vector[T], error) {
	return NewVectorFrom(values, nil)
}

func orHeap[T any](alloc Allocator[T]) Allocator[T] {
	if alloc == nil {
		return HeapAllocator[T]{}
	}
	return alloc
}

func newVector[T any](alloc Allocator[T], o options) *Vector[T] {
	return &Vector[T]{
		id:      nextID(),
		lock:    o.newLock(),
		newLock: o.newLock,
		logger:  o.logger,
		alloc:   alloc,
	}
}

func newVectorBuilt[T any](count int, alloc Allocator[T], o options, ctorAt func(int) func() (T, error)) (*Vector[T], error) {
	buf, err := build(alloc, count, ctorAt, o.logger)
	if err != nil {
		return nil, err
	}
	v := newVector(alloc, o)
	v.buf, v.n = buf, count
	return v, nil
}

// derive returns the options of a container created from v: v's lock
// factory and logger, overridden by opts.
func (v *Vector[T]) derive(opts []Option) options {
	return applyOptions(options{newLock: v.newLock, logger: v.logger}, opts)
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

// Clone returns a copy of v. The copy's allocator is chosen by the
// allocator's SelectOnCopy when it implements CopySelector, otherwise the
// allocator is shared. The copy is sized to v's length, not its capacity.
func (v *Vector[T]) Clone(opts ...Option) (*Vector[T], error) {
	g := v.lock.AcquireShared()
	defer g.Release()
	if v.destroyed {
		return nil, ErrDestroyed
	}
	return v.cloneLocked(selectOnCopy(v.alloc), v.derive(opts))
}

// CloneWithAllocator returns a copy of v whose storage comes from alloc.
func (v *Vector[T]) CloneWithAllocator(alloc Allocator[T], opts ...Option) (*Vector[T], error) {
	g := v.lock.AcquireShared()
	defer g.Release()
	if v.destroyed {
		return nil, ErrDestroyed
	}
	return v.cloneLocked(orHeap(alloc), v.derive(opts))
}

// cloneLocked copies the live elements into new storage. The caller holds
// at least the shared lock.
func (v *Vector[T]) cloneLocked(alloc Allocator[T], o options) (*Vector[T], error) {
	src := v.buf[:v.n]
	return newVectorBuilt(len(src), alloc, o, func(i int) func() (T, error) {
		return copyCtor(src[i])
	})
}

// Move transfers v's storage, length and allocator to a new vector in
// constant time. v is left empty and usable.
func (v *Vector[T]) Move(opts ...Option) (*Vector[T], error) {
	g := v.lock.AcquireExclusive()
	defer g.Release()
	if v.destroyed {
		return nil, ErrDestroyed
	}
	return v.stealLocked(v.derive(opts)), nil
}

// MoveWithAllocator transfers v's contents to a new vector using alloc.
// When alloc equals v's allocator the storage is stolen as in Move.
// Otherwise the elements are moved one by one into storage from alloc and
// v keeps its length, with every moved-from element reset to the zero
// value. If that fails, v is left exactly as it was.
func (v *Vector[T]) MoveWithAllocator(alloc Allocator[T], opts ...Option) (*Vector[T], error) {
	alloc = orHeap(alloc)
	g := v.lock.AcquireExclusive()
	defer g.Release()
	if v.destroyed {
		return nil, ErrDestroyed
	}
	o := v.derive(opts)
	if alloc.Equal(v.alloc) {
		moved := v.stealLocked(o)
		moved.alloc = alloc
		return moved, nil
	}

	v.logger.Debug("cds: moving elements across unequal allocators", "vector", v.id, "len", v.n)
	moved := newVector(alloc, o)
	if v.n == 0 {
		return moved, nil
	}
	buf, err := alloc.Allocate(v.n)
	if err != nil {
		return nil, err
	}
	if err := relocate(alloc, buf, v.buf[:v.n], v.logger); err != nil {
		alloc.Deallocate(buf)
		return nil, err
	}
	moved.buf, moved.n = buf, v.n
	return moved, nil
}

// stealLocked hands v's storage to a new vector. The caller holds the
// exclusive lock.
func (v *Vector[T]) stealLocked(o options) *Vector[T] {
	moved := newVector(v.alloc, o)
	moved.buf, moved.n = v.buf, v.n
	v.buf, v.n = nil, 0
	return moved
}

// Destroy destroys the live elements in index order and deallocates the
// storage. Calling Destroy again does nothing.
func (v *Vector[T]) Destroy() {
	g := v.lock.AcquireExclusive()
	defer g.Release()
	if v.destroyed {
		return
	}
	release(v.alloc, v.buf, v.n)
	v.buf, v.n = nil, 0
	v.destroyed = true
}

// Reserve grows the capacity to at least capacity. It never shrinks and
// never changes the length. On failure v is unchanged.
func (v *Vector[T]) Reserve(capacity int) error {
	g := v.lock.AcquireExclusive()
	defer g.Release()
	if v.destroyed {
		return ErrDestroyed
	}
	if capacity <= len(v.buf) {
		return nil
	}
	buf, err := v.alloc.Allocate(capacity)
	if err != nil {
		return err
	}
	if err := relocate(v.alloc, buf, v.buf[:v.n], v.logger); err != nil {
		v.alloc.Deallocate(buf)
		return err
	}
	release(v.alloc, v.buf, v.n)
	v.buf = buf
	return nil
}

// CopyFrom replaces v's contents with copies of src's elements, keeping
// v's allocator. The copy is built under src's shared lock and installed
// under v's exclusive lock; the two locks are never held together. If v's
// allocator is swapped for an unequal one in between, the copy is
// discarded and built again. On failure v is unchanged.
func (v *Vector[T]) CopyFrom(src *Vector[T]) error {
	if v == src {
		return nil
	}

	for {
		g := v.lock.AcquireShared()
		alloc, destroyed := v.alloc, v.destroyed
		g.Release()
		if destroyed {
			return ErrDestroyed
		}

		buf, n, err := src.copyWith(alloc, v.logger)
		if err != nil {
			return err
		}

		g = v.lock.AcquireExclusive()
		if v.destroyed {
			g.Release()
			release(alloc, buf, n)
			return ErrDestroyed
		}
		if !v.alloc.Equal(alloc) {
			g.Release()
			v.logger.Debug("cds: allocator changed during copy, retrying", "vector", v.id)
			release(alloc, buf, n)
			continue
		}
		oldBuf, oldN := v.buf, v.n
		v.buf, v.n = buf, n
		current := v.alloc
		g.Release()

		// The old storage is unreachable from v now.
		release(current, oldBuf, oldN)
		return nil
	}
}

// copyWith builds copies of v's elements in storage from alloc under v's
// shared lock.
func (v *Vector[T]) copyWith(alloc Allocator[T], logger *slog.Logger) ([]T, int, error) {
	g := v.lock.AcquireShared()
	defer g.Release()
	if v.destroyed {
		return nil, 0, ErrDestroyed
	}
	elems := v.buf[:v.n]
	buf, err := build(alloc, len(elems), func(i int) func() (T, error) {
		return copyCtor(elems[i])
	}, logger)
	if err != nil {
		return nil, 0, err
	}
	return buf, len(elems), nil
}

// --------------------------------------------------------------------------
// Storage helpers
// --------------------------------------------------------------------------

// build allocates count slots and constructs each with the constructor for
// its index. If the k-th construction fails, elements [0,k) are destroyed
// in reverse order, the storage is deallocated and the failure returned as
// a *ConstructionError.
func build[T any](alloc Allocator[T], count int, ctorAt func(int) func() (T, error), logger *slog.Logger) ([]T, error) {
	if count < 0 {
		return nil, ErrNegativeCount
	}
	if count == 0 {
		return nil, nil
	}
	buf, err := alloc.Allocate(count)
	if err != nil {
		return nil, err
	}
	for i := range count {
		if err := alloc.Construct(&buf[i], ctorAt(i)); err != nil {
			logger.Debug("cds: construction failed, rolling back", "index", i, "count", count, "err", err)
			for j := i - 1; j >= 0; j-- {
				alloc.Destroy(&buf[j])
			}
			alloc.Deallocate(buf)
			return nil, &ConstructionError{Index: i, Err: err}
		}
	}
	return buf, nil
}

// relocate moves src into the raw slots of dst, constructing each slot
// through alloc and resetting the source slot to the zero value. On
// failure the moved values are put back into src and the constructed dst
// slots are destroyed; dst is left for the caller to deallocate.
func relocate[T any](alloc Allocator[T], dst, src []T, logger *slog.Logger) error {
	for i := range src {
		err := alloc.Construct(&dst[i], func() (T, error) {
			return src[i], nil
		})
		if err != nil {
			logger.Debug("cds: relocation failed, rolling back", "index", i, "count", len(src), "err", err)
			var zero T
			for j := i - 1; j >= 0; j-- {
				src[j], dst[j] = dst[j], zero
				alloc.Destroy(&dst[j])
			}
			return &ConstructionError{Index: i, Err: err}
		}
		var zero T
		src[i] = zero
	}
	return nil
}

// release destroys buf[:n] in index order and deallocates buf.
func release[T any](alloc Allocator[T], buf []T, n int) {
	for i := range n {
		alloc.Destroy(&buf[i])
	}
	if buf != nil {
		alloc.Deallocate(buf)
	}
}
