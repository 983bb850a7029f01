package cds

import "iter"

// Array is a thread-safe array whose length is fixed at construction.
//
// Thread-safety: single element operations lock internally; scoped
// accessors batch several operations under one acquisition. All and
// Backward do not lock.
type Array[T any] struct {
	id   uint64
	lock LockStrategy
	buf  []T
}

// NewArray returns an array of n zero values. n must be at least one.
func NewArray[T any](n int, opts ...Option) (*Array[T], error) {
	if n < 1 {
		return nil, ErrEmptyArray
	}
	o := buildOptions(opts)
	return &Array[T]{
		id:   nextID(),
		lock: o.newLock(),
		buf:  make([]T, n),
	}, nil
}

// ArrayOf returns an array holding a copy of values.
func ArrayOf[T any](values ...T) (*Array[T], error) {
	return ArrayFrom(values)
}

// ArrayFrom returns an array holding a copy of values.
func ArrayFrom[T any](values []T, opts ...Option) (*Array[T], error) {
	a, err := NewArray[T](len(values), opts...)
	if err != nil {
		return nil, err
	}
	copy(a.buf, values)
	return a, nil
}

// At returns the element at pos.
func (a *Array[T]) At(pos int) (T, error) {
	g := a.lock.AcquireShared()
	defer g.Release()
	if err := checkIndex(pos, len(a.buf)); err != nil {
		var zero T
		return zero, err
	}
	return a.buf[pos], nil
}

// Set stores value at pos.
func (a *Array[T]) Set(pos int, value T) error {
	g := a.lock.AcquireExclusive()
	defer g.Release()
	if err := checkIndex(pos, len(a.buf)); err != nil {
		return err
	}
	a.buf[pos] = value
	return nil
}

// Front returns the first element.
func (a *Array[T]) Front() T {
	g := a.lock.AcquireShared()
	defer g.Release()
	return a.buf[0]
}

// Back returns the last element.
func (a *Array[T]) Back() T {
	g := a.lock.AcquireShared()
	defer g.Release()
	return a.buf[len(a.buf)-1]
}

// Fill assigns value to every element under one exclusive acquisition, so
// concurrent fills never interleave. Elements are assigned, not cloned, so
// Fill cannot fail.
func (a *Array[T]) Fill(value T) {
	g := a.lock.AcquireExclusive()
	defer g.Release()
	for i := range a.buf {
		a.buf[i] = value
	}
}

// Swap exchanges the contents of a and other element by element. Both
// arrays are locked in a fixed global order, so concurrent a.Swap(b) and
// b.Swap(a) cannot deadlock. Swapping an array with itself does nothing.
func (a *Array[T]) Swap(other *Array[T]) error {
	if a == other {
		return nil
	}
	unlock := lockPair(a.id, a.lock, other.id, other.lock)
	defer unlock()
	if len(a.buf) != len(other.buf) {
		return ErrLengthMismatch
	}
	for i := range a.buf {
		a.buf[i], other.buf[i] = other.buf[i], a.buf[i]
	}
	return nil
}

// NewScopedRead acquires the shared lock and returns an accessor holding
// it until Release.
func (a *Array[T]) NewScopedRead() *ScopedRead[T] {
	return newScopedRead(a.buf, a.lock.AcquireShared())
}

// NewScopedWrite acquires the exclusive lock and returns an accessor
// holding it until Release.
func (a *Array[T]) NewScopedWrite() *ScopedWrite[T] {
	return newScopedWrite(a.buf, a.lock.AcquireExclusive())
}

// Read runs fn with a scoped reader that is released when fn returns.
func (a *Array[T]) Read(fn func(r *ScopedRead[T])) {
	r := a.NewScopedRead()
	defer r.Release()
	fn(r)
}

// Write runs fn with a scoped writer that is released when fn returns.
func (a *Array[T]) Write(fn func(w *ScopedWrite[T])) {
	w := a.NewScopedWrite()
	defer w.Release()
	fn(w)
}

// All yields index/value pairs without locking. Callers must hold a
// scoped accessor for the whole iteration.
func (a *Array[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, v := range a.buf {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Backward is All in reverse order, with the same locking contract.
func (a *Array[T]) Backward() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := len(a.buf) - 1; i >= 0; i-- {
			if !yield(i, a.buf[i]) {
				return
			}
		}
	}
}

// Len returns the fixed number of elements.
func (a *Array[T]) Len() int { return len(a.buf) }

// MaxSize equals Len.
func (a *Array[T]) MaxSize() int { return len(a.buf) }

// Empty is always false: arrays hold at least one element.
func (a *Array[T]) Empty() bool { return false }
