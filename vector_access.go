package cds

import "iter"

// At returns the element at pos.
func (v *Vector[T]) At(pos int) (T, error) {
	g := v.lock.AcquireShared()
	defer g.Release()
	var zero T
	if v.destroyed {
		return zero, ErrDestroyed
	}
	if err := checkIndex(pos, v.n); err != nil {
		return zero, err
	}
	return v.buf[pos], nil
}

// Set stores value at pos.
func (v *Vector[T]) Set(pos int, value T) error {
	g := v.lock.AcquireExclusive()
	defer g.Release()
	if v.destroyed {
		return ErrDestroyed
	}
	if err := checkIndex(pos, v.n); err != nil {
		return err
	}
	v.buf[pos] = value
	return nil
}

// Front returns the first element, or a *BoundsError when v is empty.
func (v *Vector[T]) Front() (T, error) {
	return v.At(0)
}

// Back returns the last element, or a *BoundsError when v is empty.
func (v *Vector[T]) Back() (T, error) {
	g := v.lock.AcquireShared()
	defer g.Release()
	var zero T
	if v.destroyed {
		return zero, ErrDestroyed
	}
	if err := checkIndex(v.n-1, v.n); err != nil {
		return zero, err
	}
	return v.buf[v.n-1], nil
}

// Fill assigns value to every live element under one exclusive
// acquisition.
func (v *Vector[T]) Fill(value T) error {
	g := v.lock.AcquireExclusive()
	defer g.Release()
	if v.destroyed {
		return ErrDestroyed
	}
	for i := range v.n {
		v.buf[i] = value
	}
	return nil
}

// Swap exchanges storage, length and allocator with other. Both vectors
// are locked in a fixed global order, so concurrent v.Swap(w) and
// w.Swap(v) cannot deadlock. Swapping a vector with itself does nothing.
func (v *Vector[T]) Swap(other *Vector[T]) error {
	if v == other {
		return nil
	}
	unlock := lockPair(v.id, v.lock, other.id, other.lock)
	defer unlock()
	if v.destroyed || other.destroyed {
		return ErrDestroyed
	}
	v.alloc, other.alloc = other.alloc, v.alloc
	v.buf, other.buf = other.buf, v.buf
	v.n, other.n = other.n, v.n
	return nil
}

// NewScopedRead acquires the shared lock and returns an accessor holding
// it until Release. A destroyed vector yields an empty accessor.
func (v *Vector[T]) NewScopedRead() *ScopedRead[T] {
	g := v.lock.AcquireShared()
	return newScopedRead(v.buf[:v.n], g)
}

// NewScopedWrite acquires the exclusive lock and returns an accessor
// holding it until Release.
func (v *Vector[T]) NewScopedWrite() *ScopedWrite[T] {
	g := v.lock.AcquireExclusive()
	return newScopedWrite(v.buf[:v.n], g)
}

// Read runs fn with a scoped reader that is released when fn returns.
func (v *Vector[T]) Read(fn func(r *ScopedRead[T])) {
	r := v.NewScopedRead()
	defer r.Release()
	fn(r)
}

// Write runs fn with a scoped writer that is released when fn returns.
func (v *Vector[T]) Write(fn func(w *ScopedWrite[T])) {
	w := v.NewScopedWrite()
	defer w.Release()
	fn(w)
}

// All yields index/value pairs without locking. Callers must hold a
// scoped accessor for the whole iteration.
func (v *Vector[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < v.n; i++ {
			if !yield(i, v.buf[i]) {
				return
			}
		}
	}
}

// Backward is All in reverse order, with the same locking contract.
func (v *Vector[T]) Backward() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := v.n - 1; i >= 0; i-- {
			if !yield(i, v.buf[i]) {
				return
			}
		}
	}
}

// Len returns the number of live elements.
func (v *Vector[T]) Len() int {
	g := v.lock.AcquireShared()
	defer g.Release()
	return v.n
}

// Cap returns the number of allocated slots.
func (v *Vector[T]) Cap() int {
	g := v.lock.AcquireShared()
	defer g.Release()
	return len(v.buf)
}

// Empty reports whether v holds no elements.
func (v *Vector[T]) Empty() bool {
	return v.Len() == 0
}

// MaxSize returns the largest length the element type allows.
func (v *Vector[T]) MaxSize() int {
	return MaxSize[T]()
}

// Allocator returns the allocator currently owning v's storage.
func (v *Vector[T]) Allocator() Allocator[T] {
	g := v.lock.AcquireShared()
	defer g.Release()
	return v.alloc
}
