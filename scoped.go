package cds

import "iter"

// ScopedRead holds a container's shared lock from creation until Release,
// so a batch of reads observes one consistent state. An accessor belongs
// to the goroutine that created it and must not outlive its container.
type ScopedRead[T any] struct {
	elems []T
	guard Guard
}

func newScopedRead[T any](elems []T, g Guard) *ScopedRead[T] {
	return &ScopedRead[T]{elems: elems, guard: g}
}

// At returns the element at pos.
func (r *ScopedRead[T]) At(pos int) (T, error) {
	if r.guard == nil {
		var zero T
		return zero, ErrAccessorReleased
	}
	if err := checkIndex(pos, len(r.elems)); err != nil {
		var zero T
		return zero, err
	}
	return r.elems[pos], nil
}

// Front returns the first element.
func (r *ScopedRead[T]) Front() (T, error) {
	return r.At(0)
}

// Back returns the last element.
func (r *ScopedRead[T]) Back() (T, error) {
	return r.At(len(r.elems) - 1)
}

// Len returns the number of elements visible through the accessor.
func (r *ScopedRead[T]) Len() int {
	if r.guard == nil {
		return 0
	}
	return len(r.elems)
}

// All yields index/value pairs in order. Nothing is yielded after Release.
func (r *ScopedRead[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < r.Len(); i++ {
			if !yield(i, r.elems[i]) {
				return
			}
		}
	}
}

// Backward yields index/value pairs from the last element to the first.
func (r *ScopedRead[T]) Backward() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := r.Len() - 1; i >= 0 && r.guard != nil; i-- {
			if !yield(i, r.elems[i]) {
				return
			}
		}
	}
}

// Release gives the lock back. Calling Release more than once is a no-op.
func (r *ScopedRead[T]) Release() {
	if r.guard != nil {
		r.guard.Release()
		r.guard = nil
		r.elems = nil
	}
}

// ScopedWrite holds a container's exclusive lock from creation until
// Release, so a batch of writes is published atomically. The same
// ownership rules as ScopedRead apply.
type ScopedWrite[T any] struct {
	elems []T
	guard Guard
}

func newScopedWrite[T any](elems []T, g Guard) *ScopedWrite[T] {
	return &ScopedWrite[T]{elems: elems, guard: g}
}

// At returns the element at pos.
func (w *ScopedWrite[T]) At(pos int) (T, error) {
	p, err := w.Ptr(pos)
	if err != nil {
		var zero T
		return zero, err
	}
	return *p, nil
}

// Set stores value at pos.
func (w *ScopedWrite[T]) Set(pos int, value T) error {
	p, err := w.Ptr(pos)
	if err != nil {
		return err
	}
	*p = value
	return nil
}

// Ptr returns a pointer to the element at pos. The pointer must not be
// used after Release.
func (w *ScopedWrite[T]) Ptr(pos int) (*T, error) {
	if w.guard == nil {
		return nil, ErrAccessorReleased
	}
	if err := checkIndex(pos, len(w.elems)); err != nil {
		return nil, err
	}
	return &w.elems[pos], nil
}

// Front returns the first element.
func (w *ScopedWrite[T]) Front() (T, error) {
	return w.At(0)
}

// Back returns the last element.
func (w *ScopedWrite[T]) Back() (T, error) {
	return w.At(len(w.elems) - 1)
}

// Len returns the number of elements visible through the accessor.
func (w *ScopedWrite[T]) Len() int {
	if w.guard == nil {
		return 0
	}
	return len(w.elems)
}

// All yields index/pointer pairs in order.
func (w *ScopedWrite[T]) All() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		for i := 0; i < w.Len(); i++ {
			if !yield(i, &w.elems[i]) {
				return
			}
		}
	}
}

// Backward yields index/pointer pairs from the last element to the first.
func (w *ScopedWrite[T]) Backward() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		for i := w.Len() - 1; i >= 0 && w.guard != nil; i-- {
			if !yield(i, &w.elems[i]) {
				return
			}
		}
	}
}

// Release gives the lock back. Calling Release more than once is a no-op.
func (w *ScopedWrite[T]) Release() {
	if w.guard != nil {
		w.guard.Release()
		w.guard = nil
		w.elems = nil
	}
}
