package arena

import (
	"errors"
	"sync"
)

// ErrReleased is returned by SafeAllocSlice once the arena has been released.
var ErrReleased = errors.New("arena: released")

// SafeArena is a lock-protected wrapper around Arena for concurrent access.
// Allocation, reset and release take the write lock; metric reads share the
// read lock.
//
// Slices from SafeAllocSlice are counted until they are handed back with
// Free. The arena resets itself when the count drops to zero, so every
// holder of the arena shares one count.
type SafeArena struct {
	mu          sync.RWMutex
	a           *Arena
	outstanding int
}

// NewSafeArena creates a new thread-safe arena with the specified chunk size.
// If chunkSize <= 0, DefaultChunkSize is used.
func NewSafeArena(chunkSize int) *SafeArena {
	return &SafeArena{a: NewArena(chunkSize)}
}

// Reset thread-safely resets allocation offsets to zero for arena reuse.
func (s *SafeArena) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Reset()
}

// Release thread-safely drops all chunks and makes the arena unusable.
func (s *SafeArena) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Release()
}

// Released thread-safely reports whether Release has been called.
func (s *SafeArena) Released() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.a.Released()
}

// Free hands back one slice returned by SafeAllocSlice. When no slice is
// outstanding any more the arena is reset.
func (s *SafeArena) Free() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outstanding == 0 {
		panic("arena: Free without an outstanding allocation")
	}
	s.outstanding--
	if s.outstanding == 0 && !s.a.Released() {
		s.a.Reset()
	}
}

// Outstanding thread-safely returns the number of slices not yet freed.
func (s *SafeArena) Outstanding() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outstanding
}

// SafeAllocSlice thread-safely allocates a zeroed slice of n elements of
// type T and counts it as outstanding until Free. It returns nil without
// counting anything if n <= 0.
func SafeAllocSlice[T any](s *SafeArena, n int) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.a.Released() {
		return nil, ErrReleased
	}
	xs := AllocSlice[T](s.a, n)
	if xs == nil {
		// zero-size T takes no arena memory
		xs = make([]T, n)
	}
	s.outstanding++
	return xs, nil
}
