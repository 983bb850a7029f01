package cds

import "sync"

// Guard is a held lock. Release gives it back; each guard must be released
// exactly once.
type Guard interface {
	Release()
}

// LockStrategy provides exclusive and shared acquisition over one logical
// resource. AcquireExclusive blocks until no other guard is outstanding;
// AcquireShared blocks only while an exclusive guard is outstanding.
type LockStrategy interface {
	AcquireExclusive() Guard
	AcquireShared() Guard
}

// --------------------------------------------------------------------------
// Default strategy (sync.RWMutex)
// --------------------------------------------------------------------------

type rwMutexStrategy struct {
	mu sync.RWMutex
}

type rwWriteGuard struct{ mu *sync.RWMutex }

func (g rwWriteGuard) Release() { g.mu.Unlock() }

type rwReadGuard struct{ mu *sync.RWMutex }

func (g rwReadGuard) Release() { g.mu.RUnlock() }

// NewRWMutexStrategy returns the default strategy: shared reads and
// exclusive writes over one sync.RWMutex.
func NewRWMutexStrategy() LockStrategy {
	return &rwMutexStrategy{}
}

func (s *rwMutexStrategy) AcquireExclusive() Guard {
	s.mu.Lock()
	return rwWriteGuard{&s.mu}
}

func (s *rwMutexStrategy) AcquireShared() Guard {
	s.mu.RLock()
	return rwReadGuard{&s.mu}
}

// --------------------------------------------------------------------------
// No-op strategy
// --------------------------------------------------------------------------

type nopStrategy struct{}

type nopGuard struct{}

func (nopGuard) Release() {}

// NewNopStrategy returns a strategy that never blocks. Only use it for
// containers confined to a single goroutine.
func NewNopStrategy() LockStrategy {
	return nopStrategy{}
}

func (nopStrategy) AcquireExclusive() Guard { return nopGuard{} }

func (nopStrategy) AcquireShared() Guard { return nopGuard{} }
