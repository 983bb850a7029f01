package cds

import "github.com/puzpuzpuz/xsync/v3"

// readerBiasedStrategy backs both modes with an xsync.RBMutex. Shared
// acquisitions scale with the number of cores; exclusive acquisitions are
// more expensive than with sync.RWMutex.
type readerBiasedStrategy struct {
	mu *xsync.RBMutex
}

type rbWriteGuard struct{ mu *xsync.RBMutex }

func (g rbWriteGuard) Release() { g.mu.Unlock() }

type rbReadGuard struct {
	mu    *xsync.RBMutex
	token *xsync.RToken
}

func (g rbReadGuard) Release() { g.mu.RUnlock(g.token) }

// NewReaderBiasedStrategy returns a strategy suited to read-mostly
// containers such as lookup tables filled once and read by many goroutines.
func NewReaderBiasedStrategy() LockStrategy {
	return &readerBiasedStrategy{mu: xsync.NewRBMutex()}
}

func (s *readerBiasedStrategy) AcquireExclusive() Guard {
	s.mu.Lock()
	return rbWriteGuard{s.mu}
}

func (s *readerBiasedStrategy) AcquireShared() Guard {
	return rbReadGuard{mu: s.mu, token: s.mu.RLock()}
}
