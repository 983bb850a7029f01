package cds

import (
	"log/slog"
	"sync/atomic"
)

// seq hands out container identities. Identities define the canonical
// order in which two containers are locked.
var seq atomic.Uint64

func nextID() uint64 {
	return seq.Add(1)
}

// Option configures a container at construction.
type Option func(*options)

type options struct {
	newLock func() LockStrategy
	logger  *slog.Logger
}

func buildOptions(opts []Option) options {
	return applyOptions(options{
		newLock: NewRWMutexStrategy,
		logger:  slog.New(slog.DiscardHandler),
	}, opts)
}

func applyOptions(o options, opts []Option) options {
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLockStrategy sets the factory used to create the container's lock
// strategy. The factory is called once per container, and again for
// containers derived from it (Clone, Move), so every container owns its
// own instance.
func WithLockStrategy(newLock func() LockStrategy) Option {
	return func(o *options) {
		if newLock != nil {
			o.newLock = newLock
		}
	}
}

// WithLogger sets the logger used for rollback and allocator diagnostics.
// Nothing is logged above debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// lockPair acquires exclusive guards on two distinct strategies, lower
// identity first, so that concurrent calls with swapped arguments cannot
// deadlock. Guards are released in reverse order by the returned func.
func lockPair(idA uint64, a LockStrategy, idB uint64, b LockStrategy) func() {
	first, second := a, b
	if idB < idA {
		first, second = b, a
	}
	g1 := first.AcquireExclusive()
	g2 := second.AcquireExclusive()
	return func() {
		g2.Release()
		g1.Release()
	}
}
