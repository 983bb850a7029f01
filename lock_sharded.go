package cds

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// DefaultShardCount is used when NewShardedStrategy gets an invalid count.
const DefaultShardCount = 8

// paddedRWMutex keeps neighbouring shards off the same cache line.
type paddedRWMutex struct {
	sync.RWMutex
	_ [64 - 24]byte
}

// shardedStrategy is a big-reader lock: a shared guard holds the read side
// of one shard, an exclusive guard holds the write side of every shard.
type shardedStrategy struct {
	shards []paddedRWMutex
	mask   uint64
	next   atomic.Uint64
}

type shardReadGuard struct{ mu *paddedRWMutex }

func (g shardReadGuard) Release() { g.mu.RUnlock() }

type shardWriteGuard struct{ s *shardedStrategy }

func (g shardWriteGuard) Release() {
	for i := len(g.s.shards) - 1; i >= 0; i-- {
		g.s.shards[i].Unlock()
	}
}

// NewShardedStrategy returns a strategy that spreads readers over
// per-shard read locks. shards must be a power of two; other values fall back to
// DefaultShardCount, or to the next power of two above GOMAXPROCS when
// shards is zero.
func NewShardedStrategy(shards int) LockStrategy {
	if shards == 0 {
		shards = 1
		for shards < runtime.GOMAXPROCS(0) {
			shards <<= 1
		}
	}
	if shards < 0 || shards&(shards-1) != 0 {
		shards = DefaultShardCount
	}
	return &shardedStrategy{
		shards: make([]paddedRWMutex, shards),
		mask:   uint64(shards - 1),
	}
}

func (s *shardedStrategy) AcquireExclusive() Guard {
	// Index order keeps concurrent exclusive acquisitions deadlock free.
	for i := range s.shards {
		s.shards[i].Lock()
	}
	return shardWriteGuard{s}
}

func (s *shardedStrategy) AcquireShared() Guard {
	mu := &s.shards[s.next.Add(1)&s.mask]
	mu.RLock()
	return shardReadGuard{mu}
}
