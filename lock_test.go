package cds

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rcrowley/go-metrics"
)

var strategies = []struct {
	name    string
	newLock func() LockStrategy
}{
	{"RWMutex", NewRWMutexStrategy},
	{"ReaderBiased", NewReaderBiasedStrategy},
	{"Sharded", func() LockStrategy { return NewShardedStrategy(4) }},
	{"ShardedAuto", func() LockStrategy { return NewShardedStrategy(0) }},
	{"Instrumented", func() LockStrategy {
		return NewInstrumentedStrategy(NewRWMutexStrategy(), metrics.NewRegistry(), "test")
	}},
}

func TestLockStrategyExclusive(t *testing.T) {
	for _, tc := range strategies {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.newLock()
			counter := 0

			var wg sync.WaitGroup
			for range 8 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for range 500 {
						g := s.AcquireExclusive()
						counter++
						g.Release()
					}
				}()
			}
			wg.Wait()

			if counter != 8*500 {
				t.Errorf("counter = %d, want %d", counter, 8*500)
			}
		})
	}
}

func TestLockStrategySharedIsShared(t *testing.T) {
	for _, tc := range strategies {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.newLock()
			g1 := s.AcquireShared()
			g2 := s.AcquireShared()
			g2.Release()
			g1.Release()
		})
	}
}

func TestLockStrategyExclusiveWaitsForShared(t *testing.T) {
	for _, tc := range strategies {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.newLock()
			r := s.AcquireShared()

			var acquired atomic.Bool
			done := make(chan struct{})
			go func() {
				g := s.AcquireExclusive()
				acquired.Store(true)
				g.Release()
				close(done)
			}()

			time.Sleep(20 * time.Millisecond)
			if acquired.Load() {
				t.Fatal("exclusive guard acquired while a shared guard was held")
			}
			r.Release()

			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("exclusive guard never acquired after shared release")
			}
		})
	}
}

func TestNewShardedStrategyNormalisesCount(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{1, 1},
		{4, 4},
		{3, DefaultShardCount},
		{-2, DefaultShardCount},
	}
	for _, tc := range tests {
		s := NewShardedStrategy(tc.in).(*shardedStrategy)
		if len(s.shards) != tc.want {
			t.Errorf("NewShardedStrategy(%d) shards = %d, want %d", tc.in, len(s.shards), tc.want)
		}
	}

	auto := NewShardedStrategy(0).(*shardedStrategy)
	if n := len(auto.shards); n&(n-1) != 0 {
		t.Errorf("NewShardedStrategy(0) shards = %d, want a power of two", n)
	}
}

func TestNopStrategy(t *testing.T) {
	s := NewNopStrategy()
	s.AcquireExclusive().Release()
	s.AcquireShared().Release()
}

func TestInstrumentedStrategyRecords(t *testing.T) {
	r := metrics.NewRegistry()
	s := NewInstrumentedStrategy(NewRWMutexStrategy(), r, "vec")

	for range 3 {
		s.AcquireExclusive().Release()
	}
	s.AcquireShared().Release()

	tests := []struct {
		name string
		want int64
	}{
		{"vec.exclusive.wait", 3},
		{"vec.exclusive.hold", 3},
		{"vec.shared.wait", 1},
	}
	for _, tc := range tests {
		timer, ok := r.Get(tc.name).(metrics.Timer)
		if !ok {
			t.Fatalf("timer %q not registered", tc.name)
		}
		if got := timer.Count(); got != tc.want {
			t.Errorf("%s count = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestLockPairOrder(t *testing.T) {
	a, b := NewRWMutexStrategy(), NewRWMutexStrategy()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				var unlock func()
				if i%2 == 0 {
					unlock = lockPair(1, a, 2, b)
				} else {
					unlock = lockPair(2, b, 1, a)
				}
				unlock()
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("lockPair deadlocked")
	}
}
