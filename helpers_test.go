package cds

import (
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
)

var errInit = errors.New("init failed")

// tracked counts its live instances. Init and Clone fail when failNext
// says so. Tests using tracked must not run in parallel.
type tracked struct {
	id int64
}

var (
	trackedLive atomic.Int64
	trackedIDs  atomic.Int64

	failMu   sync.Mutex
	failNext func() bool
)

func setFailure(fn func() bool) func() {
	failMu.Lock()
	failNext = fn
	failMu.Unlock()
	return func() {
		failMu.Lock()
		failNext = nil
		failMu.Unlock()
	}
}

func shouldFail() bool {
	failMu.Lock()
	defer failMu.Unlock()
	return failNext != nil && failNext()
}

// failAt fails the k-th call (zero based) and no other.
func failAt(k int) func() bool {
	calls := 0
	return func() bool {
		calls++
		return calls-1 == k
	}
}

// failRandomly fails with probability p, deterministically for a seed.
func failRandomly(seed uint64, p float64) func() bool {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return func() bool {
		return r.Float64() < p
	}
}

func (t *tracked) Init() error {
	if shouldFail() {
		return errInit
	}
	t.id = trackedIDs.Add(1)
	trackedLive.Add(1)
	return nil
}

func (t tracked) Clone() (tracked, error) {
	if shouldFail() {
		return tracked{}, errInit
	}
	trackedLive.Add(1)
	return tracked{id: trackedIDs.Add(1)}, nil
}

func (t *tracked) Destroy() {
	if t.id != 0 {
		trackedLive.Add(-1)
	}
}

var errConstruct = errors.New("construct failed")

// hookAllocator wraps an allocator with optional hooks. It is equal only
// to itself.
type hookAllocator[T any] struct {
	Allocator[T]
	onAllocate    func()
	failConstruct func() bool
}

func (h *hookAllocator[T]) Allocate(n int) ([]T, error) {
	if h.onAllocate != nil {
		h.onAllocate()
	}
	return h.Allocator.Allocate(n)
}

func (h *hookAllocator[T]) Construct(slot *T, ctor func() (T, error)) error {
	if h.failConstruct != nil && h.failConstruct() {
		return errConstruct
	}
	return h.Allocator.Construct(slot, ctor)
}

func (h *hookAllocator[T]) Equal(other Allocator[T]) bool {
	o, ok := other.(*hookAllocator[T])
	return ok && o == h
}
