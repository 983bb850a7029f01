package cds

import (
	"fmt"
	"io"

	"github.com/VictoriaMetrics/metrics"
)

// AllocatorStats is a snapshot of a CountingAllocator's counters.
type AllocatorStats struct {
	Allocations       uint64 // Successful Allocate calls
	Deallocations     uint64 // Deallocate calls
	AllocatedSlots    uint64 // Slots handed out by Allocate
	DeallocatedSlots  uint64 // Slots handed back through Deallocate
	Constructed       uint64 // Successful Construct calls
	Destroyed         uint64 // Destroy calls
	ConstructFailures uint64 // Construct calls whose constructor failed
	AllocFailures     uint64 // Allocate calls that failed
}

// Live returns the number of elements constructed but not yet destroyed.
func (s AllocatorStats) Live() int64 {
	return int64(s.Constructed) - int64(s.Destroyed)
}

// Balanced reports whether every allocation was deallocated with the same
// number of slots and every constructed element was destroyed.
func (s AllocatorStats) Balanced() bool {
	return s.Allocations == s.Deallocations &&
		s.AllocatedSlots == s.DeallocatedSlots &&
		s.Constructed == s.Destroyed
}

// CountingAllocator wraps another allocator and counts every lifecycle
// call in a VictoriaMetrics set. Copies of a container share the counters.
type CountingAllocator[T any] struct {
	inner Allocator[T]
	set   *metrics.Set

	allocations       *metrics.Counter
	deallocations     *metrics.Counter
	allocatedSlots    *metrics.Counter
	deallocatedSlots  *metrics.Counter
	constructed       *metrics.Counter
	destroyed         *metrics.Counter
	constructFailures *metrics.Counter
	allocFailures     *metrics.Counter
}

// NewCountingAllocator wraps inner (HeapAllocator when nil). Counters are
// registered in set under the label allocator="name"; a nil set gets a
// private one.
func NewCountingAllocator[T any](inner Allocator[T], set *metrics.Set, name string) *CountingAllocator[T] {
	if inner == nil {
		inner = HeapAllocator[T]{}
	}
	if set == nil {
		set = metrics.NewSet()
	}
	counter := func(metric string) *metrics.Counter {
		return set.GetOrCreateCounter(fmt.Sprintf(`cds_allocator_%s_total{allocator=%q}`, metric, name))
	}
	return &CountingAllocator[T]{
		inner:             inner,
		set:               set,
		allocations:       counter("allocations"),
		deallocations:     counter("deallocations"),
		allocatedSlots:    counter("allocated_slots"),
		deallocatedSlots:  counter("deallocated_slots"),
		constructed:       counter("constructed"),
		destroyed:         counter("destroyed"),
		constructFailures: counter("construct_failures"),
		allocFailures:     counter("alloc_failures"),
	}
}

func (c *CountingAllocator[T]) Allocate(n int) ([]T, error) {
	buf, err := c.inner.Allocate(n)
	if err != nil {
		c.allocFailures.Inc()
		return nil, err
	}
	c.allocations.Inc()
	c.allocatedSlots.Add(len(buf))
	return buf, nil
}

func (c *CountingAllocator[T]) Deallocate(buf []T) {
	c.inner.Deallocate(buf)
	c.deallocations.Inc()
	c.deallocatedSlots.Add(len(buf))
}

func (c *CountingAllocator[T]) Construct(slot *T, ctor func() (T, error)) error {
	if err := c.inner.Construct(slot, ctor); err != nil {
		c.constructFailures.Inc()
		return err
	}
	c.constructed.Inc()
	return nil
}

func (c *CountingAllocator[T]) Destroy(slot *T) {
	c.inner.Destroy(slot)
	c.destroyed.Inc()
}

// Equal reports whether other counts into the same counters over equal
// inner allocators.
func (c *CountingAllocator[T]) Equal(other Allocator[T]) bool {
	o, ok := other.(*CountingAllocator[T])
	return ok && o.allocations == c.allocations && o.inner.Equal(c.inner)
}

// SelectOnCopy keeps counting into the same counters.
func (c *CountingAllocator[T]) SelectOnCopy() Allocator[T] {
	return c
}

// Stats returns a snapshot of the counters.
func (c *CountingAllocator[T]) Stats() AllocatorStats {
	return AllocatorStats{
		Allocations:       c.allocations.Get(),
		Deallocations:     c.deallocations.Get(),
		AllocatedSlots:    c.allocatedSlots.Get(),
		DeallocatedSlots:  c.deallocatedSlots.Get(),
		Constructed:       c.constructed.Get(),
		Destroyed:         c.destroyed.Get(),
		ConstructFailures: c.constructFailures.Get(),
		AllocFailures:     c.allocFailures.Get(),
	}
}

// WritePrometheus writes every counter of the underlying set in Prometheus
// text format.
func (c *CountingAllocator[T]) WritePrometheus(w io.Writer) {
	c.set.WritePrometheus(w)
}
