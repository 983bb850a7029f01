// Package cds implements generic containers that are safe for concurrent
// use: Array, whose length is fixed when it is created, and Vector, whose
// storage comes from a pluggable Allocator.
//
// # Overview
//
// Each container owns one LockStrategy. Single element operations take the
// lock for the duration of the call. Scoped accessors hold it across a
// batch of operations, so readers see one consistent state and writers
// publish a batch at once:
//
//	a, _ := cds.NewArray[int](4)
//	a.Write(func(w *cds.ScopedWrite[int]) {
//		for i, p := range w.All() {
//			*p = i * i
//		}
//	})
//
// # Vector Lifecycle
//
// A Vector allocates its storage before constructing elements and destroys
// every element before deallocating. When constructing the k-th element
// fails, elements [0,k) are destroyed in reverse order, the storage is
// deallocated and the error is returned as a *ConstructionError, so a
// failed constructor leaks nothing:
//
//	counts := cds.NewCountingAllocator[Conn](nil, nil, "conns")
//	v, err := cds.NewVectorSize[Conn](32, counts)
//	if err != nil {
//		// counts.Stats().Balanced() is true here
//	}
//	defer v.Destroy()
//
// Element types take part through optional hooks: Initializer for default
// construction, Cloner for copies and Destroyer for destruction.
//
// # Locking
//
// Operations that lock two containers (Swap) acquire them in the order of
// an identity assigned at creation, so concurrent a.Swap(b) and b.Swap(a)
// cannot deadlock. CopyFrom never holds both locks at once.
//
// # Important Notes
//
//   - All and Backward do not lock; iterate through a scoped accessor
//   - A scoped accessor belongs to the goroutine that created it
//   - Do not call methods of a container while holding its scoped
//     accessor: the lock is not reentrant
//   - A Vector must be ended with Destroy
package cds
