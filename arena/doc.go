// Package arena implements a chunked bump allocator (memory arena) that
// backs container buffers for the cds package.
//
// # Overview
//
// An arena hands out portions of large chunks on demand and reclaims them
// all at once. cds.ArenaAllocator uses a SafeArena as the raw storage for
// Vector buffers; the SafeArena resets itself once every outstanding slice
// has been freed.
//
// # Basic Usage
//
//	a := arena.NewArena(0) // Use default chunk size
//	defer a.Release()      // Clean up when done
//
//	buf := a.AllocBytes(1024)
//	p := arena.Alloc[Point](a)
//	xs := arena.AllocSlice[int64](a, 100)
//
//	// Reset for reuse (O(number of chunks))
//	a.Reset()
//
// # Thread Safety
//
// Arena is not thread-safe. SafeArena serialises allocation behind a
// write lock and lets metric readers share a read lock:
//
//	s := arena.NewSafeArena(0)
//	defer s.Release()
//	xs, err := arena.SafeAllocSlice[int64](s, 16)
//	...
//	s.Free() // the arena resets once every slice is freed
//
// # Important Notes
//
//   - Allocated memory is only valid until the next Reset or Release
//   - No individual deallocation: use Reset() or Release() for bulk cleanup,
//     or SafeArena.Free to reset once every counted slice is back
//   - Typed allocations are always zeroed and aligned for their type
//   - The garbage collector does not scan arena memory: only store
//     pointer-free types (PointerFree reports this)
package arena
