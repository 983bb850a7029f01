package arena

import "unsafe"

// DefaultChunkSize is the default chunk size for new arenas (64 KiB).
const DefaultChunkSize = 1 << 16

// maxAlign is the strictest alignment any Go type asks for.
const maxAlign = 8

// chunk represents a single memory chunk within an arena.
type chunk struct {
	buf    []byte  // backing memory
	offset uintptr // allocation offset within buf
}

// Arena is a chunked bump allocator. Not goroutine-safe by default.
// Use SafeArena for concurrent access.
type Arena struct {
	chunks    []chunk
	chunkSize int
	current   int // index of the chunk serving allocations
	resets    int
}

// NewArena creates a new Arena with the specified chunk size.
// If chunkSize <= 0, DefaultChunkSize is used.
func NewArena(chunkSize int) *Arena {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	a := &Arena{chunkSize: chunkSize}
	a.grow(chunkSize)
	return a
}

// AllocBytes returns n bytes aligned for any Go type. The bytes are not
// zeroed after a Reset. Returns nil if n <= 0.
func (a *Arena) AllocBytes(n int) []byte {
	return a.AllocAligned(n, maxAlign)
}

// AllocAligned returns n bytes whose first byte is aligned to align, which
// must be a power of two. Returns nil if n <= 0.
func (a *Arena) AllocAligned(n, align int) []byte {
	if n <= 0 {
		return nil
	}
	a.panicIfReleased()
	if align <= 0 || align&(align-1) != 0 {
		panic("arena: alignment must be a power of two")
	}

	// Earlier chunks are skipped once they are full; a reset rewinds to the first.
	for i := a.current; i < len(a.chunks); i++ {
		if b, ok := a.chunks[i].take(n, align); ok {
			a.current = i
			return b
		}
	}

	a.grow(n + align)
	b, _ := a.chunks[a.current].take(n, align)
	return b
}

// take carves n aligned bytes out of c if they fit.
func (c *chunk) take(n, align int) ([]byte, bool) {
	base := uintptr(unsafe.Pointer(unsafe.SliceData(c.buf)))
	off := alignUp(base+c.offset, uintptr(align)) - base
	if off+uintptr(n) > uintptr(len(c.buf)) {
		return nil, false
	}
	c.offset = off + uintptr(n)
	return c.buf[off : off+uintptr(n) : off+uintptr(n)], true
}

// Reset resets allocation offsets to zero but keeps allocated chunks for reuse.
// Every slice previously handed out must be considered dead afterwards.
func (a *Arena) Reset() {
	a.panicIfReleased()
	for i := range a.chunks {
		a.chunks[i].offset = 0
	}
	a.current = 0
	a.resets++
}

// Release drops all chunks and makes the arena unusable.
// Any subsequent allocation will panic.
func (a *Arena) Release() {
	a.chunks = nil
	a.current = 0
}

// Released reports whether Release has been called.
func (a *Arena) Released() bool {
	return a.chunks == nil
}

// grow appends a new chunk of at least min bytes and makes it current.
func (a *Arena) grow(min int) {
	size := a.chunkSize
	if min > size {
		size = min
	}
	a.chunks = append(a.chunks, chunk{buf: make([]byte, size)})
	a.current = len(a.chunks) - 1
}

// panicIfReleased panics if the arena has been released.
func (a *Arena) panicIfReleased() {
	if a.chunks == nil {
		panic("arena: use after Release()")
	}
}

// alignUp rounds off up to the next multiple of align.
func alignUp(off, align uintptr) uintptr {
	mask := align - 1
	return (off + mask) &^ mask
}
