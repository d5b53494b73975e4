// Package bootstrap provides the minimal allocator used before the backing
// allocator has finished initializing.
//
// Early process startup resolves dynamic symbols, and symbol resolution may
// itself allocate — before the main allocator's locks and metadata exist.
// Routing those requests here breaks the reentrancy cycle: the arena is a
// self-contained bump allocator over a static buffer with no dependency on
// the rest of the layer.
//
// Pointers issued here stay valid for the life of the process. Once the
// backing allocator is ready, new requests stop arriving, but Free and Owns
// keep answering for previously issued pointers so the dispatch layer never
// misroutes them to the main allocator.
package bootstrap

import (
	"sync"

	"github.com/zonekit/zonekit/internal/buf"
)

const (
	// arenaBytes is the bump arena capacity. Startup-window traffic is a
	// handful of small allocations; exhaustion means allocation failure,
	// never fallback.
	arenaBytes = 1 << 20

	// allocAlignment matches the backing allocator's pointer guarantee.
	allocAlignment = 16
)

// Arena is a bump allocator over a fixed buffer with exact ownership
// tracking. Memory is never reused: Free only retires the ownership record.
// Safe for concurrent use; startup-window allocation can be multi-threaded.
type Arena struct {
	mu  sync.Mutex
	buf []byte
	off uintptr

	// issued maps payload address to payload size for every live
	// allocation, so Owns is exact rather than a range guess.
	issued map[uintptr]uintptr
}

// New returns an arena over a fresh buffer of the default capacity.
func New() *Arena {
	a := &Arena{
		buf:    make([]byte, arenaBytes),
		issued: make(map[uintptr]uintptr, 16),
	}
	// Start at an aligned offset; the runtime page-aligns a buffer this
	// large, but the alignment guarantee should not depend on that.
	base := bufBase(a.buf)
	a.off = ((base + allocAlignment - 1) &^ uintptr(allocAlignment-1)) - base
	return a
}

// Alloc allocates size bytes, zero-filled, aligned like the backing
// allocator. A zero size still returns a valid, freeable pointer.
// Returns 0 when the arena is exhausted.
func (a *Arena) Alloc(size uintptr) uintptr {
	need := size
	if need == 0 {
		need = allocAlignment
	}
	need = (need + allocAlignment - 1) &^ uintptr(allocAlignment-1)

	a.mu.Lock()
	defer a.mu.Unlock()

	if need > uintptr(len(a.buf))-a.off {
		return 0
	}
	ptr := a.addr(a.off)
	a.off += need
	a.issued[ptr] = size

	// Bump allocation never reuses memory, so the buffer's original
	// zero fill still holds here.
	return ptr
}

// Calloc allocates n*size zeroed bytes, failing on multiplication overflow.
func (a *Arena) Calloc(n, size uintptr) uintptr {
	total, ok := buf.MulUintptr(n, size)
	if !ok {
		return 0
	}
	return a.Alloc(total)
}

// Free retires ptr if this arena issued it and reports whether it did.
// The dispatch layer tries this before the backing allocator. The memory
// itself is never reclaimed; the arena exists only for the startup window.
func (a *Arena) Free(ptr uintptr) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.issued[ptr]; !ok {
		return false
	}
	delete(a.issued, ptr)
	return true
}

// Owns reports whether ptr is a live allocation issued by this arena.
func (a *Arena) Owns(ptr uintptr) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, ok := a.issued[ptr]
	return ok
}

// SizeOf returns the payload size of a live allocation, or 0.
func (a *Arena) SizeOf(ptr uintptr) uintptr {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.issued[ptr]
}

// Live returns the number of live allocations. Diagnostic only.
func (a *Arena) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.issued)
}

// addr converts a buffer offset to an absolute address.
func (a *Arena) addr(off uintptr) uintptr {
	return bufBase(a.buf) + off
}
