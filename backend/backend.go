package backend

import (
	"errors"

	"github.com/zonekit/zonekit/internal/abi"
)

var (
	// ErrCorrupt indicates that a segment walk found an impossible cell
	// header (zero or misaligned size, bad magic, cell past segment end).
	ErrCorrupt = errors.New("backend: corrupt cell header")

	// ErrEnumerateStopped indicates the visitor asked enumeration to stop.
	ErrEnumerateStopped = errors.New("backend: enumeration stopped by visitor")
)

// Allocator is the capability set the zone layer requires from a backing
// allocator. All sizes are payload bytes; all pointers address payloads.
//
// Implementations:
//   - HeapAllocator: segment-backed free-list allocator (production)
type Allocator interface {
	// Alloc allocates size bytes. A zero size still produces a valid,
	// freeable pointer. Returns 0 on failure.
	Alloc(size uintptr) uintptr

	// AllocAligned allocates size bytes aligned to align, which must be
	// a power of two. Returns 0 on failure.
	AllocAligned(align, size uintptr) uintptr

	// Realloc resizes the cell at ptr, moving it if necessary. The
	// pointer must have been issued by this allocator. Returns the new
	// pointer, or 0 on failure.
	Realloc(ptr, size uintptr) uintptr

	// Free releases a cell issued by this allocator. Unrecognized
	// pointers are ignored; screening them is the dispatch layer's job.
	Free(ptr uintptr)

	// SizeOf returns the payload size of the cell at ptr, or 0 when the
	// pointer was not issued by this allocator. A nonzero result is the
	// ownership contract.
	SizeOf(ptr uintptr) uintptr

	// GoodSize rounds size up to the allocator's size-class boundary.
	// Purely advisory and idempotent.
	GoodSize(size uintptr) uintptr

	// Lock acquires the global allocator mutex.
	Lock()

	// Unlock releases the global allocator mutex.
	Unlock()

	// Stats copies the live counters into st without allocating.
	Stats(st *abi.Statistics)
}

// Enumerator is the optional heap-walking capability. The zone layer's
// enumeration callback reports failure when the backing allocator does not
// implement it, so callers can distinguish "empty heap" from "unsupported".
type Enumerator interface {
	// EnumerateBlocks visits every live cell as (payload address,
	// payload size). The visitor returns false to stop early, which
	// surfaces as ErrEnumerateStopped.
	//
	// The caller must hold the allocator lock (ForceLock in the zone
	// protocol) for a consistent snapshot; EnumerateBlocks itself does
	// not take it.
	EnumerateBlocks(visit func(addr, size uintptr) bool) error
}
