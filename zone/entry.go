package zone

import "github.com/zonekit/zonekit/internal/abi"

// Process-level entry points: the C-shaped surface a replacement allocator
// exposes. Each one installs the default zone on first use and delegates to
// its dispatch method.

// Malloc allocates size bytes from the default zone.
func Malloc(size uintptr) uintptr { return Default().Malloc(size) }

// Calloc allocates n*size zeroed bytes from the default zone.
func Calloc(n, size uintptr) uintptr { return Default().Calloc(n, size) }

// Valloc allocates page-aligned bytes from the default zone.
func Valloc(size uintptr) uintptr { return Default().Valloc(size) }

// Realloc resizes ptr within the default zone.
func Realloc(ptr, size uintptr) uintptr { return Default().Realloc(ptr, size) }

// Free releases ptr through the default zone.
func Free(ptr uintptr) { Default().Free(ptr) }

// Memalign allocates aligned bytes from the default zone.
func Memalign(align, size uintptr) uintptr { return Default().Memalign(align, size) }

// PosixMemalign implements posix_memalign on the default zone.
func PosixMemalign(out *uintptr, align, size uintptr) int {
	return Default().PosixMemalign(out, align, size)
}

// AlignedAlloc implements aligned_alloc on the default zone.
func AlignedAlloc(align, size uintptr) uintptr { return Default().AlignedAlloc(align, size) }

// GoodSize reports the default zone's size-class rounding for size.
func GoodSize(size uintptr) uintptr { return Default().GoodSize(size) }

// SizeOf reports the payload size of ptr if the default zone issued it.
func SizeOf(ptr uintptr) uintptr { return Default().SizeOf(ptr) }

// FromPointer resolves the zone that issued ptr, or nil.
func FromPointer(ptr uintptr) *Descriptor { return Default().FromPointer(ptr) }

// Statistics copies the default zone's counters into st.
func Statistics(st *abi.Statistics) { Default().Statistics(st) }
