package zone

import (
	"unsafe"

	"github.com/zonekit/zonekit/internal/abi"
	"github.com/zonekit/zonekit/internal/buf"
	"github.com/zonekit/zonekit/internal/mem"
	"github.com/zonekit/zonekit/internal/report"
)

// Dispatch entry points. Every process-level allocation request lands on one
// of these methods. Until Activate attaches the backing allocator, requests
// route to the bootstrap arena; afterwards, new requests go to the backing
// allocator while pointers the arena already issued keep being serviced
// through it.

// Malloc allocates size bytes. A zero size still returns a valid, freeable
// pointer. Returns 0 on failure.
func (z *Zone) Malloc(size uintptr) uintptr {
	if !z.ready.Load() {
		return z.boot.Alloc(size)
	}
	return z.heap.Alloc(size)
}

// Calloc allocates n*size zeroed bytes. Returns 0 on multiplication
// overflow or allocation failure.
func (z *Zone) Calloc(n, size uintptr) uintptr {
	total, ok := buf.MulUintptr(n, size)
	if !ok {
		return 0
	}
	if !z.ready.Load() {
		// Bootstrap memory is never reused, so it is already zero.
		return z.boot.Calloc(n, size)
	}
	ptr := z.heap.Alloc(total)
	if ptr != 0 {
		clearMemory(ptr, total)
	}
	return ptr
}

// Valloc allocates size bytes on a page boundary. Page-aligned requests
// cannot be satisfied during the startup window.
func (z *Zone) Valloc(size uintptr) uintptr {
	if !z.ready.Load() {
		return 0
	}
	return z.heap.AllocAligned(uintptr(mem.PageSize()), size)
}

// Memalign allocates size bytes aligned to align, which must be a power of
// two. Returns 0 on bad alignment or failure. During the startup window only
// alignments the bootstrap arena already guarantees are satisfiable.
func (z *Zone) Memalign(align, size uintptr) uintptr {
	if align == 0 || !abi.IsPowerOfTwo(align) {
		return 0
	}
	if !z.ready.Load() {
		if align <= abi.CellAlignment {
			return z.boot.Alloc(size)
		}
		return 0
	}
	if align <= abi.CellAlignment {
		return z.heap.Alloc(size)
	}
	return z.heap.AllocAligned(align, size)
}

// PosixMemalign implements the posix_memalign contract: align must be a
// power of two and a multiple of the pointer size; the result is stored
// through out. A nil out pointer is a caller contract violation and fatal.
func (z *Zone) PosixMemalign(out *uintptr, align, size uintptr) int {
	if out == nil {
		report.Fatalf("posix_memalign: nil result pointer")
	}
	if !abi.IsPowerOfTwo(align) || align%unsafe.Sizeof(uintptr(0)) != 0 {
		return abi.PosixEINVAL
	}
	ptr := z.Memalign(align, size)
	if ptr == 0 {
		return abi.PosixENOMEM
	}
	*out = ptr
	return abi.PosixOK
}

// AlignedAlloc implements the aligned_alloc contract. Identical to Memalign
// here: the size-multiple-of-align restriction was lifted and the layer
// never enforced it.
func (z *Zone) AlignedAlloc(align, size uintptr) uintptr {
	return z.Memalign(align, size)
}

// Free releases ptr. Free(0) is a no-op. A pointer this zone never issued
// is reported and left alone: freeing through the wrong allocator corrupts
// both heaps, so the safe failure mode is to leak.
func (z *Zone) Free(ptr uintptr) {
	if ptr == 0 {
		return
	}
	if z.boot.Free(ptr) {
		return
	}
	if z.ready.Load() && z.heap.SizeOf(ptr) != 0 {
		z.heap.Free(ptr)
		return
	}
	z.badFree("free", ptr)
}

// FreeDefiniteSize releases ptr whose payload size the caller already
// knows. The size is cross-checked against the allocator's own record; a
// mismatch means the pointer is stale or foreign.
func (z *Zone) FreeDefiniteSize(ptr, size uintptr) {
	if ptr == 0 {
		return
	}
	if z.boot.Owns(ptr) {
		z.boot.Free(ptr)
		return
	}
	if z.ready.Load() {
		if actual := z.heap.SizeOf(ptr); actual != 0 {
			if size > actual {
				z.badFree("free_definite_size", ptr)
				return
			}
			z.heap.Free(ptr)
			return
		}
	}
	z.badFree("free_definite_size", ptr)
}

// FreeAligned releases a pointer obtained from Memalign or AlignedAlloc.
// The alignment is advisory; ownership is re-validated like any other free.
func (z *Zone) FreeAligned(ptr, align, size uintptr) {
	_ = align
	z.FreeDefiniteSize(ptr, size)
}

// Realloc resizes ptr to size, moving the payload if necessary.
//
// A nil pointer degrades to Malloc. A pointer still owned by the bootstrap
// arena is migrated by copy. A pointer this zone never issued is reported
// and the call fails with 0: the old block's size is unknowable, so any
// copy-based recovery could read past the foreign allocation.
func (z *Zone) Realloc(ptr, size uintptr) uintptr {
	if ptr == 0 {
		return z.Malloc(size)
	}

	if old := z.boot.SizeOf(ptr); old != 0 || z.boot.Owns(ptr) {
		newPtr := z.Malloc(size)
		if newPtr == 0 {
			return 0
		}
		n := old
		if size < n {
			n = size
		}
		copyMemory(newPtr, ptr, n)
		z.boot.Free(ptr)
		return newPtr
	}

	if z.ready.Load() && z.heap.SizeOf(ptr) != 0 {
		return z.heap.Realloc(ptr, size)
	}

	if owner := z.reg.FindZoneExcept(z.desc, ptr); owner != nil {
		report.Errorf("realloc: pointer %#x belongs to zone %q, not this zone", ptr, nameOf(owner))
	} else {
		report.Errorf("realloc: pointer %#x was not allocated by any registered zone", ptr)
	}
	return 0
}

// SizeOf reports the payload size of ptr when this zone issued it, or 0.
// This is the zone's ownership contract: a nonzero answer binds the zone to
// service Free and Realloc for the pointer.
func (z *Zone) SizeOf(ptr uintptr) uintptr {
	if ptr == 0 {
		return 0
	}
	if size := z.boot.SizeOf(ptr); size != 0 {
		return size
	}
	if z.boot.Owns(ptr) {
		// Live zero-size bootstrap allocation.
		return abi.CellAlignment
	}
	if z.ready.Load() {
		return z.heap.SizeOf(ptr)
	}
	return 0
}

// GoodSize rounds size up to the backing allocator's size-class boundary.
// Advisory and idempotent.
func (z *Zone) GoodSize(size uintptr) uintptr {
	if !z.ready.Load() {
		return abi.AlignUp(size, abi.CellAlignment)
	}
	return z.heap.GoodSize(size)
}

// BatchMalloc fills out with allocations of size bytes each and returns how
// many succeeded. Stops at the first failure.
func (z *Zone) BatchMalloc(size uintptr, out []uintptr) int {
	for i := range out {
		ptr := z.Malloc(size)
		if ptr == 0 {
			return i
		}
		out[i] = ptr
	}
	return len(out)
}

// BatchFree releases every pointer in ptrs.
func (z *Zone) BatchFree(ptrs []uintptr) {
	for _, ptr := range ptrs {
		z.Free(ptr)
	}
}

// ForceLock acquires the backing allocator's global mutex, excluding all
// mutation. Fork handlers and enumeration tools bracket their work with
// ForceLock/ForceUnlock.
func (z *Zone) ForceLock() {
	if z.ready.Load() {
		z.heap.Lock()
	}
}

// ForceUnlock releases the backing allocator's global mutex.
func (z *Zone) ForceUnlock() {
	if z.ready.Load() {
		z.heap.Unlock()
	}
}

// Statistics copies the zone's live counters into st without allocating.
// Bootstrap-issued allocations are counted as blocks but carry no size
// accounting; their arena is a fixed buffer outside the backing heap.
func (z *Zone) Statistics(st *abi.Statistics) {
	*st = abi.Statistics{}
	if z.ready.Load() {
		z.heap.Stats(st)
	}
	st.BlocksInUse += uintptr(z.boot.Live())
}

// Enumerate visits every live allocation in the backing heap. The caller
// must hold ForceLock for a consistent snapshot. Fails with
// ErrEnumerationUnsupported when the backing allocator has no walker.
func (z *Zone) Enumerate(visit func(addr, size uintptr) bool) error {
	if !z.ready.Load() {
		return ErrEnumerationUnsupported
	}
	e, ok := z.heap.(enumerator)
	if !ok {
		return ErrEnumerationUnsupported
	}
	return e.EnumerateBlocks(visit)
}

// enumerator mirrors backend.Enumerator so dispatch can test for the
// capability without binding to a concrete allocator type.
type enumerator interface {
	EnumerateBlocks(visit func(addr, size uintptr) bool) error
}

// MakePurgeable is a policy no-op: the backing allocator has no purgeable
// pages.
func (z *Zone) MakePurgeable(ptr uintptr) {
	_ = ptr
}

// MakeNonPurgeable is a policy no-op reporting zero purged bytes.
func (z *Zone) MakeNonPurgeable(ptr uintptr) uintptr {
	_ = ptr
	return 0
}

// badFree emits the single diagnostic for an unrecognized free and, when
// the escalation knob is set, aborts.
func (z *Zone) badFree(op string, ptr uintptr) {
	if owner := z.reg.FindZoneExcept(z.desc, ptr); owner != nil {
		report.Errorf("%s: pointer %#x belongs to zone %q, not this zone", op, ptr, nameOf(owner))
	} else {
		report.Errorf("%s: pointer %#x was not allocated by any registered zone", op, ptr)
	}
	if z.abortOnUnknownFree {
		report.Fatalf("%s: aborting on unknown pointer (ZONEKIT_ABORT_ON_UNKNOWN_FREE)", op)
	}
}

// nameOf reads a descriptor's name for diagnostics, tolerating unnamed
// zones. Serialized against renames like any other name read.
func nameOf(d *Descriptor) string {
	if d == nil {
		return "(unnamed)"
	}
	nameMu.RLock()
	defer nameMu.RUnlock()
	if d.Name == 0 {
		return "(unnamed)"
	}
	return goStringAt(d.Name, abi.MaxZoneNameLen)
}
