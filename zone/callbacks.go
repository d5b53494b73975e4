package zone

import (
	"github.com/zonekit/zonekit/internal/abi"
	"github.com/zonekit/zonekit/internal/report"
)

// Descriptor and introspection trampolines. All of them are top-level
// functions: the vtable fields of a byte-copied shell must stay callable,
// and a closure's environment would not survive the copy. Each trampoline
// resolves its Zone through the owners table keyed by descriptor address.

// zoneFor resolves the servicing Zone or aborts: a descriptor with no owner
// means the caller invoked a destroyed shell or a corrupted vtable, and
// continuing would dispatch into freed state.
func zoneFor(d *Descriptor, op string) *Zone {
	z := ownerOf(d)
	if z == nil {
		report.Fatalf("%s: descriptor %#x is not a known zone", op, descAddr(d))
	}
	return z
}

func zoneSize(d *Descriptor, ptr uintptr) uintptr {
	return zoneFor(d, "size").SizeOf(ptr)
}

func zoneMalloc(d *Descriptor, size uintptr) uintptr {
	return zoneFor(d, "malloc").Malloc(size)
}

func zoneCalloc(d *Descriptor, n, size uintptr) uintptr {
	return zoneFor(d, "calloc").Calloc(n, size)
}

func zoneValloc(d *Descriptor, size uintptr) uintptr {
	return zoneFor(d, "valloc").Valloc(size)
}

func zoneFree(d *Descriptor, ptr uintptr) {
	zoneFor(d, "free").Free(ptr)
}

func zoneRealloc(d *Descriptor, ptr, size uintptr) uintptr {
	return zoneFor(d, "realloc").Realloc(ptr, size)
}

// zoneDestroy on the registered zone is a diagnostic no-op: the platform
// protocol assumes registered zones live until process exit, and tearing
// the default zone down would strand every outstanding pointer.
func zoneDestroy(d *Descriptor) {
	report.Errorf("destroy: refusing to destroy registered zone %q", nameOf(d))
}

func zoneBatchMalloc(d *Descriptor, size uintptr, out []uintptr) int {
	return zoneFor(d, "batch_malloc").BatchMalloc(size, out)
}

func zoneBatchFree(d *Descriptor, ptrs []uintptr) {
	zoneFor(d, "batch_free").BatchFree(ptrs)
}

func zoneMemalign(d *Descriptor, align, size uintptr) uintptr {
	return zoneFor(d, "memalign").Memalign(align, size)
}

func zoneFreeDefiniteSize(d *Descriptor, ptr, size uintptr) {
	zoneFor(d, "free_definite_size").FreeDefiniteSize(ptr, size)
}

func introEnumerate(d *Descriptor, visit func(addr, size uintptr) bool) error {
	return zoneFor(d, "enumerate").Enumerate(visit)
}

func introGoodSize(d *Descriptor, size uintptr) uintptr {
	return zoneFor(d, "good_size").GoodSize(size)
}

// introCheck and introPrint are unimplemented on purpose. The platform never
// invokes them in supported configurations; an invocation means a debugging
// tool wandered off the supported surface, and aborting loudly beats
// returning a fabricated answer it will act on.
func introCheck(d *Descriptor) bool {
	report.Fatalf("check: introspection check is not implemented for zone %q", nameOf(d))
	return false
}

func introPrint(d *Descriptor, verbose bool) {
	_ = verbose
	report.Fatalf("print: introspection print is not implemented for zone %q", nameOf(d))
}

// introLog is a deliberate no-op: the layer ships no per-address event log.
func introLog(d *Descriptor, addr uintptr) {
	_, _ = d, addr
}

func introForceLock(d *Descriptor) {
	zoneFor(d, "force_lock").ForceLock()
}

func introForceUnlock(d *Descriptor) {
	zoneFor(d, "force_unlock").ForceUnlock()
}

func introStatistics(d *Descriptor, st *abi.Statistics) {
	zoneFor(d, "statistics").Statistics(st)
}

// introZoneLocked conservatively reports false. The answer is advisory: a
// caller that needs exclusion takes ForceLock, and a wrong "true" would make
// fork handlers spin forever.
func introZoneLocked(d *Descriptor) bool {
	_ = d
	return false
}
