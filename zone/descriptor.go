package zone

import (
	"github.com/zonekit/zonekit/internal/abi"
)

// Descriptor is the zone structure handed to the platform's zone registry.
//
// The field order up to and including FreeDefiniteSize is mandated by the
// heap-zone protocol, version 6: external tools index into this structure
// positionally. Append-only, never reorder or retype. All function fields
// must reference top-level functions so a byte copy of the descriptor (a
// foreign-zone shell) stays valid outside the Go heap.
type Descriptor struct {
	// Size reports the payload size of ptr, or 0 when this zone did not
	// issue it. A nonzero answer is the zone's ownership contract.
	Size func(d *Descriptor, ptr uintptr) uintptr

	// Malloc allocates size bytes. 0 on failure.
	Malloc func(d *Descriptor, size uintptr) uintptr

	// Calloc allocates n*size zeroed bytes. 0 on failure or overflow.
	Calloc func(d *Descriptor, n, size uintptr) uintptr

	// Valloc allocates size bytes on a page boundary. 0 on failure.
	Valloc func(d *Descriptor, size uintptr) uintptr

	// Free releases a pointer issued by this zone.
	Free func(d *Descriptor, ptr uintptr)

	// Realloc resizes ptr, possibly moving it. 0 on failure.
	Realloc func(d *Descriptor, ptr, size uintptr) uintptr

	// Destroy tears the zone down. Accepted but ignored (with a
	// diagnostic) on the registered zone: the platform assumes
	// registered zones are never removed.
	Destroy func(d *Descriptor)

	// Name is the address of a NUL-terminated byte string allocated from
	// this zone's own heap, or 0. Replaced wholesale on rename.
	Name uintptr

	// BatchMalloc fills out with up to len(out) allocations of size
	// bytes each and returns how many succeeded.
	BatchMalloc func(d *Descriptor, size uintptr, out []uintptr) int

	// BatchFree releases every pointer in ptrs.
	BatchFree func(d *Descriptor, ptrs []uintptr)

	// Introspect points at the zone's introspection record. Never
	// relocated after registration.
	Introspect *Introspection

	// Version is the protocol version this descriptor implements.
	Version uint32

	// Memalign allocates size bytes aligned to align (a power of two at
	// least the pointer size). Version 5+ slot. 0 on failure.
	Memalign func(d *Descriptor, align, size uintptr) uintptr

	// FreeDefiniteSize releases ptr whose size the caller already knows.
	// Version 6+ slot.
	FreeDefiniteSize func(d *Descriptor, ptr, size uintptr)
}

// Introspection is the record external heap-walking tools drive. The
// callback prefix (Enumerate through ZoneLocked) is mandated by the
// protocol; the fields after it are this layer's appended extension.
// Append-only, never reorder or retype: this is a binary-compatibility
// contract with tooling that ships separately from the process.
type Introspection struct {
	// Enumerate visits every live allocation as (address, payload size).
	// Fails with ErrEnumerationUnsupported when the backing allocator
	// supplies no walker — never a silently empty result.
	Enumerate func(d *Descriptor, visit func(addr, size uintptr) bool) error

	// GoodSize reports the size-class rounding for a request. Advisory,
	// idempotent.
	GoodSize func(d *Descriptor, size uintptr) uintptr

	// Check verifies internal consistency. Unimplemented: aborts when
	// invoked. The platform never calls it in supported configurations.
	Check func(d *Descriptor) bool

	// Print dumps zone internals. Unimplemented: aborts when invoked.
	Print func(d *Descriptor, verbose bool)

	// Log records per-address events. Deliberate no-op; the layer
	// provides no logging facility.
	Log func(d *Descriptor, addr uintptr)

	// ForceLock acquires the backing allocator's global mutex. Used by
	// fork handlers and enumeration tools to exclude all mutation.
	ForceLock func(d *Descriptor)

	// ForceUnlock releases the backing allocator's global mutex.
	ForceUnlock func(d *Descriptor)

	// Statistics copies live counters into st. Must not allocate.
	Statistics func(d *Descriptor, st *abi.Statistics)

	// ZoneLocked conservatively always reports false. A hint, not a
	// correctness primitive.
	ZoneLocked func(d *Descriptor) bool

	// EnumVersion is the allocator-enumeration version: bumped only when
	// the in-memory representation of allocator state changes in a way
	// that breaks external enumeration readers.
	EnumVersion uint32

	// StateAddr and StateSize identify the backing allocator's state
	// block. Opaque to this layer; external tools use them to read
	// enumeration state without knowing the allocator's internals.
	StateAddr uintptr
	StateSize uintptr
}

// EnumerationVersion is the allocator-enumeration version of this build.
// Bump it only for changes that break external enumeration readers.
const EnumerationVersion = 1
