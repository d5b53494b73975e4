package abi

// Statistics is the statistics shape the zone protocol hands to the
// statistics callback. External tools read this structure directly, so the
// field order is part of the protocol: append-only, never reorder or retype.
type Statistics struct {
	// BlocksInUse is the number of live allocations.
	BlocksInUse uintptr

	// SizeInUse is the total payload bytes of live allocations.
	SizeInUse uintptr

	// MaxSizeInUse is the high-water mark of SizeInUse.
	MaxSizeInUse uintptr

	// SizeAllocated is the total bytes of address space the allocator has
	// reserved from the system, live or not.
	SizeAllocated uintptr
}
