package abi

// Zone protocol constants. The descriptor prefix this layer exposes commits
// to protocol version 6 semantics: the version-6 field set, in the
// version-6 order, ending with the aligned-allocation and
// free-with-known-size slots.
const (
	// ZoneVersion is the heap-zone protocol version this layer implements.
	ZoneVersion = 6

	// MaxZones is the capacity of the process zone table. Mirrors the
	// platform registry's fixed upper bound on registered zones.
	MaxZones = 512

	// MaxZoneNameLen bounds zone name strings. Names are NUL-terminated
	// byte strings allocated from the owning zone's own heap.
	MaxZoneNameLen = 256
)

// Cell layout constants for the backing allocator. Every allocation is
// preceded by a fixed header carrying a signed size: negative means the cell
// is live, positive means it is free. The magnitude includes the header.
const (
	// CellHeaderSize is the byte size of the header preceding every cell.
	CellHeaderSize = 16

	// CellAlignment is the guaranteed alignment of every returned pointer.
	CellAlignment = 16

	// CellAlignmentMask is CellAlignment - 1, for align-up arithmetic.
	CellAlignmentMask = CellAlignment - 1

	// MinCellSize is the smallest legal cell (header plus one aligned
	// payload quantum). Requests of zero bytes still produce a cell of
	// this size so the returned pointer is valid and freeable.
	MinCellSize = CellHeaderSize + CellAlignment

	// CellMagic tags the header of every cell issued by this layer's
	// backing allocator. A failed magic check means the pointer was not
	// produced here.
	CellMagic = 0x5a4b4131 // "ZKA1"
)

// POSIX status codes returned by the aligned-allocate-with-error-code entry
// point. Fixed values per the platform contract, not errno lookups: the
// entry point must return these exact numbers on every build target.
const (
	PosixOK     = 0
	PosixENOMEM = 12
	PosixEINVAL = 22
)

// AlignUp returns n aligned up to the next multiple of align.
// align must be a power of two.
//
// Example:
//
//	AlignUp(1, 16)  = 16
//	AlignUp(16, 16) = 16
//	AlignUp(17, 16) = 32
func AlignUp(n, align uintptr) uintptr {
	return (n + align - 1) &^ (align - 1)
}

// AlignCell returns n aligned up to the cell alignment boundary.
func AlignCell(n uintptr) uintptr {
	return (n + CellAlignmentMask) &^ uintptr(CellAlignmentMask)
}

// IsPowerOfTwo reports whether n is a nonzero power of two.
func IsPowerOfTwo(n uintptr) bool {
	return n != 0 && n&(n-1) == 0
}
