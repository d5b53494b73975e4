// Package backend implements the backing allocator behind the zone layer.
//
// # Overview
//
// The allocator manages anonymous page mappings ("segments") and carves them
// into cells. Every cell starts with a fixed 16-byte header carrying a
// signed size: negative means the cell is live, positive means it is free.
// The magnitude always includes the header. Pointers handed to callers
// address the payload immediately after the header, so every returned
// pointer is 16-byte aligned.
//
// # Allocator contract
//
// The zone layer consumes the Allocator interface:
//
//   - Alloc(size): allocate, 0 on failure
//   - AllocAligned(align, size): aligned allocate, 0 on failure
//   - Realloc(ptr, size): resize, may move, 0 on failure
//   - Free(ptr): release a cell this allocator issued
//   - SizeOf(ptr): payload size, 0 when the pointer was not issued here
//   - GoodSize(size): size-class rounding, idempotent
//   - Lock / Unlock: the global allocator mutex, exposed for the zone
//     protocol's force-lock callbacks
//   - Stats: live counters, read without allocating
//
// SizeOf doubles as the ownership test: a nonzero answer is the allocator's
// contract that it recognizes the pointer. It validates segment bounds,
// cell alignment, the header magic, and the live flag before answering, so
// foreign pointers and interior pointers report zero rather than garbage.
//
// # Free lists
//
// Free cells are kept in segregated per-class sets with best-fit selection
// inside a class, plus a large list for cells past the last class boundary.
// Free releases coalesce with both neighbors through an address/end index,
// so adjacent free cells never persist.
//
// # Growth
//
// When no free cell fits, the allocator maps a new segment (whole pages,
// default 1 MiB, larger when a single request demands it). Segments are
// never unmapped; the process owns them for its lifetime, matching the
// zone-layer contract that the registered zone is never destroyed.
//
// # Environment knobs
//
//   - ZONEKIT_LOG_ALLOC: log every allocation and free to stderr
//   - ZONEKIT_SCRIBBLE: fill freed payloads with 0x55 to surface
//     use-after-free bugs
//
// # Thread safety
//
// All exported methods serialize on one internal mutex. Lock and Unlock
// expose that mutex so external callers (fork handlers, heap enumeration
// tools) can exclude all mutation; EnumerateBlocks deliberately does not
// take the lock and must run under it.
package backend
