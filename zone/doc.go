// Package zone implements the process allocator replacement layer.
//
// # Overview
//
// The layer installs a substitute heap manager: a zone Descriptor whose
// capability set matches the platform heap-zone protocol (version 6), backed
// by the allocator in package backend. Once registered, external
// heap-introspection machinery — leak scanners, heap dumpers, debuggers that
// enumerate live allocations — can drive the descriptor without knowing a
// replacement occurred.
//
// # Components
//
//   - Descriptor / Introspection: the protocol-facing vtable and its
//     versioned introspection record. Plain aggregates with a mandated,
//     append-only field order; see package internal/abi.
//   - Zone: the layer's state — backing allocator, bootstrap arena,
//     readiness flag, shell table.
//   - Registry: in-process model of the platform's zone table (register,
//     enumerate, default lookup, owning-zone lookup).
//   - Dispatch entry points: Malloc, Calloc, Valloc, Realloc, Free,
//     FreeDefiniteSize, Memalign, PosixMemalign, AlignedAlloc, GoodSize,
//     Size — the standard allocation names, routed to the backing
//     allocator.
//   - Foreign-zone shells: CreateZone produces a page-aligned, byte-copied,
//     write-protected view of the registered descriptor for callers that
//     asked the platform for an additional zone.
//
// # Startup window
//
// Dynamic symbol resolution may allocate before the backing allocator's
// locks and metadata exist. Until Activate marks the backing allocator
// ready, dispatch routes allocation to the bootstrap arena (package
// zone/bootstrap). Pointers issued there keep being freed through the
// bootstrap path afterward; the ownership resolver checks the arena before
// falling through to the backing allocator.
//
// # Safety policy for unknown pointers
//
// A pointer is owned by this layer exactly when the backing allocator (or
// the bootstrap arena) reports a nonzero size for it. Resizing a pointer of
// unknown true size cannot be done safely — copying could read past the live
// allocation of a foreign allocator — so Realloc on an unrecognized pointer
// emits one diagnostic and returns 0 rather than attempting recovery.
// Correctness over availability, by explicit policy.
//
// # Install
//
// Install runs exactly once per process, before any allocation-sensitive
// subsystem. Registration failure is fatal: the replacement must be active
// before other code allocates, or the process state cannot be trusted.
package zone
