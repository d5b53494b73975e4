package zone

import (
	"runtime"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/zonekit/zonekit/backend"
	"github.com/zonekit/zonekit/internal/abi"
	"github.com/zonekit/zonekit/internal/mem"
	"github.com/zonekit/zonekit/internal/report"
)

func TestMalloc_RoundTrip(t *testing.T) {
	z := newTestZone(t)

	ptr := z.Malloc(200)
	require.NotZero(t, ptr)
	require.GreaterOrEqual(t, z.SizeOf(ptr), uintptr(200))

	z.Free(ptr)
	require.Zero(t, z.SizeOf(ptr))
}

func TestMalloc_ZeroSize(t *testing.T) {
	z := newTestZone(t)
	msgs := captureDiagnostics(t)

	ptr := z.Malloc(0)
	require.NotZero(t, ptr, "malloc(0) must return a valid pointer")
	z.Free(ptr)
	require.Empty(t, *msgs, "malloc(0)/free must not emit diagnostics")
}

func TestCalloc_ZeroesAndOverflows(t *testing.T) {
	z := newTestZone(t)

	// Dirty a block, free it, then calloc over the same size class.
	dirty := z.Malloc(256)
	require.NotZero(t, dirty)
	buf := byteSlice(dirty, 256)
	for i := range buf {
		buf[i] = 0xAA
	}
	z.Free(dirty)

	ptr := z.Calloc(8, 32)
	require.NotZero(t, ptr)
	for i, b := range byteSlice(ptr, 256) {
		require.Zero(t, b, "byte %d not zeroed", i)
	}
	z.Free(ptr)

	require.Zero(t, z.Calloc(^uintptr(0)/2, 3), "overflowing product must fail")
}

func TestValloc_PageAligned(t *testing.T) {
	z := newTestZone(t)

	ptr := z.Valloc(100)
	require.NotZero(t, ptr)
	require.Zero(t, ptr%uintptr(mem.PageSize()))
	z.Free(ptr)
}

func TestRealloc_NilIsMalloc(t *testing.T) {
	z := newTestZone(t)

	ptr := z.Realloc(0, 64)
	require.NotZero(t, ptr)
	require.GreaterOrEqual(t, z.SizeOf(ptr), uintptr(64))
	z.Free(ptr)
}

func TestRealloc_PreservesPayload(t *testing.T) {
	z := newTestZone(t)

	ptr := z.Malloc(48)
	require.NotZero(t, ptr)
	for i, b := range []byte("the payload survives resizing") {
		byteSlice(ptr, 48)[i] = b
	}

	grown := z.Realloc(ptr, 4096)
	require.NotZero(t, grown)
	require.Equal(t, "the payload survives resizing",
		string(byteSlice(grown, 29)))
	z.Free(grown)
}

func TestRealloc_UnknownPointer(t *testing.T) {
	z := newTestZone(t)
	msgs := captureDiagnostics(t)

	var local [64]byte
	foreign := uintptr(unsafe.Pointer(&local[0]))

	require.Zero(t, z.Realloc(foreign, 128))
	require.Len(t, *msgs, 1, "exactly one diagnostic for an unknown realloc")
	require.Contains(t, (*msgs)[0], "realloc")
}

func TestRealloc_NamesForeignOwner(t *testing.T) {
	z := newTestZone(t)
	msgs := captureDiagnostics(t)

	var block [32]byte
	foreignPtr := uintptr(unsafe.Pointer(&block[0]))
	name := append([]byte("rival"), 0)

	fake := &Descriptor{
		Version: abi.ZoneVersion,
		Name:    uintptr(unsafe.Pointer(&name[0])),
		Size: func(d *Descriptor, ptr uintptr) uintptr {
			if ptr == foreignPtr {
				return uintptr(len(block))
			}
			return 0
		},
	}
	require.NoError(t, z.reg.Register(fake))

	require.Zero(t, z.Realloc(foreignPtr, 64))
	require.Len(t, *msgs, 1)
	require.Contains(t, (*msgs)[0], `"rival"`)
	runtime.KeepAlive(&block)
	runtime.KeepAlive(name)
}

func TestFree_NilAndUnknown(t *testing.T) {
	z := newTestZone(t)
	msgs := captureDiagnostics(t)

	z.Free(0)
	require.Empty(t, *msgs, "free(0) is silent")

	var local [16]byte
	z.Free(uintptr(unsafe.Pointer(&local[0])))
	require.Len(t, *msgs, 1, "unknown free emits one diagnostic")
	require.Contains(t, (*msgs)[0], "free")
}

func TestFree_DoubleFreeReported(t *testing.T) {
	z := newTestZone(t)
	msgs := captureDiagnostics(t)

	ptr := z.Malloc(64)
	z.Free(ptr)
	require.Empty(t, *msgs)

	z.Free(ptr)
	require.Len(t, *msgs, 1)
}

func TestFreeDefiniteSize(t *testing.T) {
	z := newTestZone(t)
	msgs := captureDiagnostics(t)

	ptr := z.Malloc(100)
	z.FreeDefiniteSize(ptr, 100)
	require.Zero(t, z.SizeOf(ptr))
	require.Empty(t, *msgs)

	// A size larger than the cell means the caller's record is stale.
	ptr = z.Malloc(100)
	z.FreeDefiniteSize(ptr, 1<<20)
	require.Len(t, *msgs, 1)
	require.NotZero(t, z.SizeOf(ptr), "mismatched free must not release the cell")
	z.Free(ptr)
}

func TestMemalign(t *testing.T) {
	z := newTestZone(t)

	for _, align := range []uintptr{16, 64, 256, 4096} {
		ptr := z.Memalign(align, 100)
		require.NotZero(t, ptr, "align %d", align)
		require.Zero(t, ptr%align, "align %d", align)
		z.Free(ptr)
	}

	require.Zero(t, z.Memalign(0, 100))
	require.Zero(t, z.Memalign(48, 100), "non power of two alignment")
}

func TestPosixMemalign(t *testing.T) {
	z := newTestZone(t)

	var out uintptr
	require.Equal(t, abi.PosixEINVAL, z.PosixMemalign(&out, 3, 100))
	require.Equal(t, abi.PosixEINVAL, z.PosixMemalign(&out, 2, 100),
		"power of two below pointer size is still EINVAL")

	require.Equal(t, abi.PosixOK, z.PosixMemalign(&out, 64, 100))
	require.NotZero(t, out)
	require.Zero(t, out%64)
	z.Free(out)
}

func TestPosixMemalign_NilOutIsFatal(t *testing.T) {
	z := newTestZone(t)
	captureDiagnostics(t)
	prev := report.SetAbort(func() { panic("abort") })
	t.Cleanup(func() { report.SetAbort(prev) })

	require.Panics(t, func() { z.PosixMemalign(nil, 16, 100) })
}

func TestGoodSize_Idempotent(t *testing.T) {
	z := newTestZone(t)

	for _, size := range []uintptr{0, 1, 15, 16, 100, 512, 4096, 1 << 18} {
		g := z.GoodSize(size)
		require.GreaterOrEqual(t, g, size)
		require.Equal(t, g, z.GoodSize(g), "size %d", size)
	}
}

func TestBatch(t *testing.T) {
	z := newTestZone(t)

	out := make([]uintptr, 32)
	n := z.BatchMalloc(64, out)
	require.Equal(t, len(out), n)
	seen := make(map[uintptr]bool, n)
	for _, ptr := range out {
		require.NotZero(t, ptr)
		require.False(t, seen[ptr])
		seen[ptr] = true
	}

	z.BatchFree(out)
	for _, ptr := range out {
		require.Zero(t, z.SizeOf(ptr))
	}
}

func TestEnumerate(t *testing.T) {
	z := newTestZone(t)

	want := map[uintptr]bool{
		z.Malloc(40):  true,
		z.Malloc(80):  true,
		z.Malloc(160): true,
	}

	z.ForceLock()
	found := 0
	err := z.Enumerate(func(addr, size uintptr) bool {
		if want[addr] {
			found++
		}
		return true
	})
	z.ForceUnlock()

	require.NoError(t, err)
	require.Equal(t, len(want), found)

	for ptr := range want {
		z.Free(ptr)
	}
}

// lockOnlyAllocator hides the enumeration capability of the wrapped
// allocator.
type lockOnlyAllocator struct {
	backend.Allocator
}

func TestEnumerate_Unsupported(t *testing.T) {
	z := NewZone(NewRegistry())
	z.Activate(lockOnlyAllocator{backend.New(nil)})

	err := z.Enumerate(func(addr, size uintptr) bool { return true })
	require.ErrorIs(t, err, ErrEnumerationUnsupported)
}

func TestPurgeable_NoOps(t *testing.T) {
	z := newTestZone(t)
	msgs := captureDiagnostics(t)

	ptr := z.Malloc(64)
	z.MakePurgeable(ptr)
	require.Zero(t, z.MakeNonPurgeable(ptr))
	require.Empty(t, *msgs)
	require.NotZero(t, z.SizeOf(ptr), "purgeable ops must not touch the cell")
	z.Free(ptr)
}

func TestDescriptorCallbacks_Dispatch(t *testing.T) {
	z := newTestZone(t)
	d := z.Descriptor()

	ptr := d.Malloc(d, 128)
	require.NotZero(t, ptr)
	require.GreaterOrEqual(t, d.Size(d, ptr), uintptr(128))

	grown := d.Realloc(d, ptr, 512)
	require.NotZero(t, grown)
	d.Free(d, grown)
	require.Zero(t, d.Size(d, grown))

	var st abi.Statistics
	d.Introspect.Statistics(d, &st)
	require.False(t, d.Introspect.ZoneLocked(d))
	require.Equal(t, z.GoodSize(100), d.Introspect.GoodSize(d, 100))
}

func TestIntrospection_CheckAborts(t *testing.T) {
	z := newTestZone(t)
	captureDiagnostics(t)
	prev := report.SetAbort(func() { panic("abort") })
	t.Cleanup(func() { report.SetAbort(prev) })

	d := z.Descriptor()
	require.Panics(t, func() { d.Introspect.Check(d) })
	require.Panics(t, func() { d.Introspect.Print(d, true) })
	require.NotPanics(t, func() { d.Introspect.Log(d, 0x1000) })
}
