package bootstrap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlloc_Basic(t *testing.T) {
	a := New()

	ptr := a.Alloc(100)
	require.NotZero(t, ptr)
	require.Zero(t, ptr%allocAlignment)
	require.True(t, a.Owns(ptr))
	require.Equal(t, uintptr(100), a.SizeOf(ptr))
}

func TestAlloc_ZeroSize(t *testing.T) {
	a := New()

	ptr := a.Alloc(0)
	require.NotZero(t, ptr, "alloc(0) must return a valid pointer")
	require.True(t, a.Owns(ptr))
	require.True(t, a.Free(ptr))
}

func TestAlloc_Exhaustion(t *testing.T) {
	a := New()

	require.Zero(t, a.Alloc(arenaBytes+1), "oversized request must fail")

	// Drain the arena; allocation must fail cleanly, never wrap.
	for i := 0; i < arenaBytes/1024+2; i++ {
		if a.Alloc(1024) == 0 {
			return
		}
	}
	t.Fatal("arena never reported exhaustion")
}

func TestCalloc_OverflowFails(t *testing.T) {
	a := New()

	require.Zero(t, a.Calloc(^uintptr(0), 2))
	require.NotZero(t, a.Calloc(4, 32))
}

func TestCalloc_Zeroed(t *testing.T) {
	a := New()

	ptr := a.Calloc(8, 16)
	require.NotZero(t, ptr)

	off := ptr - bufBase(a.buf)
	for i := uintptr(0); i < 128; i++ {
		require.Zerof(t, a.buf[off+i], "byte %d not zeroed", i)
	}
}

func TestFree_ExactOwnership(t *testing.T) {
	a := New()

	ptr := a.Alloc(64)
	require.True(t, a.Owns(ptr))
	require.False(t, a.Owns(ptr+1), "ownership is per issued address, not per range")
	require.False(t, a.Free(ptr+1))

	require.True(t, a.Free(ptr))
	require.False(t, a.Owns(ptr), "freed pointer is no longer live")
	require.False(t, a.Free(ptr), "double free is not serviced")
}

func TestFree_ForeignPointer(t *testing.T) {
	a := New()

	require.False(t, a.Free(0xdeadbeef))
	require.False(t, a.Free(0))
}

func TestConcurrentUse(t *testing.T) {
	a := New()

	// Startup-window allocation can be multi-threaded; hammer the arena
	// from several goroutines and check every pointer stays distinct and
	// owned until freed.
	const workers = 8
	const perWorker = 200

	var wg sync.WaitGroup
	ptrs := make([][]uintptr, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ptr := a.Alloc(32)
				if ptr == 0 {
					continue
				}
				if !a.Owns(ptr) {
					t.Errorf("lost ownership of %#x", ptr)
					return
				}
				ptrs[w] = append(ptrs[w], ptr)
			}
		}(w)
	}
	wg.Wait()

	seen := make(map[uintptr]bool)
	for _, ps := range ptrs {
		for _, p := range ps {
			require.False(t, seen[p], "pointer %#x issued twice", p)
			seen[p] = true
			require.True(t, a.Free(p))
		}
	}
	require.Zero(t, a.Live())
}
