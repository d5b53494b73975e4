package backend

import "testing"

func BenchmarkAllocFree(b *testing.B) {
	h := New(nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ptr := h.Alloc(128)
		if ptr == 0 {
			b.Fatal("alloc failed")
		}
		h.Free(ptr)
	}
}

func BenchmarkAllocChurn(b *testing.B) {
	h := New(nil)
	sizes := []uintptr{16, 64, 256, 1024, 4096}
	ptrs := make([]uintptr, 0, 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ptrs = append(ptrs, h.Alloc(sizes[i%len(sizes)]))
		if len(ptrs) == cap(ptrs) {
			for _, p := range ptrs {
				h.Free(p)
			}
			ptrs = ptrs[:0]
		}
	}
}

func BenchmarkSizeOf(b *testing.B) {
	h := New(nil)
	ptr := h.Alloc(128)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if h.SizeOf(ptr) == 0 {
			b.Fatal("lost ownership")
		}
	}
}
