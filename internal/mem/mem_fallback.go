//go:build !unix

package mem

import "fmt"

// fallbackPageSize stands in for the system page size on platforms without
// an mmap implementation.
const fallbackPageSize = 4096

// Map returns an ordinary zeroed buffer. Without mmap the memory is
// Go-managed and cannot be page-protected, but it still satisfies the
// allocator's cell alignment requirement.
func Map(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("mem: invalid mapping size %d", n)
	}
	return make([]byte, PageAlign(n)), nil
}

// Unmap is a no-op for Go-managed buffers.
func Unmap(b []byte) error {
	return nil
}

// Protect is unavailable without mmap.
func Protect(b []byte, readOnly bool) error {
	return ErrProtectUnsupported
}

// PageSize returns the assumed page size.
func PageSize() int {
	return fallbackPageSize
}
