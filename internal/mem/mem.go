// Package mem provides the raw page-level memory primitives the allocator
// layer is built on: anonymous mappings, unmapping, and page protection.
//
// The unix implementation uses mmap/munmap/mprotect. The fallback
// implementation hands out ordinary Go-managed buffers and cannot apply
// page protection; callers that rely on protection must treat
// ErrProtectUnsupported as a soft failure.
package mem

import "errors"

var (
	// ErrProtectUnsupported indicates that page protection is not
	// available on this platform.
	ErrProtectUnsupported = errors.New("mem: page protection not supported on this platform")

	// ErrBadMapping indicates an Unmap or Protect call on a buffer that
	// was not produced by Map.
	ErrBadMapping = errors.New("mem: buffer is not a page mapping")
)

// PageAlign returns n rounded up to the next page boundary.
func PageAlign(n int) int {
	ps := PageSize()
	return (n + ps - 1) &^ (ps - 1)
}
