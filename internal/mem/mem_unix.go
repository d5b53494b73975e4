//go:build unix

package mem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Map returns a zero-filled, read-write anonymous mapping of at least n
// bytes, rounded up to whole pages. The mapping lives outside the Go heap
// and is never moved or scanned by the collector.
func Map(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("mem: invalid mapping size %d", n)
	}
	size := PageAlign(n)
	data, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mem: mmap %d bytes: %w", size, err)
	}
	return data, nil
}

// Unmap releases a mapping produced by Map.
func Unmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if err := unix.Munmap(b); err != nil {
		return fmt.Errorf("mem: munmap: %w", err)
	}
	return nil
}

// Protect switches the mapping between read-only and read-write. The buffer
// must cover whole pages, which is always true for Map results.
func Protect(b []byte, readOnly bool) error {
	if len(b) == 0 {
		return ErrBadMapping
	}
	prot := unix.PROT_READ | unix.PROT_WRITE
	if readOnly {
		prot = unix.PROT_READ
	}
	if err := unix.Mprotect(b, prot); err != nil {
		return fmt.Errorf("mem: mprotect: %w", err)
	}
	return nil
}

// PageSize returns the system page size.
func PageSize() int {
	return unix.Getpagesize()
}
