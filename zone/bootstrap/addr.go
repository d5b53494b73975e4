package bootstrap

import "unsafe"

// bufBase returns the address of the first byte of buf. The arena holds
// the buffer for the process lifetime, so the address is stable.
func bufBase(buf []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
}
