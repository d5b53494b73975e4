package zone

import "unsafe"

// Raw-memory helpers. Payload addresses issued by the backing allocator
// and the bootstrap arena address memory this layer owns for the life of
// the process, so reslicing them is safe.

// byteSlice views n bytes at ptr.
func byteSlice(ptr, n uintptr) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n)
}

// copyMemory copies n bytes from src to dst. The ranges must not overlap.
func copyMemory(dst, src, n uintptr) {
	if n == 0 {
		return
	}
	copy(byteSlice(dst, n), byteSlice(src, n))
}

// clearMemory zeroes n bytes at ptr.
func clearMemory(ptr, n uintptr) {
	if n == 0 {
		return
	}
	clear(byteSlice(ptr, n))
}

// cString writes s as a NUL-terminated string at ptr, which must have room
// for len(s)+1 bytes.
func cString(ptr uintptr, s string) {
	buf := byteSlice(ptr, uintptr(len(s))+1)
	copy(buf, s)
	buf[len(s)] = 0
}

// goStringAt reads a NUL-terminated string at ptr, up to max bytes.
func goStringAt(ptr uintptr, max int) string {
	if ptr == 0 {
		return ""
	}
	buf := byteSlice(ptr, uintptr(max))
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}
