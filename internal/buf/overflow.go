package buf

// MulUintptr multiplies a and b, returning ok = false when the product
// would overflow uintptr. This is essential for count * elementSize math
// on the calloc path.
func MulUintptr(a, b uintptr) (uintptr, bool) {
	total := a * b
	if b != 0 && total/b != a {
		return 0, false
	}
	return total, true
}
