// Package buf contains bounds-safe helpers for the fixed little-endian
// cell-header encoding and the overflow checks allocation math depends on.
package buf

import "encoding/binary"

// I64LE reads a little-endian int64 from b. Returns 0 when b is too short.
func I64LE(b []byte) int64 {
	if len(b) < 8 {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b))
}

// U32LE reads a little-endian uint32 from b. Returns 0 when b is too short.
func U32LE(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// PutI64LE writes v little-endian into b. Reports whether b had room.
func PutI64LE(b []byte, v int64) bool {
	if len(b) < 8 {
		return false
	}
	binary.LittleEndian.PutUint64(b, uint64(v))
	return true
}

// PutU32LE writes v little-endian into b. Reports whether b had room.
func PutU32LE(b []byte, v uint32) bool {
	if len(b) < 4 {
		return false
	}
	binary.LittleEndian.PutUint32(b, v)
	return true
}
