package backend

import (
	"unsafe"

	"github.com/zonekit/zonekit/internal/abi"
	"github.com/zonekit/zonekit/internal/buf"
)

// Cell header layout (little-endian, 16 bytes):
//
//	Offset  Size  Description
//	0x00    8     Signed size. Negative => live, positive => free.
//	              The absolute value includes the header.
//	0x08    4     Magic (abi.CellMagic). Ownership checks require it.
//	0x0C    4     Reserved, written as zero.
//	0x10    ...   Payload, 16-byte aligned.

// segment is one anonymous mapping owned by the allocator. Segments are
// address-sorted and never released, so base addresses are stable.
type segment struct {
	data []byte
	base uintptr
}

func (s *segment) end() uintptr {
	return s.base + uintptr(len(s.data))
}

// contains reports whether a full cell header could start at addr.
func (s *segment) contains(addr uintptr) bool {
	return addr >= s.base && addr+abi.CellHeaderSize <= s.end()
}

// readSize returns the signed cell size at cell (an absolute address
// inside the segment).
func (s *segment) readSize(cell uintptr) int64 {
	off := cell - s.base
	return buf.I64LE(s.data[off:])
}

// readMagic returns the header magic at cell.
func (s *segment) readMagic(cell uintptr) uint32 {
	off := cell - s.base
	return buf.U32LE(s.data[off+8:])
}

// writeHeader stamps a full cell header at cell.
func (s *segment) writeHeader(cell uintptr, size int64) {
	off := cell - s.base
	buf.PutI64LE(s.data[off:], size)
	buf.PutU32LE(s.data[off+8:], abi.CellMagic)
	buf.PutU32LE(s.data[off+12:], 0)
}

// payload returns the n payload bytes of the cell at cell.
func (s *segment) payload(cell uintptr, n uintptr) []byte {
	off := cell - s.base + abi.CellHeaderSize
	return s.data[off : off+n : off+n]
}

// baseAddr returns the address of the first byte of data.
func baseAddr(data []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(data)))
}
