package backend

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/zonekit/zonekit/internal/abi"
	"github.com/zonekit/zonekit/internal/mem"
)

// Runtime debug flag for allocation logging - controlled by ZONEKIT_LOG_ALLOC.
var logAlloc = os.Getenv("ZONEKIT_LOG_ALLOC") != ""

const (
	// defaultSegmentBytes is the default mapping size for new segments.
	defaultSegmentBytes = 1 << 20

	// maxAllocSize guards size arithmetic against overflow. A quarter of
	// the address space; requests past it fail like any other
	// out-of-memory condition.
	maxAllocSize = ^uintptr(0) >> 2

	// scribbleByte fills freed payloads when scribbling is enabled.
	scribbleByte = 0x55
)

// Config tunes a HeapAllocator. The zero value is usable; New fills in
// defaults and reads the environment knobs.
type Config struct {
	// SegmentBytes is the mapping size for new segments. Individual
	// requests larger than a segment get a dedicated, page-rounded one.
	SegmentBytes int

	// Scribble fills freed payloads with 0x55. Also enabled by the
	// ZONEKIT_SCRIBBLE environment variable.
	Scribble bool
}

// HeapAllocator is the production backing allocator: segments of anonymous
// pages carved into header-prefixed cells, with segregated free lists and
// neighbor coalescing. See the package documentation for the design.
type HeapAllocator struct {
	mu sync.Mutex

	table *classTable

	// segs is sorted by base address. Segments are never unmapped.
	segs []*segment

	// classFree holds free cells per size class; index numClasses() is
	// the large list. Values are total cell sizes.
	classFree []map[uintptr]uintptr

	// freeByAddr and freeByEnd index free cells by start and end address
	// for O(1) forward/backward coalescing.
	freeByAddr map[uintptr]uintptr
	freeByEnd  map[uintptr]uintptr

	segmentBytes int
	scribble     bool

	stats heapStats
}

// heapStats holds the live counters behind the statistics callback.
type heapStats struct {
	blocksInUse   uintptr
	sizeInUse     uintptr
	maxSizeInUse  uintptr
	sizeAllocated uintptr
}

// New creates a HeapAllocator. A nil config selects the defaults.
// No segment is mapped until the first allocation needs one.
func New(cfg *Config) *HeapAllocator {
	if cfg == nil {
		cfg = &Config{}
	}
	segBytes := cfg.SegmentBytes
	if segBytes <= 0 {
		segBytes = defaultSegmentBytes
	}
	table := newClassTable()

	h := &HeapAllocator{
		table:        table,
		classFree:    make([]map[uintptr]uintptr, table.numClasses()+1),
		freeByAddr:   make(map[uintptr]uintptr),
		freeByEnd:    make(map[uintptr]uintptr),
		segmentBytes: mem.PageAlign(segBytes),
		scribble:     cfg.Scribble || os.Getenv("ZONEKIT_SCRIBBLE") != "",
	}
	for i := range h.classFree {
		h.classFree[i] = make(map[uintptr]uintptr)
	}
	return h
}

// cellNeed converts a payload request into a total cell size.
func cellNeed(size uintptr) (uintptr, bool) {
	if size > maxAllocSize {
		return 0, false
	}
	if size == 0 {
		return abi.MinCellSize, true
	}
	return abi.AlignCell(size) + abi.CellHeaderSize, true
}

// Alloc allocates size payload bytes. Returns 0 on failure.
func (h *HeapAllocator) Alloc(size uintptr) uintptr {
	need, ok := cellNeed(size)
	if !ok {
		return 0
	}

	h.mu.Lock()
	cell := h.allocLocked(need)
	h.mu.Unlock()

	if cell == 0 {
		return 0
	}
	ptr := cell + abi.CellHeaderSize
	if logAlloc {
		fmt.Fprintf(os.Stderr, "backend: alloc(%d) = %#x\n", size, ptr)
	}
	return ptr
}

// AllocAligned allocates size payload bytes aligned to align. align must
// be a power of two; alignments at or below the cell alignment degrade to
// a plain Alloc.
func (h *HeapAllocator) AllocAligned(align, size uintptr) uintptr {
	if !abi.IsPowerOfTwo(align) || align > maxAllocSize {
		return 0
	}
	if align <= abi.CellAlignment {
		return h.Alloc(size)
	}

	need, ok := cellNeed(size)
	if !ok {
		return 0
	}
	// Slack guarantees an aligned header slot plus room to turn the lead
	// gap into a legal free cell.
	span := need + align + abi.MinCellSize

	h.mu.Lock()
	defer h.mu.Unlock()

	seg, cell, total, ok := h.takeLocked(span)
	if !ok {
		return 0
	}

	ptr := abi.AlignUp(cell+abi.CellHeaderSize, align)
	if lead := ptr - abi.CellHeaderSize - cell; lead > 0 && lead < abi.MinCellSize {
		// Gap too small to stand alone as a free cell; skip to the
		// next alignment boundary, which the slack accounts for.
		ptr += align
	}
	acell := ptr - abi.CellHeaderSize
	lead := acell - cell

	avail := cell + total - acell
	cut := need
	if avail-need < abi.MinCellSize {
		cut = avail
	}

	// Stamp the live cell before releasing the lead and remainder so the
	// free-list coalescer cannot absorb it.
	seg.writeHeader(acell, -int64(cut))
	h.noteAllocLocked(cut)

	if lead > 0 {
		h.addFreeLocked(seg, cell, lead)
	}
	if rem := avail - cut; rem > 0 {
		h.addFreeLocked(seg, acell+cut, rem)
	}

	if logAlloc {
		fmt.Fprintf(os.Stderr, "backend: memalign(%d, %d) = %#x\n", align, size, ptr)
	}
	return ptr
}

// Realloc resizes the cell at ptr. Shrinks happen in place; grows extend
// into a free right neighbor when possible and move otherwise. Returns 0
// when ptr is not recognized or allocation fails; the old cell stays live
// on failure.
func (h *HeapAllocator) Realloc(ptr, size uintptr) uintptr {
	need, ok := cellNeed(size)
	if !ok {
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	seg, cell, total := h.lookupLocked(ptr)
	if total == 0 {
		return 0
	}

	if need <= total {
		// Shrink in place, splitting off the tail when it is big
		// enough to be a cell of its own.
		if total-need >= abi.MinCellSize {
			seg.writeHeader(cell, -int64(need))
			h.stats.sizeInUse -= total - need
			h.addFreeLocked(seg, cell+need, total-need)
		}
		return ptr
	}

	// Grow in place when the right neighbor is a free cell big enough.
	next := cell + total
	if nsz, free := h.freeByAddr[next]; free && seg.contains(next) && total+nsz >= need {
		h.unlinkLocked(next, nsz)
		merged := total + nsz
		cut := need
		if merged-need < abi.MinCellSize {
			cut = merged
		}
		seg.writeHeader(cell, -int64(cut))
		h.stats.sizeInUse += cut - total
		if h.stats.sizeInUse > h.stats.maxSizeInUse {
			h.stats.maxSizeInUse = h.stats.sizeInUse
		}
		if rem := merged - cut; rem > 0 {
			h.addFreeLocked(seg, cell+cut, rem)
		}
		return ptr
	}

	// Move. Allocate first so a failure leaves the old cell untouched.
	newCell := h.allocLocked(need)
	if newCell == 0 {
		return 0
	}
	newSeg := h.segmentForLocked(newCell)
	oldPayload := total - abi.CellHeaderSize
	copy(newSeg.payload(newCell, oldPayload), seg.payload(cell, oldPayload))
	h.freeLocked(seg, cell, total)

	return newCell + abi.CellHeaderSize
}

// Free releases a cell issued by this allocator. Unrecognized pointers are
// ignored; the dispatch layer screens and reports them.
func (h *HeapAllocator) Free(ptr uintptr) {
	h.mu.Lock()
	defer h.mu.Unlock()

	seg, cell, total := h.lookupLocked(ptr)
	if total == 0 {
		return
	}
	if logAlloc {
		fmt.Fprintf(os.Stderr, "backend: free(%#x) size %d\n", ptr, total-abi.CellHeaderSize)
	}
	h.freeLocked(seg, cell, total)
}

// SizeOf returns the payload size of the cell at ptr, or 0 when ptr was
// not issued by this allocator. This is the ownership test.
func (h *HeapAllocator) SizeOf(ptr uintptr) uintptr {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, _, total := h.lookupLocked(ptr)
	if total == 0 {
		return 0
	}
	return total - abi.CellHeaderSize
}

// GoodSize rounds size up to the size-class boundary the allocator would
// serve it from. Idempotent: GoodSize(GoodSize(x)) == GoodSize(x).
func (h *HeapAllocator) GoodSize(size uintptr) uintptr {
	need, ok := cellNeed(size)
	if !ok {
		return size
	}
	return h.table.round(need) - abi.CellHeaderSize
}

// Lock acquires the global allocator mutex. Exposed for the zone
// protocol's force-lock callback (fork handlers, heap enumeration).
func (h *HeapAllocator) Lock() { h.mu.Lock() }

// Unlock releases the global allocator mutex.
func (h *HeapAllocator) Unlock() { h.mu.Unlock() }

// Stats copies the live counters into st. Does not allocate.
func (h *HeapAllocator) Stats(st *abi.Statistics) {
	h.mu.Lock()
	st.BlocksInUse = h.stats.blocksInUse
	st.SizeInUse = h.stats.sizeInUse
	st.MaxSizeInUse = h.stats.maxSizeInUse
	st.SizeAllocated = h.stats.sizeAllocated
	h.mu.Unlock()
}

// EnumerateBlocks visits every live cell. The caller must hold the
// allocator lock; see the Enumerator contract.
func (h *HeapAllocator) EnumerateBlocks(visit func(addr, size uintptr) bool) error {
	for _, seg := range h.segs {
		cell := seg.base
		for cell < seg.end() {
			if !seg.contains(cell) || seg.readMagic(cell) != abi.CellMagic {
				return ErrCorrupt
			}
			sz := seg.readSize(cell)
			total := uintptr(sz)
			live := false
			if sz < 0 {
				total = uintptr(-sz)
				live = true
			}
			if total < abi.MinCellSize || total%abi.CellAlignment != 0 || cell+total > seg.end() {
				return ErrCorrupt
			}
			if live {
				if !visit(cell+abi.CellHeaderSize, total-abi.CellHeaderSize) {
					return ErrEnumerateStopped
				}
			}
			cell += total
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
// Internals. Everything below requires h.mu.

// allocLocked carves a live cell of exactly need bytes (plus unavoidable
// slop below the split threshold) and returns its header address.
func (h *HeapAllocator) allocLocked(need uintptr) uintptr {
	seg, cell, total, ok := h.takeLocked(need)
	if !ok {
		return 0
	}
	if total-need >= abi.MinCellSize {
		seg.writeHeader(cell, -int64(need))
		h.noteAllocLocked(need)
		h.addFreeLocked(seg, cell+need, total-need)
		return cell
	}
	seg.writeHeader(cell, -int64(total))
	h.noteAllocLocked(total)
	return cell
}

// takeLocked finds a free span of at least need bytes, unlinks it from the
// free lists, and returns it raw (no header written). Grows the heap by a
// fresh segment when nothing fits.
func (h *HeapAllocator) takeLocked(need uintptr) (*segment, uintptr, uintptr, bool) {
	for c := h.table.classOf(need); c <= h.table.numClasses(); c++ {
		var (
			bestAddr uintptr
			bestSize uintptr
		)
		for addr, size := range h.classFree[c] {
			if size < need {
				continue
			}
			if bestSize == 0 || size < bestSize || (size == bestSize && addr < bestAddr) {
				bestAddr, bestSize = addr, size
			}
		}
		if bestSize != 0 {
			h.unlinkLocked(bestAddr, bestSize)
			return h.segmentForLocked(bestAddr), bestAddr, bestSize, true
		}
	}

	seg, ok := h.growLocked(need)
	if !ok {
		return nil, 0, 0, false
	}
	return seg, seg.base, uintptr(len(seg.data)), true
}

// growLocked maps a fresh segment big enough for need and returns it as a
// single raw free span.
func (h *HeapAllocator) growLocked(need uintptr) (*segment, bool) {
	segBytes := h.segmentBytes
	if need > uintptr(segBytes) {
		if need > maxAllocSize {
			return nil, false
		}
		segBytes = mem.PageAlign(int(need))
	}
	data, err := mem.Map(segBytes)
	if err != nil {
		return nil, false
	}
	seg := &segment{data: data, base: baseAddr(data)}
	h.insertSegmentLocked(seg)
	h.stats.sizeAllocated += uintptr(len(data))
	return seg, true
}

// insertSegmentLocked inserts seg keeping segs sorted by base address.
func (h *HeapAllocator) insertSegmentLocked(seg *segment) {
	i := sort.Search(len(h.segs), func(i int) bool {
		return h.segs[i].base > seg.base
	})
	h.segs = append(h.segs, nil)
	copy(h.segs[i+1:], h.segs[i:])
	h.segs[i] = seg
}

// segmentForLocked returns the segment containing addr, or nil.
func (h *HeapAllocator) segmentForLocked(addr uintptr) *segment {
	i := sort.Search(len(h.segs), func(i int) bool {
		return h.segs[i].end() > addr
	})
	if i == len(h.segs) || addr < h.segs[i].base {
		return nil
	}
	return h.segs[i]
}

// lookupLocked validates ptr as a live payload pointer and returns its
// segment, header address and total cell size. total == 0 means the
// pointer was not issued by this allocator (or is no longer live).
func (h *HeapAllocator) lookupLocked(ptr uintptr) (*segment, uintptr, uintptr) {
	if ptr < abi.CellHeaderSize {
		return nil, 0, 0
	}
	cell := ptr - abi.CellHeaderSize
	seg := h.segmentForLocked(cell)
	if seg == nil || !seg.contains(cell) {
		return nil, 0, 0
	}
	if (cell-seg.base)%abi.CellAlignment != 0 {
		return nil, 0, 0
	}
	if seg.readMagic(cell) != abi.CellMagic {
		return nil, 0, 0
	}
	sz := seg.readSize(cell)
	if sz >= 0 {
		return nil, 0, 0
	}
	total := uintptr(-sz)
	if total < abi.MinCellSize || cell+total > seg.end() {
		return nil, 0, 0
	}
	return seg, cell, total
}

// freeLocked releases a validated live cell.
func (h *HeapAllocator) freeLocked(seg *segment, cell, total uintptr) {
	if h.scribble {
		payload := seg.payload(cell, total-abi.CellHeaderSize)
		for i := range payload {
			payload[i] = scribbleByte
		}
	}
	h.stats.blocksInUse--
	h.stats.sizeInUse -= total - abi.CellHeaderSize
	h.addFreeLocked(seg, cell, total)
}

// addFreeLocked merges [cell, cell+size) with free neighbors in the same
// segment, stamps the free header, and links the result.
func (h *HeapAllocator) addFreeLocked(seg *segment, cell, size uintptr) {
	// Forward: a free cell starting exactly at our end.
	if nsz, ok := h.freeByAddr[cell+size]; ok && seg.contains(cell+size) {
		h.unlinkLocked(cell+size, nsz)
		size += nsz
	}
	// Backward: a free cell ending exactly at our start.
	if psz, ok := h.freeByEnd[cell]; ok {
		prev := cell - psz
		if seg.contains(prev) {
			h.unlinkLocked(prev, psz)
			cell = prev
			size += psz
		}
	}
	seg.writeHeader(cell, int64(size))
	h.linkLocked(cell, size)
}

// linkLocked registers a free cell in the class lists and both indexes.
func (h *HeapAllocator) linkLocked(cell, size uintptr) {
	c := h.table.classOf(size)
	h.classFree[c][cell] = size
	h.freeByAddr[cell] = size
	h.freeByEnd[cell+size] = size
}

// unlinkLocked removes a free cell from the class lists and both indexes.
func (h *HeapAllocator) unlinkLocked(cell, size uintptr) {
	c := h.table.classOf(size)
	delete(h.classFree[c], cell)
	delete(h.freeByAddr, cell)
	delete(h.freeByEnd, cell+size)
}

// noteAllocLocked updates the live counters for a new cell.
func (h *HeapAllocator) noteAllocLocked(total uintptr) {
	h.stats.blocksInUse++
	h.stats.sizeInUse += total - abi.CellHeaderSize
	if h.stats.sizeInUse > h.stats.maxSizeInUse {
		h.stats.maxSizeInUse = h.stats.sizeInUse
	}
}

// Compile-time interface checks.
var (
	_ Allocator  = (*HeapAllocator)(nil)
	_ Enumerator = (*HeapAllocator)(nil)
)
