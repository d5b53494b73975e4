package backend

import (
	"sort"

	"github.com/zonekit/zonekit/internal/abi"
)

// Size class strategy: linear classes for small cells, then geometric
// growth up to the large-list threshold. Boundaries are total cell sizes
// (header included) and are always cell-aligned, which is what makes
// GoodSize idempotent.
const (
	smallMax       = 512     // last linear boundary
	smallIncrement = 32      // linear step
	mediumMax      = 1 << 16 // 64 KiB; larger cells go to the large list
	growthFactor   = 3       // geometric phase multiplies by growthFactor/2
)

// classTable holds the computed size class boundaries.
type classTable struct {
	boundaries []uintptr // inclusive upper bound per class, cell-aligned
}

// newClassTable computes the boundary list. The table is built once per
// allocator; classes past the end map to the large list.
func newClassTable() *classTable {
	t := &classTable{boundaries: make([]uintptr, 0, 32)}

	for b := uintptr(abi.MinCellSize); b <= smallMax; b += smallIncrement {
		t.boundaries = append(t.boundaries, b)
	}

	b := uintptr(smallMax)
	for b < mediumMax {
		next := abi.AlignCell(b * growthFactor / 2)
		if next <= b {
			next = b + abi.CellAlignment
		}
		t.boundaries = append(t.boundaries, next)
		b = next
	}

	return t
}

// classOf returns the class index whose boundary is the smallest one >= n,
// or len(boundaries) for large cells.
func (t *classTable) classOf(n uintptr) int {
	return sort.Search(len(t.boundaries), func(i int) bool {
		return t.boundaries[i] >= n
	})
}

// numClasses returns the number of bounded classes (the large list is one
// past the end).
func (t *classTable) numClasses() int {
	return len(t.boundaries)
}

// round returns the smallest boundary >= n, or n unchanged (already
// cell-aligned by the caller) when n belongs to the large list.
func (t *classTable) round(n uintptr) uintptr {
	c := t.classOf(n)
	if c == len(t.boundaries) {
		return n
	}
	return t.boundaries[c]
}
