package backend

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zonekit/zonekit/internal/abi"
)

func TestClassTable_BoundariesAlignedAndMonotonic(t *testing.T) {
	table := newClassTable()

	var prev uintptr
	for i, b := range table.boundaries {
		require.Zerof(t, b%abi.CellAlignment, "boundary %d (%d) not cell-aligned", i, b)
		require.Greater(t, b, prev, "boundaries must be strictly increasing")
		prev = b
	}
	require.GreaterOrEqual(t, prev, uintptr(mediumMax), "table must cover the medium range")
}

func TestClassTable_ClassOf(t *testing.T) {
	table := newClassTable()

	require.Equal(t, 0, table.classOf(abi.MinCellSize))
	require.Equal(t, table.numClasses(), table.classOf(table.boundaries[len(table.boundaries)-1]+1),
		"past the last boundary maps to the large list")

	for i, b := range table.boundaries {
		require.Equal(t, i, table.classOf(b), "boundary %d must map to its own class", b)
	}
}

func TestClassTable_Round(t *testing.T) {
	table := newClassTable()

	for _, b := range table.boundaries {
		require.Equal(t, b, table.round(b), "boundaries are fixed points")
		require.Equal(t, b, table.round(b-1))
	}

	big := uintptr(1 << 20)
	require.Equal(t, big, table.round(big), "large sizes round to themselves")
}
