package buf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestI64LE(t *testing.T) {
	b := make([]byte, 8)
	require.True(t, PutI64LE(b, -96))
	require.EqualValues(t, -96, I64LE(b))

	require.Zero(t, I64LE(b[:7]), "short buffer reads as zero")
	require.False(t, PutI64LE(b[:7], 1))
}

func TestU32LE(t *testing.T) {
	b := make([]byte, 4)
	require.True(t, PutU32LE(b, 0x5a4b4131))
	require.EqualValues(t, 0x5a4b4131, U32LE(b))

	require.Zero(t, U32LE(b[:3]))
	require.False(t, PutU32LE(b[:3], 1))
}

func TestMulUintptr(t *testing.T) {
	got, ok := MulUintptr(8, 32)
	require.True(t, ok)
	require.EqualValues(t, 256, got)

	_, ok = MulUintptr(^uintptr(0)/2, 3)
	require.False(t, ok)

	got, ok = MulUintptr(0, ^uintptr(0))
	require.True(t, ok)
	require.Zero(t, got)

	got, ok = MulUintptr(^uintptr(0), 0)
	require.True(t, ok)
	require.Zero(t, got)
}
