package zone

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zonekit/zonekit/internal/mem"
)

func TestCreateZone_ShellDispatchesToOwner(t *testing.T) {
	z := newTestZone(t)

	shell, err := z.CreateZone(0, 0)
	require.NoError(t, err)
	require.NotNil(t, shell)
	require.NotEqual(t, z.Descriptor(), shell)

	// The shell carries the owner's vtable but no name, and is never
	// registered.
	require.EqualValues(t, z.Descriptor().Version, shell.Version)
	require.Zero(t, shell.Name)
	require.NotContains(t, z.reg.Zones(), shell)

	// Calls through the shell's vtable land on the servicing zone.
	ptr := shell.Malloc(shell, 96)
	require.NotZero(t, ptr)
	require.GreaterOrEqual(t, z.SizeOf(ptr), uintptr(96),
		"shell allocation must come from the owner's heap")
	shell.Free(shell, ptr)
	require.Zero(t, z.SizeOf(ptr))

	z.DestroyZone(shell)
}

// TestCreateZone_ShellIsWriteProtected re-executes the test binary and has
// the child write to a shell's vtable directly. The write must die at the
// memory-protection level, not silently corrupt the descriptor.
func TestCreateZone_ShellIsWriteProtected(t *testing.T) {
	if os.Getenv("ZONEKIT_TEST_SHELL_WRITE") == "1" {
		z := newTestZone(t)
		shell, err := z.CreateZone(0, 0)
		if err != nil {
			os.Exit(3)
		}
		shell.Name = 0xdead // must fault here
		os.Exit(0)
	}

	// Protection support check: the fallback mem implementation cannot
	// protect pages, and CreateZone tolerates that by design.
	page, err := mem.Map(1)
	require.NoError(t, err)
	if err := mem.Protect(page, true); errors.Is(err, mem.ErrProtectUnsupported) {
		t.Skip("page protection not supported on this platform")
	}
	require.NoError(t, mem.Protect(page, false))
	require.NoError(t, mem.Unmap(page))

	cmd := exec.Command(os.Args[0], "-test.run=TestCreateZone_ShellIsWriteProtected$")
	cmd.Env = append(os.Environ(), "ZONEKIT_TEST_SHELL_WRITE=1")
	out, err := cmd.CombinedOutput()
	require.Error(t, err, "writing to a shell vtable must kill the process; child output:\n%s", out)
	require.NotContains(t, string(out), "ok  ",
		"child must die before the test harness reports success")
}

func TestCreateZone_ShellsAreDistinct(t *testing.T) {
	z := newTestZone(t)

	a, err := z.CreateZone(0, 0)
	require.NoError(t, err)
	b, err := z.CreateZone(0, 0)
	require.NoError(t, err)
	require.NotSame(t, a, b)

	z.DestroyZone(a)
	z.DestroyZone(b)
}

func TestDestroyZone_RegisteredZoneSurvives(t *testing.T) {
	z := newTestZone(t)
	msgs := captureDiagnostics(t)

	z.DestroyZone(z.Descriptor())
	require.Len(t, *msgs, 1)

	// The zone keeps working.
	ptr := z.Malloc(32)
	require.NotZero(t, ptr)
	z.Free(ptr)
}

func TestDestroyZone_ReleasesName(t *testing.T) {
	z := newTestZone(t)

	shell, err := z.CreateZone(0, 0)
	require.NoError(t, err)
	require.NoError(t, z.SetZoneName(shell, "scratch"))

	namePtr := shell.Name
	require.NotZero(t, namePtr)
	require.NotZero(t, z.SizeOf(namePtr), "name comes from the zone's own heap")

	z.DestroyZone(shell)
	require.Zero(t, z.SizeOf(namePtr), "destroy must free the name")
}

func TestDestroyZone_UnknownDescriptor(t *testing.T) {
	z := newTestZone(t)
	msgs := captureDiagnostics(t)

	z.DestroyZone(&Descriptor{})
	require.Len(t, *msgs, 1)
}

func TestVtableDestroy_IsDiagnosticNoOp(t *testing.T) {
	z := newTestZone(t)
	msgs := captureDiagnostics(t)

	d := z.Descriptor()
	d.Destroy(d)
	require.Len(t, *msgs, 1)

	ptr := z.Malloc(16)
	require.NotZero(t, ptr)
	z.Free(ptr)
}

func TestSetZoneName(t *testing.T) {
	z := newTestZone(t)
	d := z.Descriptor()

	require.NoError(t, z.SetZoneName(d, "primary"))
	require.Equal(t, "primary", ZoneName(d))
	first := d.Name

	// Rename replaces the string wholesale and frees the old one.
	require.NoError(t, z.SetZoneName(d, "renamed"))
	require.Equal(t, "renamed", ZoneName(d))
	require.Zero(t, z.SizeOf(first))
}

func TestSetZoneName_Shell(t *testing.T) {
	z := newTestZone(t)

	shell, err := z.CreateZone(0, 0)
	require.NoError(t, err)

	require.NoError(t, z.SetZoneName(shell, "shadow"))
	require.Equal(t, "shadow", ZoneName(shell))

	require.NoError(t, z.SetZoneName(shell, "shade"))
	require.Equal(t, "shade", ZoneName(shell))

	z.DestroyZone(shell)
}

func TestSetZoneName_ConcurrentReaders(t *testing.T) {
	z := newTestZone(t)
	d := z.Descriptor()
	require.NoError(t, z.SetZoneName(d, "name-0"))

	names := map[string]bool{}
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("name-%d", i)
		names[name] = true
	}

	// Renames race against readers; every observed name must be one of
	// the written values, never a freed (scribbled) or torn string.
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				got := ZoneName(d)
				if !names[got] {
					t.Errorf("read name %q, not a written value", got)
					return
				}
			}
		}()
	}

	for round := 0; round < 50; round++ {
		for i := 1; i < 8; i++ {
			require.NoError(t, z.SetZoneName(d, fmt.Sprintf("name-%d", i)))
		}
	}
	close(stop)
	wg.Wait()
}

func TestSetZoneName_Limits(t *testing.T) {
	z := newTestZone(t)

	long := make([]byte, 1024)
	for i := range long {
		long[i] = 'x'
	}
	require.ErrorIs(t, z.SetZoneName(z.Descriptor(), string(long)), ErrNameTooLong)
	require.ErrorIs(t, z.SetZoneName(nil, "x"), ErrNilZone)
	require.ErrorIs(t, z.SetZoneName(&Descriptor{}, "x"), ErrUnknownZone)
}
