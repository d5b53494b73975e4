package zone

import (
	"errors"
	"unsafe"

	"github.com/zonekit/zonekit/internal/mem"
	"github.com/zonekit/zonekit/internal/report"
)

// Foreign-zone shells. Clients that ask for a zone of their own get a shell:
// a page-aligned byte copy of this zone's descriptor, living outside the Go
// heap, with its pages set read-only after construction. A shell is never
// registered — the registered zone services its traffic — so external
// enumeration never sees it, and its read-only pages catch clients that
// patch vtables in place.
//
// The copy is safe because every vtable field references a top-level
// function and the introspection record stays owned (and kept reachable) by
// the servicing Zone.

// CreateZone builds a shell serviced by z. startSize and flags are accepted
// for interface compatibility and ignored: shells share the backing
// allocator, they do not pre-size one of their own.
func (z *Zone) CreateZone(startSize uintptr, flags uint32) (*Descriptor, error) {
	_, _ = startSize, flags

	mapping, err := mem.Map(int(unsafe.Sizeof(Descriptor{})))
	if err != nil {
		return nil, err
	}

	shell := (*Descriptor)(unsafe.Pointer(unsafe.SliceData(mapping)))
	*shell = *z.desc
	shell.Name = 0

	if err := mem.Protect(mapping, true); err != nil && !errors.Is(err, mem.ErrProtectUnsupported) {
		_ = mem.Unmap(mapping)
		return nil, err
	}

	owners.Store(descAddr(shell), z)

	z.shellMu.Lock()
	z.shells[descAddr(shell)] = &shellInfo{mapping: mapping}
	z.shellMu.Unlock()

	return shell, nil
}

// DestroyZone tears a shell down: write access restored, name freed, owner
// entry retired, pages unmapped. Destroying the registered zone itself is a
// diagnostic no-op, matching the vtable destroy callback.
func (z *Zone) DestroyZone(d *Descriptor) {
	if d == nil {
		return
	}
	if d == z.desc {
		report.Errorf("destroy: refusing to destroy registered zone %q", nameOf(d))
		return
	}

	z.shellMu.Lock()
	info, ok := z.shells[descAddr(d)]
	if ok {
		delete(z.shells, descAddr(d))
	}
	z.shellMu.Unlock()

	if !ok {
		report.Errorf("destroy: descriptor %#x is not a shell of this zone", descAddr(d))
		return
	}

	if err := mem.Protect(info.mapping, false); err != nil && !errors.Is(err, mem.ErrProtectUnsupported) {
		report.Errorf("destroy: cannot restore write access to shell %#x: %v", descAddr(d), err)
	}
	nameMu.Lock()
	name := d.Name
	d.Name = 0
	nameMu.Unlock()
	if name != 0 {
		z.Free(name)
	}

	owners.Delete(descAddr(d))
	if err := mem.Unmap(info.mapping); err != nil {
		report.Errorf("destroy: cannot unmap shell %#x: %v", descAddr(d), err)
	}
}
