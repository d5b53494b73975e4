package zone

import (
	"errors"
	"sync"

	"github.com/zonekit/zonekit/internal/abi"
	"github.com/zonekit/zonekit/internal/mem"
)

// Zone names. A descriptor's name is a NUL-terminated byte string allocated
// from the zone's own heap; external tools read it through the descriptor
// field, so renames replace the string wholesale rather than editing it in
// place.

// nameMu makes renames mutually exclusive with concurrent name reads. A
// reader that loaded the old pointer must finish reading the string before
// the rename frees its cell, so both the pointer load and the byte read
// happen under the read lock, and the writer frees the old string only
// after publishing the swap.
var nameMu sync.RWMutex

// SetZoneName renames d, which must be the registered descriptor or one of
// this zone's shells. Renaming a shell briefly restores write access to its
// pages; the window is serialized with shell destruction.
func (z *Zone) SetZoneName(d *Descriptor, name string) error {
	if d == nil {
		return ErrNilZone
	}
	if len(name) >= abi.MaxZoneNameLen {
		return ErrNameTooLong
	}

	ptr := z.Malloc(uintptr(len(name)) + 1)
	if ptr == 0 {
		return ErrNameAlloc
	}
	cString(ptr, name)

	if d == z.desc {
		nameMu.Lock()
		old := d.Name
		d.Name = ptr
		nameMu.Unlock()
		if old != 0 {
			z.Free(old)
		}
		return nil
	}

	z.shellMu.Lock()
	defer z.shellMu.Unlock()

	info, ok := z.shells[descAddr(d)]
	if !ok {
		z.Free(ptr)
		return ErrUnknownZone
	}

	if err := mem.Protect(info.mapping, false); err != nil && !errors.Is(err, mem.ErrProtectUnsupported) {
		z.Free(ptr)
		return err
	}
	nameMu.Lock()
	old := d.Name
	d.Name = ptr
	nameMu.Unlock()
	if err := mem.Protect(info.mapping, true); err != nil && !errors.Is(err, mem.ErrProtectUnsupported) {
		return err
	}

	if old != 0 {
		z.Free(old)
	}
	return nil
}

// ZoneName reads d's name, or "" when unnamed.
func ZoneName(d *Descriptor) string {
	if d == nil {
		return ""
	}
	nameMu.RLock()
	defer nameMu.RUnlock()
	return goStringAt(d.Name, abi.MaxZoneNameLen)
}
