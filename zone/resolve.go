package zone

// FromPointer resolves the zone that issued ptr, using the two-step lookup
// the platform's own free path performs.
//
// Step one asks this zone's backing allocator (and the bootstrap arena) for
// the pointer's size; a nonzero answer is an ownership contract and resolves
// to this zone without touching the registry. Step two falls back to the
// registry scan, asking every other registered zone's size callback. The
// fast path matters: nearly every pointer in a process belongs to the
// default zone, and the registry scan calls through foreign vtables.
//
// Returns nil when no registered zone recognizes the pointer.
func (z *Zone) FromPointer(ptr uintptr) *Descriptor {
	if ptr == 0 {
		return nil
	}
	if z.SizeOf(ptr) != 0 {
		return z.desc
	}
	return z.reg.FindZoneExcept(z.desc, ptr)
}

// Owns reports whether this zone issued ptr.
func (z *Zone) Owns(ptr uintptr) bool {
	return z.SizeOf(ptr) != 0
}
