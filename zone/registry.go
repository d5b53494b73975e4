package zone

import (
	"sync"

	"github.com/zonekit/zonekit/internal/abi"
)

// Registry models the platform's process-wide zone table: a fixed-capacity,
// append-only list of registered zones. The zone at index 0 is the default
// zone. Registered zones are never removed; the platform's protocol assumes
// registration is permanent.
type Registry struct {
	mu    sync.RWMutex
	zones []*Descriptor
}

// NewRegistry returns an empty zone table.
func NewRegistry() *Registry {
	return &Registry{zones: make([]*Descriptor, 0, 8)}
}

// Register appends d to the table. Registering the same descriptor twice
// is a no-op: only the first registration matters.
func (r *Registry) Register(d *Descriptor) error {
	if d == nil {
		return ErrNilZone
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, z := range r.zones {
		if z == d {
			return nil
		}
	}
	if len(r.zones) >= abi.MaxZones {
		return ErrRegistryFull
	}
	r.zones = append(r.zones, d)
	return nil
}

// Default returns the default zone (the first registered), or nil.
func (r *Registry) Default() *Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.zones) == 0 {
		return nil
	}
	return r.zones[0]
}

// Zones returns a snapshot of the registered zones in registration order.
func (r *Registry) Zones() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Descriptor, len(r.zones))
	copy(out, r.zones)
	return out
}

// FindZone returns the registered zone whose size query recognizes ptr,
// or nil. This is the platform's default owning-zone lookup: only a
// nonzero size answer is a contract that a zone issued the pointer.
func (r *Registry) FindZone(ptr uintptr) *Descriptor {
	return r.FindZoneExcept(nil, ptr)
}

// FindZoneExcept is FindZone skipping one zone, used by a zone that
// already knows the pointer is not its own.
func (r *Registry) FindZoneExcept(skip *Descriptor, ptr uintptr) *Descriptor {
	if ptr == 0 {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, z := range r.zones {
		if z == skip || z.Size == nil {
			continue
		}
		if z.Size(z, ptr) != 0 {
			return z
		}
	}
	return nil
}
