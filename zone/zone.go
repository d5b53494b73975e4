package zone

import (
	"os"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/zonekit/zonekit/backend"
	"github.com/zonekit/zonekit/internal/abi"
	"github.com/zonekit/zonekit/zone/bootstrap"
)

// Zone is the replacement layer's state: the protocol-facing descriptor,
// the bootstrap arena for the startup window, the backing allocator once it
// is ready, and the table of shells created on behalf of clients.
type Zone struct {
	desc  *Descriptor
	intro *Introspection
	reg   *Registry
	boot  *bootstrap.Arena

	// heap is written once by Activate before ready flips; dispatch
	// reads it only after observing ready.
	heap  backend.Allocator
	ready atomic.Bool

	shellMu sync.Mutex
	shells  map[uintptr]*shellInfo

	abortOnUnknownFree bool
}

// shellInfo tracks the mapping behind a foreign-zone shell so DestroyZone
// can release it.
type shellInfo struct {
	mapping []byte
}

// owners resolves a descriptor address (registered descriptor or shell
// copy) back to the Zone that services it. Trampolines in the vtable are
// top-level functions and use this instead of closing over state, so a
// byte-copied shell keeps working.
var owners sync.Map // uintptr -> *Zone

// NewZone builds a zone with its descriptor and introspection record fully
// populated but the backing allocator not yet attached: dispatch routes to
// the bootstrap arena until Activate.
func NewZone(reg *Registry) *Zone {
	z := &Zone{
		reg:                reg,
		boot:               bootstrap.New(),
		shells:             make(map[uintptr]*shellInfo),
		abortOnUnknownFree: os.Getenv("ZONEKIT_ABORT_ON_UNKNOWN_FREE") != "",
	}

	z.intro = &Introspection{
		Enumerate:   introEnumerate,
		GoodSize:    introGoodSize,
		Check:       introCheck,
		Print:       introPrint,
		Log:         introLog,
		ForceLock:   introForceLock,
		ForceUnlock: introForceUnlock,
		Statistics:  introStatistics,
		ZoneLocked:  introZoneLocked,
		EnumVersion: EnumerationVersion,
	}

	z.desc = &Descriptor{
		Size:             zoneSize,
		Malloc:           zoneMalloc,
		Calloc:           zoneCalloc,
		Valloc:           zoneValloc,
		Free:             zoneFree,
		Realloc:          zoneRealloc,
		Destroy:          zoneDestroy,
		BatchMalloc:      zoneBatchMalloc,
		BatchFree:        zoneBatchFree,
		Introspect:       z.intro,
		Version:          abi.ZoneVersion,
		Memalign:         zoneMemalign,
		FreeDefiniteSize: zoneFreeDefiniteSize,
	}

	owners.Store(descAddr(z.desc), z)
	return z
}

// Activate attaches the backing allocator and ends the startup window.
// New requests stop using the bootstrap arena; pointers it already issued
// keep being serviced through it.
func (z *Zone) Activate(h backend.Allocator) {
	z.heap = h
	if hh, ok := h.(*backend.HeapAllocator); ok {
		z.intro.StateAddr = uintptr(unsafe.Pointer(hh))
		z.intro.StateSize = unsafe.Sizeof(*hh)
	}
	z.ready.Store(true)
}

// Ready reports whether the backing allocator is attached.
func (z *Zone) Ready() bool {
	return z.ready.Load()
}

// Register hands the descriptor to the zone registry. Only the first
// registration of a zone matters; the registry rejects duplicates.
func (z *Zone) Register() error {
	return z.reg.Register(z.desc)
}

// Descriptor returns the zone's protocol-facing descriptor.
func (z *Zone) Descriptor() *Descriptor {
	return z.desc
}

// descAddr returns the address identity of a descriptor.
func descAddr(d *Descriptor) uintptr {
	return uintptr(unsafe.Pointer(d))
}

// ownerOf resolves the Zone behind a descriptor or shell, or nil.
func ownerOf(d *Descriptor) *Zone {
	if d == nil {
		return nil
	}
	if v, ok := owners.Load(descAddr(d)); ok {
		return v.(*Zone)
	}
	return nil
}
