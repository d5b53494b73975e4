package zone

import "errors"

var (
	// ErrRegistryFull indicates the process zone table is at capacity.
	ErrRegistryFull = errors.New("zone: registry full")

	// ErrNilZone indicates a nil descriptor was handed to the registry.
	ErrNilZone = errors.New("zone: nil zone descriptor")

	// ErrEnumerationUnsupported indicates the backing allocator supplies
	// no heap-walking implementation. Reported instead of an empty
	// enumeration so callers can tell "empty heap" from "unsupported".
	ErrEnumerationUnsupported = errors.New("zone: backing allocator does not support enumeration")

	// ErrNameTooLong indicates a zone name past the protocol bound.
	ErrNameTooLong = errors.New("zone: name exceeds maximum length")

	// ErrNameAlloc indicates the layer could not allocate the name copy.
	ErrNameAlloc = errors.New("zone: cannot allocate zone name")

	// ErrUnknownZone indicates a descriptor that is neither the registered
	// zone nor one of its shells.
	ErrUnknownZone = errors.New("zone: descriptor is not serviced by this zone")
)
