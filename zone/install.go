package zone

import (
	"sync"

	"github.com/zonekit/zonekit/backend"
	"github.com/zonekit/zonekit/internal/report"
)

// processRegistry models the process-wide zone table.
var processRegistry = NewRegistry()

var (
	installOnce sync.Once
	defaultZone *Zone
)

// Install builds the replacement zone, attaches the backing allocator, and
// registers the descriptor as the process default. Idempotent: later calls
// return the zone installed by the first. Registration failure is fatal;
// a process whose default zone did not register has no working allocator to
// fall back to.
func Install() *Zone {
	installOnce.Do(func() {
		z := NewZone(processRegistry)

		// The startup window exists only between NewZone and Activate:
		// a zone built elsewhere can take requests into the bootstrap
		// arena before its backing allocator is attached, but Install
		// activates immediately, so its callers never hit that path.
		z.Activate(backend.New(nil))

		if err := z.Register(); err != nil {
			report.Fatalf("install: cannot register zone: %v", err)
		}
		if err := z.SetZoneName(z.desc, "zonekit"); err != nil {
			report.Errorf("install: cannot name zone: %v", err)
		}
		defaultZone = z
	})
	return defaultZone
}

// Default returns the installed zone, installing it first if needed.
func Default() *Zone {
	return Install()
}

// Registry returns the process zone table.
func (z *Zone) Registry() *Registry {
	return z.reg
}
