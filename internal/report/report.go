// Package report is the one-way diagnostic sink for the allocator layer.
//
// Diagnostics flow out of the process and never produce a value for the
// caller: Errorf emits and returns, Fatalf emits and aborts. The layer
// never logs through a general-purpose logging framework because a logger
// would allocate through the very allocator being reported on.
package report

import (
	"fmt"
	"os"
	"sync"
)

// Sink receives one formatted diagnostic line.
type Sink func(msg string)

var (
	mu    sync.Mutex
	sink  Sink = stderrSink
	abort      = func() { os.Exit(2) }
)

func stderrSink(msg string) {
	// Single write so concurrent diagnostics do not interleave.
	fmt.Fprintf(os.Stderr, "zonekit: %s\n", msg)
}

// Errorf emits a reported-but-recoverable diagnostic. Control returns to
// the caller; it is the caller's job to hand back a nil result or error
// status afterward.
func Errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	mu.Lock()
	s := sink
	mu.Unlock()
	s(msg)
}

// Fatalf emits a diagnostic for an unrecoverable condition and aborts the
// process. It does not return: beyond this point the allocator's integrity
// cannot be assumed.
func Fatalf(format string, args ...any) {
	Errorf(format, args...)
	mu.Lock()
	a := abort
	mu.Unlock()
	a()
	// The default abort handler exits. A test handler that returns by
	// panicking keeps the no-return contract.
	panic("report: abort handler returned")
}

// SetSink replaces the diagnostic sink and returns the previous one.
// Intended for tests that assert on emitted diagnostics.
func SetSink(s Sink) Sink {
	mu.Lock()
	defer mu.Unlock()
	prev := sink
	if s == nil {
		s = stderrSink
	}
	sink = s
	return prev
}

// SetAbort replaces the abort handler and returns the previous one.
// Intended for tests; a replacement should panic rather than return.
func SetAbort(f func()) func() {
	mu.Lock()
	defer mu.Unlock()
	prev := abort
	if f == nil {
		f = func() { os.Exit(2) }
	}
	abort = f
	return prev
}
