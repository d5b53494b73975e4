// Package abi holds the fixed-layout constants and structures mandated by
// the host platform's heap-zone protocol.
//
// Everything in this package is a binary-compatibility contract with
// external tooling (heap walkers, leak scanners, debuggers). Structures are
// plain aggregates with a stable field order: fields may only be appended,
// never reordered or retyped, across releases.
package abi
