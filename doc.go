// Package rubymarshal decodes and re-encodes the Ruby Marshal 4.8 binary
// object-serialization format.
//
// The hard invariant the library is built around: values that are shared or
// mutually-referential in the original graph decode into a graph with the
// same sharing topology, and re-encoding that graph reproduces the original
// byte stream exactly, including the back-reference table layout.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	rubymarshal/     Root package with convenience Load/Dump wrappers
//	├── marshal/     Core codec: value arena, decoder, encoder, fixnum/float
//	├── convert/     Mapping between the value graph and plain Go values
//	├── inspect/     Human-readable rendering of value graphs
//	├── errors/      Structured error types
//	└── cmd/marshal/ CLI for decoding, verifying and browsing streams
//
// # Quick Start
//
// Round-trip a stream:
//
//	arena, err := rubymarshal.Load(f)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	data, err := rubymarshal.DumpBytes(arena)
//	// data is byte-identical to the original stream
//
// Map the graph onto Go values:
//
//	var settings map[string]int
//	err = convert.FromValue(arena, arena.Root(), &settings)
//
// # Thread Safety
//
// An arena under construction belongs to exactly one decode call. A
// fully-built arena is never mutated by encoding, so concurrent Dump calls
// over the same arena are safe.
package rubymarshal
