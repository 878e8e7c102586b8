// Package marshal provides decoding and encoding of the Ruby Marshal 4.8
// binary serialization format.
//
// A marshal stream is a self-describing byte stream representing a
// possibly-cyclic graph of typed values: primitives, strings, symbols,
// arrays, hashes, generic objects, opaque user-defined payloads and class
// references. Decoded values live in a ValueArena and are addressed through
// opaque handles, which is what lets shared and mutually-referential values
// keep their sharing topology without native reference cycles.
//
// # Decoding
//
// Load one stream into a fresh arena:
//
//	arena, err := marshal.Load(reader)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	root := arena.Root()
//
// Decoding resolves back-references through two link tables (one for
// symbols, one for everything else) built incrementally during the same
// pass. Containers reserve their arena slot before parsing children, so a
// self-referential array decodes without non-termination.
//
// # Encoding
//
// Dump reproduces the exact byte stream a decode came from, bit for bit,
// including the back-reference table layout:
//
//	err := marshal.Dump(writer, arena)
//
// Link indices are assigned during the emitting traversal in the same order
// a decoder reading the output would assign them. Link identity is handle
// identity: equal content under two distinct handles serializes twice.
//
// # Value access
//
// Values are a closed variant set. Dereference handles with Value or, when a
// variant guarantee exists, with the typed form:
//
//	v, ok := arena.Value(h)
//	switch v := v.(type) {
//	case *marshal.ArrayValue:
//	    for _, elem := range v.Elements { ... }
//	case *marshal.FixnumValue:
//	    fmt.Println(v.Value)
//	}
//
//	sym, ok := marshal.Deref(arena, symbolHandle)
//
// The package performs no logging; all failures surface as structured
// errors from the errors package.
package marshal
