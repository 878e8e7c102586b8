// Package convert maps decoded value graphs onto plain Go values and builds
// graphs back from them.
//
// FromValue walks a graph through the arena accessor API and fills a Go
// destination by reflection: scalars, strings, byte slices, slices, maps,
// structs and any. Struct fields bind to instance variables by `marshal` tag
// or by lowercased field name; the leading @ on variable names is implied.
//
// IntoValue is the inverse. It interns symbols by content, so a graph built
// from Go values re-encodes with symbol links exactly like a decoded one.
//
// Both directions are cycle-safe: a value graph cycle that cannot be
// expressed in the destination type, or a cyclic Go structure, fails with a
// structured cycle error instead of recursing forever.
package convert
