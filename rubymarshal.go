package rubymarshal

import (
	"io"

	"github.com/simplepad/ruby-marshal-go/marshal"
)

// Aliases for the core types, so simple callers only import the root package.
type (
	Value       = marshal.Value
	ValueArena  = marshal.ValueArena
	ValueHandle = marshal.ValueHandle
	Kind        = marshal.Kind
)

// Load decodes one marshal stream from r into a fresh arena.
func Load(r io.Reader) (*ValueArena, error) {
	return marshal.Load(r)
}

// LoadBytes decodes one marshal stream held in memory.
func LoadBytes(data []byte) (*ValueArena, error) {
	return marshal.LoadBytes(data)
}

// Dump serializes the arena's root value to w.
func Dump(w io.Writer, arena *ValueArena) error {
	return marshal.Dump(w, arena)
}

// DumpBytes serializes the arena's root value to memory.
func DumpBytes(arena *ValueArena) ([]byte, error) {
	return marshal.DumpBytes(arena, arena.Root())
}
