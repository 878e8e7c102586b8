package marshal

import (
	"io"
	"math"

	"github.com/simplepad/ruby-marshal-go/errors"
	"github.com/simplepad/ruby-marshal-go/marshal/internal/binary"
)

type encoder struct {
	w     *binary.Writer
	arena *ValueArena

	// Link tables mirror the decoder's: indices are assigned in exactly the
	// order a decoder reading the produced bytes would assign them, keyed by
	// handle identity. Two distinct handles with equal content each get their
	// own definition; only revisiting the same handle emits a back-reference.
	symbols map[ValueHandle]int32
	objects map[ValueHandle]int32

	depth int
}

// Dump serializes the arena's root value to w, reproducing the byte stream a
// decode of the same content came from exactly, including the back-reference
// table layout. The arena is not mutated.
func Dump(w io.Writer, arena *ValueArena) error {
	return DumpHandle(w, arena, arena.Root())
}

// DumpHandle serializes the value tree rooted at the given handle.
func DumpHandle(w io.Writer, arena *ValueArena, root ValueHandle) error {
	data, err := DumpBytes(arena, root)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return errors.IO(errors.PhaseEncode, err)
	}
	return nil
}

// DumpBytes serializes the value tree rooted at the given handle to memory.
func DumpBytes(arena *ValueArena, root ValueHandle) ([]byte, error) {
	e := &encoder{
		w:       binary.NewWriter(),
		arena:   arena,
		symbols: make(map[ValueHandle]int32),
		objects: make(map[ValueHandle]int32),
	}
	e.w.Byte(MajorVersion)
	e.w.Byte(MinorVersion)
	if err := e.writeValue(root); err != nil {
		return nil, err
	}
	return e.w.Bytes(), nil
}

// writeCount emits a non-negative length or pair count as a fixnum.
func (e *encoder) writeCount(n int) error {
	if n > math.MaxInt32 {
		return errors.Overflow(errors.PhaseEncode, n, "fixnum")
	}
	writeFixnum(e.w, int32(n))
	return nil
}

func (e *encoder) writeByteString(data []byte) error {
	if err := e.writeCount(len(data)); err != nil {
		return err
	}
	e.w.WriteBytes(data)
	return nil
}

// writeObjectLink emits an object back-reference if h was already
// serialized; otherwise it assigns h the next object-table index and reports
// that the full content still has to be written. Assignment happens before
// any children are visited, mirroring the decoder's placeholder-first order.
func (e *encoder) writeObjectLink(h ValueHandle) bool {
	if index, ok := e.objects[h]; ok {
		e.w.Byte(TagObjectLink)
		writeFixnum(e.w, index)
		return true
	}
	e.objects[h] = int32(len(e.objects))
	return false
}

// writeSymbol emits a symbol definition on first encounter and a symbol link
// after that. The symbol table numbers independently of the object table.
func (e *encoder) writeSymbol(h SymbolHandle) error {
	raw := h.Raw()
	if index, ok := e.symbols[raw]; ok {
		e.w.Byte(TagSymbolLink)
		writeFixnum(e.w, index)
		return nil
	}
	symbol, ok := Deref(e.arena, h)
	if !ok {
		return errors.InvalidHandle(errors.PhaseEncode, raw.Index())
	}
	e.symbols[raw] = int32(len(e.symbols))
	e.w.Byte(TagSymbol)
	return e.writeByteString(symbol.Name)
}

func (e *encoder) writeIVars(table IVarTable) error {
	if err := e.writeCount(len(table)); err != nil {
		return err
	}
	for _, pair := range table {
		if err := e.writeSymbol(pair.Name); err != nil {
			return err
		}
		if err := e.writeValue(pair.Value); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) writeValue(h ValueHandle) error {
	if e.depth >= MaxDepth {
		return errors.DepthExceeded(errors.PhaseEncode, MaxDepth)
	}
	e.depth++
	defer func() { e.depth-- }()

	value, ok := e.arena.Value(h)
	if !ok {
		return errors.InvalidHandle(errors.PhaseEncode, h.Index())
	}

	switch value := value.(type) {
	// Nil, bools and fixnums have no back-reference identity: they are
	// always emitted in full and never enter the object table.
	case *NilValue:
		e.w.Byte(TagNil)
		return nil
	case *BoolValue:
		if value.Value {
			e.w.Byte(TagTrue)
		} else {
			e.w.Byte(TagFalse)
		}
		return nil
	case *FixnumValue:
		e.w.Byte(TagFixnum)
		writeFixnum(e.w, value.Value)
		return nil

	case *SymbolValue:
		return e.writeSymbol(NewTypedHandle[*SymbolValue](h))

	case *FloatValue:
		if e.writeObjectLink(h) {
			return nil
		}
		e.w.Byte(TagFloat)
		return e.writeByteString(formatFloat(value.Value))

	case *StringValue:
		if e.writeObjectLink(h) {
			return nil
		}
		if value.IVars != nil {
			e.w.Byte(TagIVars)
		}
		e.w.Byte(TagString)
		if err := e.writeByteString(value.Data); err != nil {
			return err
		}
		if value.IVars != nil {
			return e.writeIVars(*value.IVars)
		}
		return nil

	case *ArrayValue:
		if e.writeObjectLink(h) {
			return nil
		}
		e.w.Byte(TagArray)
		if err := e.writeCount(len(value.Elements)); err != nil {
			return err
		}
		for _, element := range value.Elements {
			if err := e.writeValue(element); err != nil {
				return err
			}
		}
		return nil

	case *HashValue:
		if e.writeObjectLink(h) {
			return nil
		}
		if value.Default != nil {
			e.w.Byte(TagHashDef)
		} else {
			e.w.Byte(TagHash)
		}
		if err := e.writeCount(len(value.Pairs)); err != nil {
			return err
		}
		for _, pair := range value.Pairs {
			if err := e.writeValue(pair.Key); err != nil {
				return err
			}
			if err := e.writeValue(pair.Value); err != nil {
				return err
			}
		}
		if value.Default != nil {
			return e.writeValue(*value.Default)
		}
		return nil

	case *ObjectValue:
		if e.writeObjectLink(h) {
			return nil
		}
		e.w.Byte(TagObject)
		if err := e.writeSymbol(value.Name); err != nil {
			return err
		}
		return e.writeIVars(value.IVars)

	case *UserDefinedValue:
		if e.writeObjectLink(h) {
			return nil
		}
		if value.IVars != nil {
			e.w.Byte(TagIVars)
		}
		e.w.Byte(TagUserDef)
		if err := e.writeSymbol(value.Name); err != nil {
			return err
		}
		if err := e.writeByteString(value.Data); err != nil {
			return err
		}
		if value.IVars != nil {
			return e.writeIVars(*value.IVars)
		}
		return nil

	case *ClassValue:
		if e.writeObjectLink(h) {
			return nil
		}
		e.w.Byte(TagClass)
		return e.writeByteString(value.Name)

	default:
		return errors.Unsupported(errors.PhaseEncode, "value kind: "+value.Kind().String())
	}
}
