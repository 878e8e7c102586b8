package marshal

import (
	"bytes"
	"io"

	"github.com/simplepad/ruby-marshal-go/errors"
	"github.com/simplepad/ruby-marshal-go/marshal/internal/binary"
)

type decoder struct {
	r     *binary.Reader
	arena *ValueArena

	// Link tables are append-only and indexed in definition order, the order
	// back-references on the wire count in.
	symbols []SymbolHandle
	objects []ValueHandle

	depth int
}

// Load decodes one marshal stream from r into a fresh arena and installs the
// decoded value tree as the arena's root. Any failure aborts the whole
// decode; there is no partial result.
func Load(r io.Reader) (*ValueArena, error) {
	d := &decoder{
		r:     binary.NewReader(r),
		arena: NewValueArena(),
	}
	if err := d.readHeader(); err != nil {
		return nil, err
	}
	root, err := d.readValue()
	if err != nil {
		return nil, err
	}
	d.arena.ReplaceRoot(root)
	return d.arena, nil
}

// LoadBytes decodes one marshal stream held in memory.
func LoadBytes(data []byte) (*ValueArena, error) {
	return Load(bytes.NewReader(data))
}

func (d *decoder) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, errors.IO(errors.PhaseDecode, err)
	}
	return b, nil
}

func (d *decoder) readHeader() error {
	major, err := d.readByte()
	if err != nil {
		return err
	}
	minor, err := d.readByte()
	if err != nil {
		return err
	}
	if major != MajorVersion || minor > MinorVersion {
		return errors.InvalidVersion(major, minor)
	}
	return nil
}

// readByteString reads a fixnum length followed by that many raw bytes.
func (d *decoder) readByteString() ([]byte, error) {
	length, err := readFixnum(d.r)
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, errors.Overflow(errors.PhaseDecode, length, "length")
	}
	data, err := d.r.ReadBytes(int(length))
	if err != nil {
		return nil, errors.IO(errors.PhaseDecode, err)
	}
	return data, nil
}

// readLinkIndex reads a fixnum back-reference index.
func (d *decoder) readLinkIndex() (int, error) {
	index, err := readFixnum(d.r)
	if err != nil {
		return 0, err
	}
	if index < 0 {
		return 0, errors.Overflow(errors.PhaseDecode, index, "link index")
	}
	return int(index), nil
}

func (d *decoder) readFloat() (ValueHandle, error) {
	text, err := d.readByteString()
	if err != nil {
		return ValueHandle{}, err
	}
	value, err := parseFloatText(text)
	if err != nil {
		return ValueHandle{}, err
	}
	handle := d.arena.CreateFloat(value).Raw()
	d.objects = append(d.objects, handle)
	return handle, nil
}

func (d *decoder) readSymbol() (SymbolHandle, error) {
	name, err := d.readByteString()
	if err != nil {
		return SymbolHandle{}, err
	}
	handle := d.arena.CreateSymbol(name)
	d.symbols = append(d.symbols, handle)
	return handle, nil
}

func (d *decoder) readSymbolLink() (SymbolHandle, error) {
	index, err := d.readLinkIndex()
	if err != nil {
		return SymbolHandle{}, err
	}
	if index >= len(d.symbols) {
		return SymbolHandle{}, errors.MissingSymbolLink(index)
	}
	return d.symbols[index], nil
}

func (d *decoder) readObjectLink() (ValueHandle, error) {
	index, err := d.readLinkIndex()
	if err != nil {
		return ValueHandle{}, err
	}
	if index >= len(d.objects) {
		return ValueHandle{}, errors.MissingObjectLink(index)
	}
	return d.objects[index], nil
}

// readSymbolLike reads the next value, failing unless it is a symbol
// definition or a symbol link.
func (d *decoder) readSymbolLike() (SymbolHandle, error) {
	tag, err := d.readByte()
	if err != nil {
		return SymbolHandle{}, err
	}
	switch tag {
	case TagSymbol:
		return d.readSymbol()
	case TagSymbolLink:
		return d.readSymbolLink()
	default:
		return SymbolHandle{}, errors.UnexpectedKind(TagSymbol, tag)
	}
}

func (d *decoder) readIVars() (IVarTable, error) {
	numPairs, err := readFixnum(d.r)
	if err != nil {
		return nil, err
	}
	if numPairs < 0 {
		return nil, errors.Overflow(errors.PhaseDecode, numPairs, "pair count")
	}

	table := make(IVarTable, 0, numPairs)
	for i := int32(0); i < numPairs; i++ {
		name, err := d.readSymbolLike()
		if err != nil {
			return nil, err
		}
		value, err := d.readValue()
		if err != nil {
			return nil, err
		}
		table = append(table, IVarPair{Name: name, Value: value})
	}
	if err := d.arena.ValidateIVars(errors.PhaseDecode, table); err != nil {
		return nil, err
	}
	return table, nil
}

// Container reads reserve an arena slot and an object-link entry before
// parsing children, so a child back-reference can point at the container
// still under construction. The placeholder is patched in place afterwards,
// keeping the same handle.

func (d *decoder) readArray() (ValueHandle, error) {
	handle := d.arena.CreateNil().Raw()
	d.objects = append(d.objects, handle)

	length, err := readFixnum(d.r)
	if err != nil {
		return ValueHandle{}, err
	}
	if length < 0 {
		return ValueHandle{}, errors.Overflow(errors.PhaseDecode, length, "length")
	}

	elements := make([]ValueHandle, 0, length)
	for i := int32(0); i < length; i++ {
		element, err := d.readValue()
		if err != nil {
			return ValueHandle{}, err
		}
		elements = append(elements, element)
	}

	if err := d.arena.Replace(handle, &ArrayValue{Elements: elements}); err != nil {
		return ValueHandle{}, err
	}
	return handle, nil
}

func (d *decoder) readHash(hasDefault bool) (ValueHandle, error) {
	handle := d.arena.CreateNil().Raw()
	d.objects = append(d.objects, handle)

	numPairs, err := readFixnum(d.r)
	if err != nil {
		return ValueHandle{}, err
	}
	if numPairs < 0 {
		return ValueHandle{}, errors.Overflow(errors.PhaseDecode, numPairs, "pair count")
	}

	pairs := make([]HashPair, 0, numPairs)
	for i := int32(0); i < numPairs; i++ {
		key, err := d.readValue()
		if err != nil {
			return ValueHandle{}, err
		}
		value, err := d.readValue()
		if err != nil {
			return ValueHandle{}, err
		}
		pairs = append(pairs, HashPair{Key: key, Value: value})
	}

	var defaultValue *ValueHandle
	if hasDefault {
		v, err := d.readValue()
		if err != nil {
			return ValueHandle{}, err
		}
		defaultValue = &v
	}

	if err := d.arena.Replace(handle, &HashValue{Pairs: pairs, Default: defaultValue}); err != nil {
		return ValueHandle{}, err
	}
	return handle, nil
}

func (d *decoder) readObject() (ValueHandle, error) {
	handle := d.arena.CreateNil().Raw()
	d.objects = append(d.objects, handle)

	name, err := d.readSymbolLike()
	if err != nil {
		return ValueHandle{}, err
	}
	ivars, err := d.readIVars()
	if err != nil {
		return ValueHandle{}, err
	}

	if err := d.arena.Replace(handle, &ObjectValue{Name: name, IVars: ivars}); err != nil {
		return ValueHandle{}, err
	}
	return handle, nil
}

func (d *decoder) readString() (ValueHandle, error) {
	data, err := d.readByteString()
	if err != nil {
		return ValueHandle{}, err
	}
	handle := d.arena.CreateString(data).Raw()
	d.objects = append(d.objects, handle)
	return handle, nil
}

func (d *decoder) readUserDefined() (ValueHandle, error) {
	name, err := d.readSymbolLike()
	if err != nil {
		return ValueHandle{}, err
	}
	data, err := d.readByteString()
	if err != nil {
		return ValueHandle{}, err
	}
	handle := d.arena.CreateUserDefined(name, data).Raw()
	d.objects = append(d.objects, handle)
	return handle, nil
}

func (d *decoder) readClass() (ValueHandle, error) {
	name, err := d.readByteString()
	if err != nil {
		return ValueHandle{}, err
	}
	handle := d.arena.CreateClass(name).Raw()
	d.objects = append(d.objects, handle)
	return handle, nil
}

func (d *decoder) readValue() (ValueHandle, error) {
	if d.depth >= MaxDepth {
		return ValueHandle{}, errors.DepthExceeded(errors.PhaseDecode, MaxDepth)
	}
	d.depth++
	defer func() { d.depth-- }()

	tag, err := d.readByte()
	if err != nil {
		return ValueHandle{}, err
	}

	switch tag {
	case TagNil:
		return d.arena.CreateNil().Raw(), nil
	case TagTrue:
		return d.arena.CreateBool(true).Raw(), nil
	case TagFalse:
		return d.arena.CreateBool(false).Raw(), nil
	case TagFixnum:
		value, err := readFixnum(d.r)
		if err != nil {
			return ValueHandle{}, err
		}
		return d.arena.CreateFixnum(value).Raw(), nil
	case TagFloat:
		return d.readFloat()
	case TagSymbol:
		handle, err := d.readSymbol()
		if err != nil {
			return ValueHandle{}, err
		}
		return handle.Raw(), nil
	case TagSymbolLink:
		handle, err := d.readSymbolLink()
		if err != nil {
			return ValueHandle{}, err
		}
		return handle.Raw(), nil
	case TagObjectLink:
		return d.readObjectLink()
	case TagIVars:
		target, err := d.readValue()
		if err != nil {
			return ValueHandle{}, err
		}
		ivars, err := d.readIVars()
		if err != nil {
			return ValueHandle{}, err
		}
		if err := d.arena.AttachIVars(target, ivars); err != nil {
			return ValueHandle{}, err
		}
		return target, nil
	case TagArray:
		return d.readArray()
	case TagHash:
		return d.readHash(false)
	case TagHashDef:
		return d.readHash(true)
	case TagObject:
		return d.readObject()
	case TagString:
		return d.readString()
	case TagUserDef:
		return d.readUserDefined()
	case TagClass:
		return d.readClass()
	default:
		return ValueHandle{}, errors.InvalidTag(tag)
	}
}
