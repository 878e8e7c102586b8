package marshal

// Kind identifies the variant of a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindFixnum
	KindFloat
	KindSymbol
	KindString
	KindArray
	KindHash
	KindObject
	KindUserDefined
	KindClass
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindFixnum:
		return "fixnum"
	case KindFloat:
		return "float"
	case KindSymbol:
		return "symbol"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindHash:
		return "hash"
	case KindObject:
		return "object"
	case KindUserDefined:
		return "user-defined"
	case KindClass:
		return "class"
	default:
		return "unknown"
	}
}

// Value is one node of a decoded value graph. The set of implementations is
// closed: it matches the tag set of the wire format and consumers switch
// exhaustively over it.
type Value interface {
	Kind() Kind
}

// NilValue is the nil singleton value.
type NilValue struct{}

func (*NilValue) Kind() Kind { return KindNil }

// BoolValue is a true or false value.
type BoolValue struct {
	Value bool
}

func (*BoolValue) Kind() Kind { return KindBool }

// FixnumValue is a signed 32-bit integer value.
type FixnumValue struct {
	Value int32
}

func (*FixnumValue) Kind() Kind { return KindFixnum }

// FloatValue is a double-precision float value.
type FloatValue struct {
	Value float64
}

func (*FloatValue) Kind() Kind { return KindFloat }

// SymbolValue is an interned name, distinct from a string. Symbol content is
// a raw byte string.
type SymbolValue struct {
	Name []byte
}

func (*SymbolValue) Kind() Kind { return KindSymbol }

// IVarPair is one (name, value) entry of an instance-variable table.
type IVarPair struct {
	Name  SymbolHandle
	Value ValueHandle
}

// IVarTable is an ordered instance-variable table. Duplicate symbol names
// within one table are invalid.
type IVarTable []IVarPair

// StringValue is a raw byte string, optionally carrying instance variables
// (most commonly the encoding marker). A nil IVars means no wrapper was
// present on the wire; an empty non-nil table round-trips as a wrapper with
// zero pairs.
type StringValue struct {
	Data  []byte
	IVars *IVarTable
}

func (*StringValue) Kind() Kind { return KindString }

// ArrayValue is an ordered sequence of values.
type ArrayValue struct {
	Elements []ValueHandle
}

func (*ArrayValue) Kind() Kind { return KindArray }

// HashPair is one (key, value) entry of a hash.
type HashPair struct {
	Key   ValueHandle
	Value ValueHandle
}

// HashValue is an ordered sequence of key/value pairs with an optional
// default value.
type HashValue struct {
	Pairs   []HashPair
	Default *ValueHandle
}

func (*HashValue) Kind() Kind { return KindHash }

// ObjectValue is a generic object: a class name plus its instance variables.
type ObjectValue struct {
	Name  SymbolHandle
	IVars IVarTable
}

func (*ObjectValue) Kind() Kind { return KindObject }

// UserDefinedValue is an opaque payload serialized by a user-defined
// _dump/_load pair. The payload bytes are not interpreted.
type UserDefinedValue struct {
	Name  SymbolHandle
	Data  []byte
	IVars *IVarTable
}

func (*UserDefinedValue) Kind() Kind { return KindUserDefined }

// ClassValue is a reference to a class by name.
type ClassValue struct {
	Name []byte
}

func (*ClassValue) Kind() Kind { return KindClass }
