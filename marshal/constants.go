package marshal

// Marshal stream header version. The decoder accepts major 4 with any minor
// up to 8; the encoder always writes 4.8.
const (
	MajorVersion byte = 4
	MinorVersion byte = 8
)

// Value tags identify the kind of the next value in a marshal stream.
const (
	TagNil        byte = '0' // nil
	TagTrue       byte = 'T' // true
	TagFalse      byte = 'F' // false
	TagFixnum     byte = 'i' // variable-length signed integer
	TagFloat      byte = 'f' // length-prefixed decimal/special text
	TagSymbol     byte = ':' // new symbol definition
	TagSymbolLink byte = ';' // back-reference into the symbol table
	TagObjectLink byte = '@' // back-reference into the object table
	TagIVars      byte = 'I' // instance-variables wrapper
	TagArray      byte = '[' // fixnum length, then values
	TagHash       byte = '{' // fixnum pair count, then pairs
	TagHashDef    byte = '}' // hash with trailing default value
	TagObject     byte = 'o' // symbol-like class name, then ivar table
	TagString     byte = '"' // length-prefixed byte payload
	TagUserDef    byte = 'u' // symbol-like class name, then raw payload
	TagClass      byte = 'c' // length-prefixed class name
)

// MaxDepth bounds the structural nesting of a value graph during decode and
// encode, guarding the call stack against adversarial input.
const MaxDepth = 10000
