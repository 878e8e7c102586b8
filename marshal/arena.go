package marshal

import (
	"bytes"

	"github.com/simplepad/ruby-marshal-go/errors"
)

// ValueHandle is an opaque reference into a ValueArena. Handles are only
// meaningful for the arena that produced them. The zero value is invalid.
type ValueHandle struct {
	idx uint32 // 1-based slot index; 0 means invalid
}

// IsValid reports whether the handle was produced by an arena creation call.
// It does not check that the handle belongs to any particular arena.
func (h ValueHandle) IsValid() bool {
	return h.idx != 0
}

// Index returns the 0-based slot index of the handle. Only valid handles have
// a meaningful index.
func (h ValueHandle) Index() int {
	return int(h.idx) - 1
}

// TypedHandle pairs a ValueHandle with a static guarantee that it addresses a
// value of variant V. The guarantee is established at the construction site
// and never re-verified: constructing one from an arbitrary handle without
// checking is the caller's responsibility.
type TypedHandle[V Value] struct {
	raw ValueHandle
}

// NewTypedHandle wraps a raw handle without checking the variant.
func NewTypedHandle[V Value](h ValueHandle) TypedHandle[V] {
	return TypedHandle[V]{raw: h}
}

// Raw returns the untyped handle.
func (h TypedHandle[V]) Raw() ValueHandle {
	return h.raw
}

// SymbolHandle addresses a SymbolValue.
type SymbolHandle = TypedHandle[*SymbolValue]

// ValueArena owns every value created during one decode, or supplied for one
// encode. Slots are created monotonically and never freed individually;
// every handle returned by a creation call stays live for the arena's
// lifetime. An arena is exclusively owned by one decode call; a fully-built
// arena is read-only during encode and may be shared by concurrent encodes.
type ValueArena struct {
	slots []Value
	root  ValueHandle
}

// NewValueArena creates an empty arena with no root.
func NewValueArena() *ValueArena {
	return &ValueArena{}
}

// Len returns the number of values in the arena.
func (a *ValueArena) Len() int {
	return len(a.slots)
}

// Root returns the designated root handle. It is invalid until a decode
// completes or ReplaceRoot is called.
func (a *ValueArena) Root() ValueHandle {
	return a.root
}

// ReplaceRoot installs h as the root and returns the previous root.
func (a *ValueArena) ReplaceRoot(h ValueHandle) ValueHandle {
	old := a.root
	a.root = h
	return old
}

// Value dereferences a handle. The second return is false for handles not
// produced by this arena.
func (a *ValueArena) Value(h ValueHandle) (Value, bool) {
	if !h.IsValid() || int(h.idx) > len(a.slots) {
		return nil, false
	}
	return a.slots[h.idx-1], true
}

// Replace overwrites the slot addressed by h, keeping the handle itself
// valid. The decoder uses this to patch placeholder slots once a container's
// children have been parsed.
func (a *ValueArena) Replace(h ValueHandle, v Value) error {
	if !h.IsValid() || int(h.idx) > len(a.slots) {
		return errors.InvalidHandle(errors.PhaseArena, h.Index())
	}
	a.slots[h.idx-1] = v
	return nil
}

// Deref dereferences a typed handle, asserting the variant guarantee. The
// second return is false if the handle is invalid or the slot does not hold
// the expected variant.
func Deref[V Value](a *ValueArena, h TypedHandle[V]) (V, bool) {
	var zero V
	v, ok := a.Value(h.raw)
	if !ok {
		return zero, false
	}
	typed, ok := v.(V)
	if !ok {
		return zero, false
	}
	return typed, true
}

func (a *ValueArena) create(v Value) ValueHandle {
	a.slots = append(a.slots, v)
	return ValueHandle{idx: uint32(len(a.slots))}
}

// CreateNil creates a nil value.
func (a *ValueArena) CreateNil() TypedHandle[*NilValue] {
	return NewTypedHandle[*NilValue](a.create(&NilValue{}))
}

// CreateBool creates a bool value.
func (a *ValueArena) CreateBool(value bool) TypedHandle[*BoolValue] {
	return NewTypedHandle[*BoolValue](a.create(&BoolValue{Value: value}))
}

// CreateFixnum creates a fixnum value.
func (a *ValueArena) CreateFixnum(value int32) TypedHandle[*FixnumValue] {
	return NewTypedHandle[*FixnumValue](a.create(&FixnumValue{Value: value}))
}

// CreateFloat creates a float value.
func (a *ValueArena) CreateFloat(value float64) TypedHandle[*FloatValue] {
	return NewTypedHandle[*FloatValue](a.create(&FloatValue{Value: value}))
}

// CreateSymbol creates a symbol value. The arena does not deduplicate symbol
// content; every call creates a fresh handle, matching how decode allocates
// one handle per symbol definition.
func (a *ValueArena) CreateSymbol(name []byte) SymbolHandle {
	return NewTypedHandle[*SymbolValue](a.create(&SymbolValue{Name: name}))
}

// CreateString creates a string value with no instance variables.
func (a *ValueArena) CreateString(data []byte) TypedHandle[*StringValue] {
	return NewTypedHandle[*StringValue](a.create(&StringValue{Data: data}))
}

// CreateArray creates an array value over the given element handles.
func (a *ValueArena) CreateArray(elements []ValueHandle) TypedHandle[*ArrayValue] {
	return NewTypedHandle[*ArrayValue](a.create(&ArrayValue{Elements: elements}))
}

// CreateHash creates a hash value. A nil defaultValue means no default.
func (a *ValueArena) CreateHash(pairs []HashPair, defaultValue *ValueHandle) TypedHandle[*HashValue] {
	return NewTypedHandle[*HashValue](a.create(&HashValue{Pairs: pairs, Default: defaultValue}))
}

// CreateObject creates a generic object value.
func (a *ValueArena) CreateObject(name SymbolHandle, ivars IVarTable) TypedHandle[*ObjectValue] {
	return NewTypedHandle[*ObjectValue](a.create(&ObjectValue{Name: name, IVars: ivars}))
}

// CreateUserDefined creates a user-defined value with an opaque payload.
func (a *ValueArena) CreateUserDefined(name SymbolHandle, data []byte) TypedHandle[*UserDefinedValue] {
	return NewTypedHandle[*UserDefinedValue](a.create(&UserDefinedValue{Name: name, Data: data}))
}

// CreateClass creates a class reference value.
func (a *ValueArena) CreateClass(name []byte) TypedHandle[*ClassValue] {
	return NewTypedHandle[*ClassValue](a.create(&ClassValue{Name: name}))
}

// ValidateIVars checks the instance-variable uniqueness invariant: no two
// pairs in one table may name the same symbol. Names are compared by symbol
// content, not handle identity.
func (a *ValueArena) ValidateIVars(phase errors.Phase, table IVarTable) error {
	for i := range table {
		name, ok := Deref(a, table[i].Name)
		if !ok {
			return errors.InvalidHandle(phase, table[i].Name.Raw().Index())
		}
		for j := 0; j < i; j++ {
			prev, ok := Deref(a, table[j].Name)
			if !ok {
				return errors.InvalidHandle(phase, table[j].Name.Raw().Index())
			}
			if bytes.Equal(prev.Name, name.Name) {
				return errors.DuplicateIVar(phase, name.Name)
			}
		}
	}
	return nil
}

// AttachIVars attaches an instance-variable table to the value addressed by
// h. Only String and UserDefined values can carry an optional table; any
// other target fails with a not-an-object error. The table is validated for
// duplicate names before attaching.
func (a *ValueArena) AttachIVars(h ValueHandle, table IVarTable) error {
	v, ok := a.Value(h)
	if !ok {
		return errors.InvalidHandle(errors.PhaseArena, h.Index())
	}
	if err := a.ValidateIVars(errors.PhaseArena, table); err != nil {
		return err
	}
	switch v := v.(type) {
	case *StringValue:
		v.IVars = &table
	case *UserDefinedValue:
		v.IVars = &table
	default:
		return errors.NotAnObject(errors.PhaseArena)
	}
	return nil
}
