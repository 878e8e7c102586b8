package convert

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/simplepad/ruby-marshal-go/errors"
	"github.com/simplepad/ruby-marshal-go/marshal"
)

// IntoValue builds a value graph from v inside the given arena and returns
// the root handle. Symbols are interned by content, so every occurrence of
// the same symbol text shares one handle and the graph encodes with symbol
// links the way a decoded stream would.
//
// Supported inputs: nil, bool, signed and unsigned integers, floats, string,
// Symbol, []byte, slices, arrays, maps, structs and pointers. Cyclic Go
// structures fail with a cycle error.
func IntoValue(arena *marshal.ValueArena, v any) (marshal.ValueHandle, error) {
	b := &graphBuilder{
		arena:    arena,
		symbols:  make(map[string]marshal.SymbolHandle),
		visiting: make(map[visitKey]struct{}),
	}
	return b.build(reflect.ValueOf(v), nil)
}

var symbolType = reflect.TypeOf(Symbol(""))

type visitKey struct {
	ptr uintptr
	typ reflect.Type
}

type graphBuilder struct {
	arena    *marshal.ValueArena
	symbols  map[string]marshal.SymbolHandle
	visiting map[visitKey]struct{}
}

func (b *graphBuilder) symbol(name string) marshal.SymbolHandle {
	if h, ok := b.symbols[name]; ok {
		return h
	}
	h := b.arena.CreateSymbol([]byte(name))
	b.symbols[name] = h
	return h
}

// enter guards pointer-shaped recursion. Pointers, maps and slices are the
// only Go values that can close a cycle.
func (b *graphBuilder) enter(v reflect.Value, path []string) (visitKey, error) {
	key := visitKey{ptr: v.Pointer(), typ: v.Type()}
	if _, ok := b.visiting[key]; ok {
		return visitKey{}, errors.Cycle(errors.PhaseConvert, path)
	}
	b.visiting[key] = struct{}{}
	return key, nil
}

func (b *graphBuilder) leave(key visitKey) {
	delete(b.visiting, key)
}

func (b *graphBuilder) build(v reflect.Value, path []string) (marshal.ValueHandle, error) {
	if !v.IsValid() {
		return b.arena.CreateNil().Raw(), nil
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return b.arena.CreateNil().Raw(), nil
		}
		return b.build(v.Elem(), path)

	case reflect.Pointer:
		if v.IsNil() {
			return b.arena.CreateNil().Raw(), nil
		}
		key, err := b.enter(v, path)
		if err != nil {
			return marshal.ValueHandle{}, err
		}
		defer b.leave(key)
		return b.build(v.Elem(), path)

	case reflect.Bool:
		return b.arena.CreateBool(v.Bool()).Raw(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := v.Int()
		if n < math.MinInt32 || n > math.MaxInt32 {
			return marshal.ValueHandle{}, errors.Overflow(errors.PhaseConvert, n, "fixnum")
		}
		return b.arena.CreateFixnum(int32(n)).Raw(), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n := v.Uint()
		if n > math.MaxInt32 {
			return marshal.ValueHandle{}, errors.Overflow(errors.PhaseConvert, n, "fixnum")
		}
		return b.arena.CreateFixnum(int32(n)).Raw(), nil

	case reflect.Float32, reflect.Float64:
		return b.arena.CreateFloat(v.Float()).Raw(), nil

	case reflect.String:
		if v.Type() == symbolType {
			return b.symbol(v.String()).Raw(), nil
		}
		return b.arena.CreateString([]byte(v.String())).Raw(), nil

	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			// Copied so later caller mutation cannot reach into the arena.
			return b.arena.CreateString(append([]byte(nil), v.Bytes()...)).Raw(), nil
		}
		if v.IsNil() {
			return b.arena.CreateNil().Raw(), nil
		}
		key, err := b.enter(v, path)
		if err != nil {
			return marshal.ValueHandle{}, err
		}
		defer b.leave(key)
		return b.buildSequence(v, path)

	case reflect.Array:
		return b.buildSequence(v, path)

	case reflect.Map:
		if v.IsNil() {
			return b.arena.CreateNil().Raw(), nil
		}
		key, err := b.enter(v, path)
		if err != nil {
			return marshal.ValueHandle{}, err
		}
		defer b.leave(key)
		return b.buildMap(v, path)

	case reflect.Struct:
		return b.buildStruct(v, path)

	default:
		return marshal.ValueHandle{}, errors.Unsupported(errors.PhaseConvert, v.Kind().String())
	}
}

func (b *graphBuilder) buildSequence(v reflect.Value, path []string) (marshal.ValueHandle, error) {
	elements := make([]marshal.ValueHandle, v.Len())
	for i := 0; i < v.Len(); i++ {
		h, err := b.build(v.Index(i), append(path, indexSegment(i)))
		if err != nil {
			return marshal.ValueHandle{}, err
		}
		elements[i] = h
	}
	return b.arena.CreateArray(elements).Raw(), nil
}

// buildMap emits pairs in sorted key order so the resulting graph, and
// therefore its encoding, is deterministic.
func (b *graphBuilder) buildMap(v reflect.Value, path []string) (marshal.ValueHandle, error) {
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return mapKeyOrder(keys[i]) < mapKeyOrder(keys[j])
	})

	pairs := make([]marshal.HashPair, 0, len(keys))
	for i, key := range keys {
		pairPath := append(path, indexSegment(i))
		kh, err := b.build(key, pairPath)
		if err != nil {
			return marshal.ValueHandle{}, err
		}
		vh, err := b.build(v.MapIndex(key), pairPath)
		if err != nil {
			return marshal.ValueHandle{}, err
		}
		pairs = append(pairs, marshal.HashPair{Key: kh, Value: vh})
	}
	return b.arena.CreateHash(pairs, nil).Raw(), nil
}

func (b *graphBuilder) buildStruct(v reflect.Value, path []string) (marshal.ValueHandle, error) {
	t := v.Type()
	className := t.Name()
	if className == "" {
		return marshal.ValueHandle{}, errors.Unsupported(errors.PhaseConvert, "anonymous struct")
	}

	ivars := make(marshal.IVarTable, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, _ := fieldName(field)
		h, err := b.build(v.Field(i), append(path, field.Name))
		if err != nil {
			return marshal.ValueHandle{}, err
		}
		ivars = append(ivars, marshal.IVarPair{
			Name:  b.symbol("@" + name),
			Value: h,
		})
	}
	return b.arena.CreateObject(b.symbol(className), ivars).Raw(), nil
}

// mapKeyOrder renders a map key for sorting. Keys of mixed dynamic types
// still order deterministically by their rendering. Integer keys are
// sign-flipped so negatives sort before positives.
func mapKeyOrder(key reflect.Value) string {
	if key.Kind() == reflect.Interface && !key.IsNil() {
		key = key.Elem()
	}
	switch key.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("i%020d", uint64(key.Int())^(1<<63))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("i%020d", key.Uint()^(1<<63))
	case reflect.String:
		if key.Type() == symbolType {
			return "y" + key.String()
		}
		return "s" + key.String()
	default:
		return "z" + fmt.Sprint(key.Interface())
	}
}
