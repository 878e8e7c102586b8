package convert

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/simplepad/ruby-marshal-go/errors"
	"github.com/simplepad/ruby-marshal-go/marshal"
)

// Symbol marks a Go string as a symbol rather than a byte string when
// converting in either direction.
type Symbol string

// FromValue fills out, which must be a non-nil pointer, from the value graph
// rooted at h. Shared handles may be visited repeatedly; a cycle that the
// destination type cannot terminate fails with a cycle error.
func FromValue(arena *marshal.ValueArena, h marshal.ValueHandle, out any) error {
	if out == nil {
		return errors.NilPointer(nil, "nil interface")
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer {
		return errors.New(errors.PhaseConvert, errors.KindTypeMismatch).
			GoType(rv.Type().String()).
			Detail("destination must be a pointer, got %T", out).
			Build()
	}
	if rv.IsNil() {
		return errors.NilPointer(nil, rv.Type().String())
	}

	d := &graphReader{
		arena:    arena,
		visiting: make(map[marshal.ValueHandle]struct{}),
	}
	return d.read(h, rv.Elem(), nil)
}

type graphReader struct {
	arena    *marshal.ValueArena
	visiting map[marshal.ValueHandle]struct{}
}

// enter guards container recursion. Revisiting a handle already on the
// current path means the graph cycles under a destination type with no
// terminating indirection.
func (d *graphReader) enter(h marshal.ValueHandle, path []string) error {
	if _, ok := d.visiting[h]; ok {
		return errors.Cycle(errors.PhaseConvert, path)
	}
	d.visiting[h] = struct{}{}
	return nil
}

func (d *graphReader) leave(h marshal.ValueHandle) {
	delete(d.visiting, h)
}

func (d *graphReader) read(h marshal.ValueHandle, dst reflect.Value, path []string) error {
	value, ok := d.arena.Value(h)
	if !ok {
		return errors.InvalidHandle(errors.PhaseConvert, h.Index())
	}

	// A pointer destination absorbs nil; anything else allocates and
	// descends.
	if dst.Kind() == reflect.Pointer {
		if value.Kind() == marshal.KindNil {
			dst.SetZero()
			return nil
		}
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return d.read(h, dst.Elem(), path)
	}

	// An empty interface takes the generic rendering of the graph.
	if dst.Kind() == reflect.Interface && dst.NumMethod() == 0 {
		generic, err := d.readGeneric(h, path)
		if err != nil {
			return err
		}
		if generic == nil {
			dst.SetZero()
			return nil
		}
		dst.Set(reflect.ValueOf(generic))
		return nil
	}

	switch value := value.(type) {
	case *marshal.NilValue:
		dst.SetZero()
		return nil

	case *marshal.BoolValue:
		if dst.Kind() != reflect.Bool {
			return d.mismatch(dst, value, path)
		}
		dst.SetBool(value.Value)
		return nil

	case *marshal.FixnumValue:
		return d.readFixnum(value, dst, path)

	case *marshal.FloatValue:
		switch dst.Kind() {
		case reflect.Float32, reflect.Float64:
			dst.SetFloat(value.Value)
			return nil
		}
		return d.mismatch(dst, value, path)

	case *marshal.SymbolValue:
		if dst.Kind() != reflect.String {
			return d.mismatch(dst, value, path)
		}
		dst.SetString(string(value.Name))
		return nil

	case *marshal.StringValue:
		return d.readString(value.Data, dst, value, path)

	case *marshal.ArrayValue:
		return d.readArray(h, value, dst, path)

	case *marshal.HashValue:
		return d.readHash(h, value, dst, path)

	case *marshal.ObjectValue:
		return d.readObject(h, value, dst, path)

	case *marshal.UserDefinedValue:
		return d.readString(value.Data, dst, value, path)

	case *marshal.ClassValue:
		if dst.Kind() != reflect.String {
			return d.mismatch(dst, value, path)
		}
		dst.SetString(string(value.Name))
		return nil

	default:
		return errors.Unsupported(errors.PhaseConvert, value.Kind().String())
	}
}

func (d *graphReader) mismatch(dst reflect.Value, value marshal.Value, path []string) error {
	return errors.TypeMismatch(path, dst.Type().String(), value.Kind().String())
}

// unhashableKey reports a hash key, legal in the stream format, that no Go
// map can hold (an array- or hash-keyed hash).
func (d *graphReader) unhashableKey(key marshal.ValueHandle, path []string) error {
	kind := "unknown"
	if v, ok := d.arena.Value(key); ok {
		kind = v.Kind().String()
	}
	return errors.New(errors.PhaseConvert, errors.KindUnsupported).
		Path(path...).
		Detail("hash key of kind %s is not hashable as a Go map key", kind).
		Build()
}

func (d *graphReader) readFixnum(value *marshal.FixnumValue, dst reflect.Value, path []string) error {
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if dst.OverflowInt(int64(value.Value)) {
			return errors.Overflow(errors.PhaseConvert, value.Value, dst.Type().String())
		}
		dst.SetInt(int64(value.Value))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if value.Value < 0 || dst.OverflowUint(uint64(value.Value)) {
			return errors.Overflow(errors.PhaseConvert, value.Value, dst.Type().String())
		}
		dst.SetUint(uint64(value.Value))
		return nil
	case reflect.Float32, reflect.Float64:
		dst.SetFloat(float64(value.Value))
		return nil
	}
	return d.mismatch(dst, value, path)
}

func (d *graphReader) readString(data []byte, dst reflect.Value, value marshal.Value, path []string) error {
	switch {
	case dst.Kind() == reflect.String:
		dst.SetString(string(data))
		return nil
	case dst.Kind() == reflect.Slice && dst.Type().Elem().Kind() == reflect.Uint8:
		buf := make([]byte, len(data))
		copy(buf, data)
		dst.SetBytes(buf)
		return nil
	}
	return d.mismatch(dst, value, path)
}

func (d *graphReader) readArray(h marshal.ValueHandle, value *marshal.ArrayValue, dst reflect.Value, path []string) error {
	if dst.Kind() != reflect.Slice {
		return d.mismatch(dst, value, path)
	}
	if err := d.enter(h, path); err != nil {
		return err
	}
	defer d.leave(h)

	out := reflect.MakeSlice(dst.Type(), len(value.Elements), len(value.Elements))
	for i, element := range value.Elements {
		elemPath := append(path, indexSegment(i))
		if err := d.read(element, out.Index(i), elemPath); err != nil {
			return err
		}
	}
	dst.Set(out)
	return nil
}

func (d *graphReader) readHash(h marshal.ValueHandle, value *marshal.HashValue, dst reflect.Value, path []string) error {
	if dst.Kind() != reflect.Map {
		return d.mismatch(dst, value, path)
	}
	if err := d.enter(h, path); err != nil {
		return err
	}
	defer d.leave(h)

	out := reflect.MakeMapWithSize(dst.Type(), len(value.Pairs))
	keyType := dst.Type().Key()
	elemType := dst.Type().Elem()
	for i, pair := range value.Pairs {
		pairPath := append(path, indexSegment(i))
		key := reflect.New(keyType).Elem()
		if err := d.read(pair.Key, key, pairPath); err != nil {
			return err
		}
		if !key.Comparable() {
			return d.unhashableKey(pair.Key, pairPath)
		}
		elem := reflect.New(elemType).Elem()
		if err := d.read(pair.Value, elem, pairPath); err != nil {
			return err
		}
		out.SetMapIndex(key, elem)
	}
	dst.Set(out)
	return nil
}

func (d *graphReader) readObject(h marshal.ValueHandle, value *marshal.ObjectValue, dst reflect.Value, path []string) error {
	if dst.Kind() != reflect.Struct {
		return d.mismatch(dst, value, path)
	}
	if err := d.enter(h, path); err != nil {
		return err
	}
	defer d.leave(h)

	ivars := make(map[string]marshal.ValueHandle, len(value.IVars))
	for _, pair := range value.IVars {
		name, ok := marshal.Deref(d.arena, pair.Name)
		if !ok {
			return errors.InvalidHandle(errors.PhaseConvert, pair.Name.Raw().Index())
		}
		ivars[strings.TrimPrefix(string(name.Name), "@")] = pair.Value
	}

	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, tagged := fieldName(field)
		source, ok := ivars[name]
		if !ok {
			// An explicit tag names a variable the object must carry.
			if tagged {
				return errors.FieldMissing(append(path, field.Name), name)
			}
			continue
		}
		if err := d.read(source, dst.Field(i), append(path, field.Name)); err != nil {
			return err
		}
	}
	return nil
}

// readGeneric renders a graph into untyped Go values: nil, bool, int64,
// float64, Symbol, string, []byte, []any, map[any]any and map[string]any.
func (d *graphReader) readGeneric(h marshal.ValueHandle, path []string) (any, error) {
	value, ok := d.arena.Value(h)
	if !ok {
		return nil, errors.InvalidHandle(errors.PhaseConvert, h.Index())
	}

	switch value := value.(type) {
	case *marshal.NilValue:
		return nil, nil
	case *marshal.BoolValue:
		return value.Value, nil
	case *marshal.FixnumValue:
		return int64(value.Value), nil
	case *marshal.FloatValue:
		return value.Value, nil
	case *marshal.SymbolValue:
		return Symbol(value.Name), nil
	case *marshal.StringValue:
		return string(value.Data), nil
	case *marshal.ClassValue:
		return string(value.Name), nil
	case *marshal.UserDefinedValue:
		buf := make([]byte, len(value.Data))
		copy(buf, value.Data)
		return buf, nil

	case *marshal.ArrayValue:
		if err := d.enter(h, path); err != nil {
			return nil, err
		}
		defer d.leave(h)
		out := make([]any, len(value.Elements))
		for i, element := range value.Elements {
			v, err := d.readGeneric(element, append(path, indexSegment(i)))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case *marshal.HashValue:
		if err := d.enter(h, path); err != nil {
			return nil, err
		}
		defer d.leave(h)
		out := make(map[any]any, len(value.Pairs))
		for i, pair := range value.Pairs {
			pairPath := append(path, indexSegment(i))
			k, err := d.readGeneric(pair.Key, pairPath)
			if err != nil {
				return nil, err
			}
			if k != nil && !reflect.ValueOf(k).Comparable() {
				return nil, d.unhashableKey(pair.Key, pairPath)
			}
			v, err := d.readGeneric(pair.Value, pairPath)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil

	case *marshal.ObjectValue:
		if err := d.enter(h, path); err != nil {
			return nil, err
		}
		defer d.leave(h)
		out := make(map[string]any, len(value.IVars))
		for _, pair := range value.IVars {
			name, ok := marshal.Deref(d.arena, pair.Name)
			if !ok {
				return nil, errors.InvalidHandle(errors.PhaseConvert, pair.Name.Raw().Index())
			}
			key := strings.TrimPrefix(string(name.Name), "@")
			v, err := d.readGeneric(pair.Value, append(path, key))
			if err != nil {
				return nil, err
			}
			out[key] = v
		}
		return out, nil

	default:
		return nil, errors.Unsupported(errors.PhaseConvert, value.Kind().String())
	}
}

// fieldName resolves the instance-variable name a struct field binds to and
// whether it was spelled out in a tag.
func fieldName(field reflect.StructField) (string, bool) {
	tag, ok := field.Tag.Lookup("marshal")
	if !ok {
		return strings.ToLower(field.Name), false
	}
	return strings.TrimPrefix(tag, "@"), true
}

func indexSegment(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}
