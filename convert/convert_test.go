package convert_test

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/simplepad/ruby-marshal-go/convert"
	rmerrors "github.com/simplepad/ruby-marshal-go/errors"
	"github.com/simplepad/ruby-marshal-go/marshal"
)

func mustKind(t *testing.T, err error, kind rmerrors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	var rmErr *rmerrors.Error
	if !stderrors.As(err, &rmErr) {
		t.Fatalf("expected structured error, got %T: %v", err, err)
	}
	if rmErr.Kind != kind {
		t.Fatalf("expected kind %s, got %s: %v", kind, rmErr.Kind, err)
	}
}

func TestFromValueScalars(t *testing.T) {
	arena := marshal.NewValueArena()

	t.Run("bool", func(t *testing.T) {
		var got bool
		if err := convert.FromValue(arena, arena.CreateBool(true).Raw(), &got); err != nil {
			t.Fatalf("FromValue: %v", err)
		}
		if !got {
			t.Fatal("got false, want true")
		}
	})

	t.Run("fixnum into int", func(t *testing.T) {
		var got int
		if err := convert.FromValue(arena, arena.CreateFixnum(-42).Raw(), &got); err != nil {
			t.Fatalf("FromValue: %v", err)
		}
		if got != -42 {
			t.Fatalf("got %d, want -42", got)
		}
	})

	t.Run("fixnum overflow", func(t *testing.T) {
		var got int8
		err := convert.FromValue(arena, arena.CreateFixnum(1000).Raw(), &got)
		mustKind(t, err, rmerrors.KindOverflow)
	})

	t.Run("negative fixnum into uint", func(t *testing.T) {
		var got uint
		err := convert.FromValue(arena, arena.CreateFixnum(-1).Raw(), &got)
		mustKind(t, err, rmerrors.KindOverflow)
	})

	t.Run("float", func(t *testing.T) {
		var got float64
		if err := convert.FromValue(arena, arena.CreateFloat(2.5).Raw(), &got); err != nil {
			t.Fatalf("FromValue: %v", err)
		}
		if got != 2.5 {
			t.Fatalf("got %v, want 2.5", got)
		}
	})

	t.Run("string", func(t *testing.T) {
		var got string
		if err := convert.FromValue(arena, arena.CreateString([]byte("hi")).Raw(), &got); err != nil {
			t.Fatalf("FromValue: %v", err)
		}
		if got != "hi" {
			t.Fatalf("got %q, want hi", got)
		}
	})

	t.Run("string into bytes", func(t *testing.T) {
		var got []byte
		if err := convert.FromValue(arena, arena.CreateString([]byte{1, 2}).Raw(), &got); err != nil {
			t.Fatalf("FromValue: %v", err)
		}
		if !bytes.Equal(got, []byte{1, 2}) {
			t.Fatalf("got %x, want 0102", got)
		}
	})

	t.Run("symbol", func(t *testing.T) {
		var got string
		if err := convert.FromValue(arena, arena.CreateSymbol([]byte("name")).Raw(), &got); err != nil {
			t.Fatalf("FromValue: %v", err)
		}
		if got != "name" {
			t.Fatalf("got %q, want name", got)
		}
	})

	t.Run("nil into pointer", func(t *testing.T) {
		got := new(int)
		if err := convert.FromValue(arena, arena.CreateNil().Raw(), &got); err != nil {
			t.Fatalf("FromValue: %v", err)
		}
		if got != nil {
			t.Fatal("nil value should clear the pointer")
		}
	})

	t.Run("mismatch", func(t *testing.T) {
		var got bool
		err := convert.FromValue(arena, arena.CreateString([]byte("no")).Raw(), &got)
		mustKind(t, err, rmerrors.KindTypeMismatch)
	})

	t.Run("non-pointer destination", func(t *testing.T) {
		var got int
		err := convert.FromValue(arena, arena.CreateFixnum(1).Raw(), got)
		mustKind(t, err, rmerrors.KindTypeMismatch)
	})

	t.Run("nil destination", func(t *testing.T) {
		err := convert.FromValue(arena, arena.CreateFixnum(1).Raw(), nil)
		mustKind(t, err, rmerrors.KindNilPointer)
	})
}

func TestFromValueContainers(t *testing.T) {
	t.Run("array into slice", func(t *testing.T) {
		arena := marshal.NewValueArena()
		root := arena.CreateArray([]marshal.ValueHandle{
			arena.CreateFixnum(1).Raw(),
			arena.CreateFixnum(2).Raw(),
			arena.CreateFixnum(3).Raw(),
		}).Raw()

		var got []int
		if err := convert.FromValue(arena, root, &got); err != nil {
			t.Fatalf("FromValue: %v", err)
		}
		if diff := cmp.Diff([]int{1, 2, 3}, got); diff != "" {
			t.Fatalf("slice mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("hash into map", func(t *testing.T) {
		arena := marshal.NewValueArena()
		root := arena.CreateHash([]marshal.HashPair{
			{Key: arena.CreateString([]byte("a")).Raw(), Value: arena.CreateFixnum(1).Raw()},
			{Key: arena.CreateString([]byte("b")).Raw(), Value: arena.CreateFixnum(2).Raw()},
		}, nil).Raw()

		var got map[string]int
		if err := convert.FromValue(arena, root, &got); err != nil {
			t.Fatalf("FromValue: %v", err)
		}
		if diff := cmp.Diff(map[string]int{"a": 1, "b": 2}, got); diff != "" {
			t.Fatalf("map mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("array-keyed hash", func(t *testing.T) {
		// {[1] => 2}: legal on the wire, but no Go map can hold the key.
		stream := []byte{4, 8, '{', 0x06, '[', 0x06, 'i', 0x06, 'i', 0x07}
		arena, err := marshal.LoadBytes(stream)
		if err != nil {
			t.Fatalf("LoadBytes: %v", err)
		}

		var generic any
		err = convert.FromValue(arena, arena.Root(), &generic)
		mustKind(t, err, rmerrors.KindUnsupported)

		var typed map[any]any
		err = convert.FromValue(arena, arena.Root(), &typed)
		mustKind(t, err, rmerrors.KindUnsupported)
	})

	t.Run("cycle under non-pointer type", func(t *testing.T) {
		arena := marshal.NewValueArena()
		h := arena.CreateNil().Raw()
		if err := arena.Replace(h, &marshal.ArrayValue{Elements: []marshal.ValueHandle{h}}); err != nil {
			t.Fatalf("Replace: %v", err)
		}
		var got []any
		err := convert.FromValue(arena, h, &got)
		mustKind(t, err, rmerrors.KindCycle)
	})

	t.Run("shared handle decoded twice", func(t *testing.T) {
		arena := marshal.NewValueArena()
		shared := arena.CreateString([]byte("s")).Raw()
		root := arena.CreateArray([]marshal.ValueHandle{shared, shared}).Raw()

		var got []string
		if err := convert.FromValue(arena, root, &got); err != nil {
			t.Fatalf("FromValue: %v", err)
		}
		if diff := cmp.Diff([]string{"s", "s"}, got); diff != "" {
			t.Fatalf("slice mismatch (-want +got):\n%s", diff)
		}
	})
}

type person struct {
	Name string `marshal:"name"`
	Age  int
}

func TestFromValueStruct(t *testing.T) {
	buildPerson := func(t *testing.T, withAge bool) (*marshal.ValueArena, marshal.ValueHandle) {
		t.Helper()
		arena := marshal.NewValueArena()
		ivars := marshal.IVarTable{
			{Name: arena.CreateSymbol([]byte("@name")), Value: arena.CreateString([]byte("ada")).Raw()},
		}
		if withAge {
			ivars = append(ivars, marshal.IVarPair{
				Name:  arena.CreateSymbol([]byte("@age")),
				Value: arena.CreateFixnum(36).Raw(),
			})
		}
		root := arena.CreateObject(arena.CreateSymbol([]byte("Person")), ivars).Raw()
		return arena, root
	}

	t.Run("fields bind by tag and name", func(t *testing.T) {
		arena, root := buildPerson(t, true)
		var got person
		if err := convert.FromValue(arena, root, &got); err != nil {
			t.Fatalf("FromValue: %v", err)
		}
		if diff := cmp.Diff(person{Name: "ada", Age: 36}, got); diff != "" {
			t.Fatalf("struct mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("untagged field may be absent", func(t *testing.T) {
		arena, root := buildPerson(t, false)
		var got person
		if err := convert.FromValue(arena, root, &got); err != nil {
			t.Fatalf("FromValue: %v", err)
		}
		if got.Age != 0 {
			t.Fatalf("absent ivar should leave zero value, got %d", got.Age)
		}
	})

	t.Run("tagged field must be present", func(t *testing.T) {
		arena := marshal.NewValueArena()
		root := arena.CreateObject(arena.CreateSymbol([]byte("Person")), nil).Raw()
		var got person
		err := convert.FromValue(arena, root, &got)
		mustKind(t, err, rmerrors.KindFieldMissing)
	})
}

func TestFromValueGeneric(t *testing.T) {
	// Decode a full stream into any and check the generic rendering.
	stream := []byte{
		4, 8, '{', 0x06,
		':', 0x06, 'k',
		'[', 0x07, 'i', 0x06, '"', 0x07, 'h', 'i',
	}
	arena, err := marshal.LoadBytes(stream)
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}

	var got any
	if err := convert.FromValue(arena, arena.Root(), &got); err != nil {
		t.Fatalf("FromValue: %v", err)
	}
	want := map[any]any{
		convert.Symbol("k"): []any{int64(1), "hi"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("generic mismatch (-want +got):\n%s", diff)
	}
}

func TestIntoValueScalars(t *testing.T) {
	arena := marshal.NewValueArena()

	tests := []struct {
		name string
		in   any
		want marshal.Kind
	}{
		{"nil", nil, marshal.KindNil},
		{"bool", true, marshal.KindBool},
		{"int", 7, marshal.KindFixnum},
		{"float", 2.5, marshal.KindFloat},
		{"string", "hi", marshal.KindString},
		{"symbol", convert.Symbol("hi"), marshal.KindSymbol},
		{"bytes", []byte{1, 2}, marshal.KindString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := convert.IntoValue(arena, tt.in)
			if err != nil {
				t.Fatalf("IntoValue: %v", err)
			}
			v, ok := arena.Value(h)
			if !ok {
				t.Fatal("returned handle did not dereference")
			}
			if v.Kind() != tt.want {
				t.Fatalf("got kind %s, want %s", v.Kind(), tt.want)
			}
		})
	}
}

func TestIntoValueOverflow(t *testing.T) {
	arena := marshal.NewValueArena()
	_, err := convert.IntoValue(arena, int64(1)<<40)
	mustKind(t, err, rmerrors.KindOverflow)
}

func TestIntoValueSymbolInterning(t *testing.T) {
	// Equal symbol text shares one handle, so the encoding uses a link.
	arena := marshal.NewValueArena()
	root, err := convert.IntoValue(arena, []any{convert.Symbol("foo"), convert.Symbol("foo")})
	if err != nil {
		t.Fatalf("IntoValue: %v", err)
	}

	data, err := marshal.DumpBytes(arena, root)
	if err != nil {
		t.Fatalf("DumpBytes: %v", err)
	}
	want := []byte{4, 8, '[', 0x07, ':', 0x08, 'f', 'o', 'o', ';', 0x00}
	if !bytes.Equal(data, want) {
		t.Fatalf("got %x, want %x", data, want)
	}
}

func TestIntoValueCopiesBytes(t *testing.T) {
	arena := marshal.NewValueArena()
	in := []byte{1, 2}
	h, err := convert.IntoValue(arena, in)
	if err != nil {
		t.Fatalf("IntoValue: %v", err)
	}

	in[0] = 9
	v, ok := arena.Value(h)
	if !ok {
		t.Fatal("returned handle did not dereference")
	}
	if got := v.(*marshal.StringValue).Data; !bytes.Equal(got, []byte{1, 2}) {
		t.Fatalf("stored bytes changed with the caller's slice: %x", got)
	}
}

func TestIntoValueCycle(t *testing.T) {
	type node struct {
		Next *node
	}
	n := &node{}
	n.Next = n

	arena := marshal.NewValueArena()
	_, err := convert.IntoValue(arena, n)
	mustKind(t, err, rmerrors.KindCycle)
}

func TestIntoValueRoundTrip(t *testing.T) {
	in := person{Name: "ada", Age: 36}

	arena := marshal.NewValueArena()
	root, err := convert.IntoValue(arena, in)
	if err != nil {
		t.Fatalf("IntoValue: %v", err)
	}

	data, err := marshal.DumpBytes(arena, root)
	if err != nil {
		t.Fatalf("DumpBytes: %v", err)
	}

	decoded, err := marshal.LoadBytes(data)
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	var got person
	if err := convert.FromValue(decoded, decoded.Root(), &got); err != nil {
		t.Fatalf("FromValue: %v", err)
	}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}
