package inspect_test

import (
	stderrors "errors"
	"testing"

	"go.uber.org/zap"

	rmerrors "github.com/simplepad/ruby-marshal-go/errors"
	"github.com/simplepad/ruby-marshal-go/inspect"
	"github.com/simplepad/ruby-marshal-go/marshal"
)

func TestRenderScalars(t *testing.T) {
	arena := marshal.NewValueArena()
	root := arena.CreateArray([]marshal.ValueHandle{
		arena.CreateFixnum(1).Raw(),
		arena.CreateString([]byte("hi")).Raw(),
		arena.CreateSymbol([]byte("foo")).Raw(),
		arena.CreateNil().Raw(),
		arena.CreateBool(true).Raw(),
	}).Raw()

	got, err := inspect.RenderHandle(arena, root)
	if err != nil {
		t.Fatalf("RenderHandle: %v", err)
	}
	want := `Array#0 (5)
  [0] Fixnum(1)
  [1] String#1 "hi"
  [2] Symbol(:foo)
  [3] nil
  [4] true
`
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderCycle(t *testing.T) {
	arena := marshal.NewValueArena()
	h := arena.CreateNil().Raw()
	if err := arena.Replace(h, &marshal.ArrayValue{Elements: []marshal.ValueHandle{h}}); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	got, err := inspect.RenderHandle(arena, h)
	if err != nil {
		t.Fatalf("RenderHandle: %v", err)
	}
	want := "Array#0 (1)\n  [0] ^0\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderSharedValue(t *testing.T) {
	arena := marshal.NewValueArena()
	s := arena.CreateString([]byte("s")).Raw()
	root := arena.CreateArray([]marshal.ValueHandle{s, s}).Raw()

	got, err := inspect.RenderHandle(arena, root)
	if err != nil {
		t.Fatalf("RenderHandle: %v", err)
	}
	want := "Array#0 (2)\n  [0] String#1 \"s\"\n  [1] ^1\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderHash(t *testing.T) {
	arena := marshal.NewValueArena()
	def := arena.CreateNil().Raw()
	root := arena.CreateHash([]marshal.HashPair{
		{Key: arena.CreateFixnum(1).Raw(), Value: arena.CreateFixnum(2).Raw()},
	}, &def).Raw()

	got, err := inspect.RenderHandle(arena, root)
	if err != nil {
		t.Fatalf("RenderHandle: %v", err)
	}
	want := "Hash#0 (1)\n  Fixnum(1) => Fixnum(2)\n  default: nil\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderObject(t *testing.T) {
	arena := marshal.NewValueArena()
	root := arena.CreateObject(arena.CreateSymbol([]byte("Person")), marshal.IVarTable{
		{Name: arena.CreateSymbol([]byte("@name")), Value: arena.CreateString([]byte("ada")).Raw()},
	}).Raw()

	got, err := inspect.RenderHandle(arena, root)
	if err != nil {
		t.Fatalf("RenderHandle: %v", err)
	}
	want := "Object#0 Person\n  @name: String#1 \"ada\"\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderInvalidHandle(t *testing.T) {
	arena := marshal.NewValueArena()
	_, err := inspect.Render(arena)
	if err == nil {
		t.Fatal("expected an error for an arena with no root")
	}
	var rmErr *rmerrors.Error
	if !stderrors.As(err, &rmErr) || rmErr.Kind != rmerrors.KindInvalidHandle {
		t.Fatalf("expected invalid_handle, got %v", err)
	}
}

func TestLogger(t *testing.T) {
	if inspect.Logger() == nil {
		t.Fatal("default logger should not be nil")
	}

	custom := zap.NewNop()
	inspect.SetLogger(custom)
	if inspect.Logger() != custom {
		t.Fatal("SetLogger did not install the logger")
	}

	inspect.SetLogger(nil)
	if inspect.Logger() == nil {
		t.Fatal("resetting should restore the no-op logger")
	}
}
