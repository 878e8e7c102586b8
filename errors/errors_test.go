package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseConvert,
				Kind:   KindTypeMismatch,
				Path:   []string{"user", "address", "zip"},
				GoType: "string",
				Detail: "cannot convert",
			},
			contains: []string{"[convert]", "type_mismatch", "user.address.zip", "string", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindInvalidTag,
			},
			contains: []string{"[decode]", "invalid_tag"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseEncode,
				Kind:   KindIO,
				Detail: "write failed",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[encode]", "io", "write failed", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseDecode,
		Kind:  KindIO,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseDecode,
		Kind:  KindMissingSymbolLink,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseDecode, Kind: KindMissingSymbolLink}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Phase: PhaseEncode, Kind: KindMissingSymbolLink}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{Phase: PhaseDecode, Kind: KindMissingObjectLink}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseDecode, Kind: KindMissingSymbolLink}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseConvert, KindTypeMismatch).
		Path("user", "name").
		GoType("string").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "string", "fixnum").
		Build()

	if err.Phase != PhaseConvert {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseConvert)
	}
	if err.Kind != KindTypeMismatch {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
	}
	if len(err.Path) != 2 || err.Path[0] != "user" || err.Path[1] != "name" {
		t.Errorf("Path = %v, want [user name]", err.Path)
	}
	if err.GoType != "string" {
		t.Errorf("GoType = %q, want %q", err.GoType, "string")
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Error("Cause not preserved")
	}
	if err.Detail != "expected string, got fixnum" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		err  *Error
		kind Kind
	}{
		{InvalidVersion(3, 8), KindInvalidVersion},
		{IO(PhaseDecode, errors.New("eof")), KindIO},
		{InvalidTag('x'), KindInvalidTag},
		{InvalidHandle(PhaseEncode, 7), KindInvalidHandle},
		{InvalidFixnumSize(9), KindInvalidFixnumSize},
		{Overflow(PhaseConvert, int64(1) << 40, "int32"), KindOverflow},
		{InvalidFloat([]byte("abc"), errors.New("parse")), KindInvalidFloat},
		{InvalidUTF8(PhaseDecode, []byte{0xff}), KindInvalidUTF8},
		{MissingSymbolLink(3), KindMissingSymbolLink},
		{MissingObjectLink(5), KindMissingObjectLink},
		{UnexpectedKind(':', '0'), KindUnexpectedKind},
		{NotAnObject(PhaseDecode), KindNotAnObject},
		{DuplicateIVar(PhaseDecode, []byte("@name")), KindDuplicateIVar},
		{DepthExceeded(PhaseDecode, 10000), KindDepthExceeded},
		{TypeMismatch(nil, "int", "string"), KindTypeMismatch},
		{NilPointer(nil, "*int"), KindNilPointer},
		{FieldMissing(nil, "@name"), KindFieldMissing},
		{Cycle(PhaseConvert, nil), KindCycle},
		{Unsupported(PhaseConvert, "bignum"), KindUnsupported},
	}

	for _, tt := range tests {
		if tt.err.Kind != tt.kind {
			t.Errorf("constructor produced kind %q, want %q", tt.err.Kind, tt.kind)
		}
		if tt.err.Error() == "" {
			t.Errorf("empty error message for kind %q", tt.kind)
		}
	}
}
