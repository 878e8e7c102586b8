package marshal

import (
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/simplepad/ruby-marshal-go/errors"
	"github.com/simplepad/ruby-marshal-go/marshal/internal/binary"
)

// Fixnum wire form: one length/sign byte, then zero to four payload bytes.
// Values -123..122 pack into the length byte itself (offset by ±5); larger
// magnitudes write a byte count marker followed by that many little-endian
// two's-complement bytes.

func readFixnum(r *binary.Reader) (int32, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, errors.IO(errors.PhaseDecode, err)
	}
	if b == 0 {
		return 0, nil
	}

	signed := int8(b)
	if signed > 0 {
		if signed > 4 {
			return int32(signed) - 5, nil
		}
		n := int(signed)
		if n > 4 {
			return 0, errors.InvalidFixnumSize(b)
		}
		var v int32
		for i := 0; i < n; i++ {
			c, err := r.ReadByte()
			if err != nil {
				return 0, errors.IO(errors.PhaseDecode, err)
			}
			v |= int32(c) << (8 * i)
		}
		return v, nil
	}

	if signed < -4 {
		return int32(signed) + 5, nil
	}
	n := int(-signed)
	if n > 4 {
		return 0, errors.InvalidFixnumSize(byte(n))
	}
	// Start from all-ones and clear each byte position before OR-ing, which
	// sign-extends correctly for counts shorter than four.
	v := int32(-1)
	for i := 0; i < n; i++ {
		c, err := r.ReadByte()
		if err != nil {
			return 0, errors.IO(errors.PhaseDecode, err)
		}
		v &^= int32(0xFF) << (8 * i)
		v |= int32(c) << (8 * i)
	}
	return v, nil
}

// writeFixnum emits the minimal encoding for v, the same one a decoder
// round-trip would produce.
func writeFixnum(w *binary.Writer, v int32) {
	switch {
	case v == 0:
		w.Byte(0)
	case v > 0 && v < 123:
		w.Byte(byte(v + 5))
	case v < 0 && v > -124:
		w.Byte(byte(v - 5))
	default:
		wide := int64(v)
		n := 1
		for ; n < 4; n++ {
			if shifted := wide >> (8 * n); shifted == 0 || shifted == -1 {
				break
			}
		}
		if v > 0 {
			w.Byte(byte(n))
		} else {
			w.Byte(byte(-n))
		}
		for i := 0; i < n; i++ {
			w.Byte(byte(wide >> (8 * i)))
		}
	}
}

// Float wire form: a length-prefixed byte string. Three literal strings name
// the special doubles; everything else is decimal text.

func parseFloatText(text []byte) (float64, error) {
	switch string(text) {
	case "nan":
		return math.NaN(), nil
	case "inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}
	if !utf8.Valid(text) {
		return 0, errors.InvalidUTF8(errors.PhaseDecode, text)
	}
	v, err := strconv.ParseFloat(string(text), 64)
	if err != nil {
		return 0, errors.InvalidFloat(text, err)
	}
	return v, nil
}

func formatFloat(v float64) []byte {
	switch {
	case math.IsNaN(v):
		return []byte("nan")
	case math.IsInf(v, 1):
		return []byte("inf")
	case math.IsInf(v, -1):
		return []byte("-inf")
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64)
}
