package binary

import (
	"bufio"
	"io"
)

// Reader wraps an io.Reader with byte-level access and position tracking.
type Reader struct {
	r   io.ByteReader
	pos int
}

// NewReader creates a new Reader over the given stream. Readers that do not
// implement io.ByteReader are wrapped in a bufio.Reader.
func NewReader(r io.Reader) *Reader {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{r: br}
}

// Position returns the number of bytes consumed so far.
func (r *Reader) Position() int {
	return r.pos
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, err
	}
	r.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && i > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		buf[i] = b
	}
	return buf, nil
}
