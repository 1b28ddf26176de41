package payload

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const lengthSize = 8

// wireWriter writes the length-prefixed primitives shared by every
// generation.
type wireWriter struct {
	buf bytes.Buffer
}

func (w *wireWriter) uint64(v uint64) {
	var b [lengthSize]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *wireWriter) field(b []byte) {
	w.uint64(uint64(len(b)))
	w.buf.Write(b)
}

func (w *wireWriter) array(items [][]byte) {
	w.uint64(uint64(len(items)))
	for _, it := range items {
		w.field(it)
	}
}

func (w *wireWriter) bytes() []byte {
	return w.buf.Bytes()
}

// wireReader reads the primitives written by wireWriter. Every read is bounds
// checked against the remaining input, so that a corrupt length prefix fails
// with a DecodeFormatError instead of a panic or a huge allocation.
type wireReader struct {
	data []byte
	off  int
}

func (r *wireReader) remaining() int {
	return len(r.data) - r.off
}

func (r *wireReader) fail(format string, args ...interface{}) error {
	return &DecodeFormatError{Offset: r.off, Reason: fmt.Sprintf(format, args...)}
}

func (r *wireReader) uint64(what string) (uint64, error) {
	if r.remaining() < lengthSize {
		return 0, r.fail("truncated %s", what)
	}
	v := binary.BigEndian.Uint64(r.data[r.off:])
	r.off += lengthSize
	return v, nil
}

func (r *wireReader) field(what string) ([]byte, error) {
	size, err := r.uint64(what + " length")
	if err != nil {
		return nil, err
	}
	if size > uint64(r.remaining()) {
		return nil, r.fail("%s length %d exceeds remaining %d bytes", what, size, r.remaining())
	}
	res := make([]byte, size)
	copy(res, r.data[r.off:])
	r.off += int(size)
	return res, nil
}

func (r *wireReader) array(what string) ([][]byte, error) {
	count, err := r.uint64(what + " count")
	if err != nil {
		return nil, err
	}
	// every element carries at least its own length prefix
	if count > uint64(r.remaining()/lengthSize) {
		return nil, r.fail("%s count %d exceeds remaining input", what, count)
	}
	res := make([][]byte, 0, count)
	for i := uint64(0); i < count; i++ {
		item, err := r.field(what)
		if err != nil {
			return nil, err
		}
		res = append(res, item)
	}
	return res, nil
}
