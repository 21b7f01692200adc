// Package wire implements the bounded byte buffer and variable-length
// integer codec that make up the snapdelta wire format.
//
// Writer and Reader wrap a caller-provided byte slice with a cursor. The
// buffer never grows: every operation checks the full encoded width up
// front and either completes entirely or returns false with the cursor
// unchanged. There are no partial writes and no partial reads, including
// for composite values such as 16-byte blobs and length-prefixed strings.
//
// All multi-byte values are little-endian. Floating-point values are
// encoded by reinterpreting their IEEE-754 bit pattern, never by numeric
// conversion.
package wire

import (
	"encoding/binary"
	"math"
)

// Maximum content lengths for the bounded string types. Each string is
// framed with a 2-byte little-endian length prefix, so the wire width of
// a full StringN is N+2 bytes... except that the type names count the
// prefix: a String512 occupies at most 512 bytes on the wire, 510 of
// which are content.
const (
	MaxString32Len  = 30
	MaxString64Len  = 62
	MaxString128Len = 126
	MaxString512Len = 510
)

// stringPrefixSize is the width of the length prefix on bounded strings.
const stringPrefixSize = 2

// Writer is a bounded, position-tracked byte buffer for encoding.
// It wraps caller-provided storage and never grows; construct one per
// message and discard it after use. A Writer must not be shared across
// concurrent operations.
type Writer struct {
	buf []byte
	pos int
}

// NewWriter returns a Writer over buf. Capacity is fixed at len(buf).
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// Capacity returns the total size of the underlying buffer.
func (w *Writer) Capacity() int { return len(w.buf) }

// Position returns the write cursor.
func (w *Writer) Position() int { return w.pos }

// Space returns the number of bytes still writable.
func (w *Writer) Space() int { return len(w.buf) - w.pos }

// SetPosition moves the write cursor. Positions outside [0, Capacity]
// indicate a caller bug and panic.
func (w *Writer) SetPosition(pos int) {
	if pos < 0 || pos > len(w.buf) {
		panic("wire: writer position out of range")
	}
	w.pos = pos
}

// Bytes returns a view of the written region [0, Position). The slice
// aliases the underlying buffer; it is invalidated by further writes.
func (w *Writer) Bytes() []byte { return w.buf[:w.pos] }

// CopyTo copies the written region [0, Position) into dst and returns the
// number of bytes copied. Returns 0 if dst is smaller than the written
// length.
func (w *Writer) CopyTo(dst []byte) int {
	if len(dst) < w.pos {
		return 0
	}
	return copy(dst, w.buf[:w.pos])
}

// WriteBool encodes a boolean as a single byte (0 or 1).
func (w *Writer) WriteBool(v bool) bool {
	if w.Space() < 1 {
		return false
	}
	if v {
		w.buf[w.pos] = 1
	} else {
		w.buf[w.pos] = 0
	}
	w.pos++
	return true
}

func (w *Writer) WriteUint8(v uint8) bool {
	if w.Space() < 1 {
		return false
	}
	w.buf[w.pos] = v
	w.pos++
	return true
}

func (w *Writer) WriteInt8(v int8) bool { return w.WriteUint8(uint8(v)) }

func (w *Writer) WriteUint16(v uint16) bool {
	if w.Space() < 2 {
		return false
	}
	binary.LittleEndian.PutUint16(w.buf[w.pos:], v)
	w.pos += 2
	return true
}

func (w *Writer) WriteInt16(v int16) bool { return w.WriteUint16(uint16(v)) }

func (w *Writer) WriteUint32(v uint32) bool {
	if w.Space() < 4 {
		return false
	}
	binary.LittleEndian.PutUint32(w.buf[w.pos:], v)
	w.pos += 4
	return true
}

func (w *Writer) WriteInt32(v int32) bool { return w.WriteUint32(uint32(v)) }

func (w *Writer) WriteUint64(v uint64) bool {
	if w.Space() < 8 {
		return false
	}
	binary.LittleEndian.PutUint64(w.buf[w.pos:], v)
	w.pos += 8
	return true
}

func (w *Writer) WriteInt64(v int64) bool { return w.WriteUint64(uint64(v)) }

// WriteFloat32 encodes the IEEE-754 bit pattern as a little-endian uint32.
func (w *Writer) WriteFloat32(v float32) bool {
	return w.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 encodes the IEEE-754 bit pattern as a little-endian uint64.
func (w *Writer) WriteFloat64(v float64) bool {
	return w.WriteUint64(math.Float64bits(v))
}

// WriteBytes copies p verbatim. The width is len(p); there is no framing.
func (w *Writer) WriteBytes(p []byte) bool {
	if w.Space() < len(p) {
		return false
	}
	w.pos += copy(w.buf[w.pos:], p)
	return true
}

// WriteBlob16 encodes a 16-byte record as two little-endian 64-bit words.
// The space check covers the full 16 bytes, so the write is atomic even
// though it spans two words.
func (w *Writer) WriteBlob16(v [16]byte) bool {
	if w.Space() < 16 {
		return false
	}
	binary.LittleEndian.PutUint64(w.buf[w.pos:], binary.LittleEndian.Uint64(v[0:8]))
	binary.LittleEndian.PutUint64(w.buf[w.pos+8:], binary.LittleEndian.Uint64(v[8:16]))
	w.pos += 16
	return true
}

// WriteString32 encodes s with a 2-byte length prefix. Fails without
// writing if s exceeds MaxString32Len or space is insufficient.
func (w *Writer) WriteString32(s string) bool { return w.writeBoundedString(s, MaxString32Len) }

// WriteString64 is WriteString32 with a MaxString64Len bound.
func (w *Writer) WriteString64(s string) bool { return w.writeBoundedString(s, MaxString64Len) }

// WriteString128 is WriteString32 with a MaxString128Len bound.
func (w *Writer) WriteString128(s string) bool { return w.writeBoundedString(s, MaxString128Len) }

// WriteString512 is WriteString32 with a MaxString512Len bound.
func (w *Writer) WriteString512(s string) bool { return w.writeBoundedString(s, MaxString512Len) }

func (w *Writer) writeBoundedString(s string, maxLen int) bool {
	if len(s) > maxLen {
		return false
	}
	if w.Space() < stringPrefixSize+len(s) {
		return false
	}
	binary.LittleEndian.PutUint16(w.buf[w.pos:], uint16(len(s)))
	copy(w.buf[w.pos+stringPrefixSize:], s)
	w.pos += stringPrefixSize + len(s)
	return true
}
