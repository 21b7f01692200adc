package wire

import (
	"encoding/binary"
	"math"
)

// Reader is a bounded, position-tracked byte buffer for decoding.
// Every read checks the full encoded width before consuming any byte, so
// a failed read leaves the cursor unchanged. A Reader must not be shared
// across concurrent operations.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader over buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Len returns the total size of the underlying buffer.
func (r *Reader) Len() int { return len(r.buf) }

// Position returns the read cursor.
func (r *Reader) Position() int { return r.pos }

// Remaining returns the number of bytes still readable.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// SetPosition moves the read cursor. Positions outside [0, Len] indicate
// a caller bug and panic.
func (r *Reader) SetPosition(pos int) {
	if pos < 0 || pos > len(r.buf) {
		panic("wire: reader position out of range")
	}
	r.pos = pos
}

// ReadBool decodes a single byte as a boolean. Any nonzero byte is true.
func (r *Reader) ReadBool() (bool, bool) {
	if r.Remaining() < 1 {
		return false, false
	}
	v := r.buf[r.pos] != 0
	r.pos++
	return v, true
}

func (r *Reader) ReadUint8() (uint8, bool) {
	if r.Remaining() < 1 {
		return 0, false
	}
	v := r.buf[r.pos]
	r.pos++
	return v, true
}

func (r *Reader) ReadInt8() (int8, bool) {
	v, ok := r.ReadUint8()
	return int8(v), ok
}

func (r *Reader) ReadUint16() (uint16, bool) {
	if r.Remaining() < 2 {
		return 0, false
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, true
}

func (r *Reader) ReadInt16() (int16, bool) {
	v, ok := r.ReadUint16()
	return int16(v), ok
}

func (r *Reader) ReadUint32() (uint32, bool) {
	if r.Remaining() < 4 {
		return 0, false
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, true
}

func (r *Reader) ReadInt32() (int32, bool) {
	v, ok := r.ReadUint32()
	return int32(v), ok
}

func (r *Reader) ReadUint64() (uint64, bool) {
	if r.Remaining() < 8 {
		return 0, false
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, true
}

func (r *Reader) ReadInt64() (int64, bool) {
	v, ok := r.ReadUint64()
	return int64(v), ok
}

// ReadFloat32 decodes a little-endian uint32 and reinterprets the bits.
func (r *Reader) ReadFloat32() (float32, bool) {
	v, ok := r.ReadUint32()
	return math.Float32frombits(v), ok
}

// ReadFloat64 decodes a little-endian uint64 and reinterprets the bits.
func (r *Reader) ReadFloat64() (float64, bool) {
	v, ok := r.ReadUint64()
	return math.Float64frombits(v), ok
}

// ReadBytes returns a view of the next n bytes without copying. The slice
// aliases the underlying buffer. Fails if fewer than n bytes remain or n
// is negative.
func (r *Reader) ReadBytes(n int) ([]byte, bool) {
	if n < 0 || r.Remaining() < n {
		return nil, false
	}
	v := r.buf[r.pos : r.pos+n]
	r.pos += n
	return v, true
}

// ReadBlob16 decodes a 16-byte record written by WriteBlob16. The
// remaining-width check covers all 16 bytes up front, so the cursor is
// never left between the two words.
func (r *Reader) ReadBlob16() ([16]byte, bool) {
	var v [16]byte
	if r.Remaining() < 16 {
		return v, false
	}
	binary.LittleEndian.PutUint64(v[0:8], binary.LittleEndian.Uint64(r.buf[r.pos:]))
	binary.LittleEndian.PutUint64(v[8:16], binary.LittleEndian.Uint64(r.buf[r.pos+8:]))
	r.pos += 16
	return v, true
}

// ReadString32 decodes a bounded string written by WriteString32.
func (r *Reader) ReadString32() (string, bool) { return r.readBoundedString(MaxString32Len) }

// ReadString64 decodes a bounded string written by WriteString64.
func (r *Reader) ReadString64() (string, bool) { return r.readBoundedString(MaxString64Len) }

// ReadString128 decodes a bounded string written by WriteString128.
func (r *Reader) ReadString128() (string, bool) { return r.readBoundedString(MaxString128Len) }

// ReadString512 decodes a bounded string written by WriteString512.
func (r *Reader) ReadString512() (string, bool) { return r.readBoundedString(MaxString512Len) }

// readBoundedString peeks the 2-byte length prefix without consuming it,
// validates the length against both the type bound and the remaining
// bytes, and only then commits the read. A malformed or truncated string
// therefore never moves the cursor.
func (r *Reader) readBoundedString(maxLen int) (string, bool) {
	if r.Remaining() < stringPrefixSize {
		return "", false
	}
	n := int(binary.LittleEndian.Uint16(r.buf[r.pos:]))
	if n > maxLen || r.Remaining() < stringPrefixSize+n {
		return "", false
	}
	s := string(r.buf[r.pos+stringPrefixSize : r.pos+stringPrefixSize+n])
	r.pos += stringPrefixSize + n
	return s, true
}
