package wire

// Variable-length unsigned integer codec.
//
// A uint64 is encoded into 1 to 9 bytes using a prefix-byte scheme with
// nine magnitude tiers. Unlike the 7-bit continuation varint used by
// protobuf, the first byte alone determines the total width, which keeps
// decode branch-predictable and bounds the worst case at 9 bytes:
//
//	0..240               1 byte   value itself
//	241..2287            2 bytes  241+((v-240)>>8), (v-240)&0xFF
//	2288..67823          3 bytes  249, then (v-2288) big-endian
//	67824..2^24-1        4 bytes  250, then v as 3 bytes little-endian
//	..2^32-1             5 bytes  251, then v as 4 bytes little-endian
//	..2^40-1             6 bytes  252, then v as 5 bytes little-endian
//	..2^48-1             7 bytes  253, then v as 6 bytes little-endian
//	..2^56-1             8 bytes  254, then v as 7 bytes little-endian
//	otherwise            9 bytes  255, then v as 8 bytes little-endian

// MaxVarUint64Len is the worst-case encoded width of a uint64.
const MaxVarUint64Len = 9

const (
	varTier1Max = 240
	varTier2Max = 2287
	varTier3Max = 67823
)

// VarUint64Len returns the encoded width of v in bytes (1..9).
func VarUint64Len(v uint64) int {
	switch {
	case v <= varTier1Max:
		return 1
	case v <= varTier2Max:
		return 2
	case v <= varTier3Max:
		return 3
	case v <= 1<<24-1:
		return 4
	case v <= 1<<32-1:
		return 5
	case v <= 1<<40-1:
		return 6
	case v <= 1<<48-1:
		return 7
	case v <= 1<<56-1:
		return 8
	default:
		return 9
	}
}

// WriteVarUint64 encodes v. The space check covers the full encoded
// width, so a failed write leaves the cursor unchanged.
func (w *Writer) WriteVarUint64(v uint64) bool {
	n := VarUint64Len(v)
	if w.Space() < n {
		return false
	}
	b := w.buf[w.pos:]
	switch n {
	case 1:
		b[0] = byte(v)
	case 2:
		b[0] = byte(241 + (v-varTier1Max)>>8)
		b[1] = byte(v - varTier1Max)
	case 3:
		b[0] = 249
		b[1] = byte((v - varTier2Max - 1) >> 8)
		b[2] = byte(v - varTier2Max - 1)
	default:
		// Tiers 4..9 carry the full value little-endian after the prefix.
		b[0] = byte(250 + n - 4)
		for i := 1; i < n; i++ {
			b[i] = byte(v >> (8 * (i - 1)))
		}
	}
	w.pos += n
	return true
}

// ReadVarUint64 decodes a value written by WriteVarUint64. A header byte
// that implies more tail bytes than remain is a decode failure, not a
// clamped value; the cursor stays where it was.
func (r *Reader) ReadVarUint64() (uint64, bool) {
	if r.Remaining() < 1 {
		return 0, false
	}
	b0 := r.buf[r.pos]
	switch {
	case b0 <= 240:
		r.pos++
		return uint64(b0), true
	case b0 <= 248:
		if r.Remaining() < 2 {
			return 0, false
		}
		v := varTier1Max + 256*uint64(b0-241) + uint64(r.buf[r.pos+1])
		r.pos += 2
		return v, true
	case b0 == 249:
		if r.Remaining() < 3 {
			return 0, false
		}
		v := varTier2Max + 1 + 256*uint64(r.buf[r.pos+1]) + uint64(r.buf[r.pos+2])
		r.pos += 3
		return v, true
	default:
		tail := int(b0-250) + 3
		if r.Remaining() < 1+tail {
			return 0, false
		}
		var v uint64
		for i := range tail {
			v |= uint64(r.buf[r.pos+1+i]) << (8 * i)
		}
		r.pos += 1 + tail
		return v, true
	}
}
