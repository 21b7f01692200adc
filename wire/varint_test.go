package wire

import (
	"bytes"
	"math"
	"testing"
)

// varintBoundaries covers every tier edge of the prefix scheme.
var varintBoundaries = []struct {
	value uint64
	width int
}{
	{0, 1},
	{240, 1},
	{241, 2},
	{2287, 2},
	{2288, 3},
	{67823, 3},
	{67824, 4},
	{1<<24 - 1, 4},
	{1 << 24, 5},
	{1<<32 - 1, 5},
	{1 << 32, 6},
	{1<<40 - 1, 6},
	{1 << 40, 7},
	{1<<48 - 1, 7},
	{1 << 48, 8},
	{1<<56 - 1, 8},
	{1 << 56, 9},
	{math.MaxUint64, 9},
}

func TestVarUint64Boundaries(t *testing.T) {
	for _, tc := range varintBoundaries {
		w := NewWriter(make([]byte, MaxVarUint64Len))
		if !w.WriteVarUint64(tc.value) {
			t.Errorf("value %d: write failed", tc.value)
			continue
		}
		if w.Position() != tc.width {
			t.Errorf("value %d: width %d, want %d", tc.value, w.Position(), tc.width)
		}
		if got := VarUint64Len(tc.value); got != tc.width {
			t.Errorf("VarUint64Len(%d) = %d, want %d", tc.value, got, tc.width)
		}
		r := NewReader(w.Bytes())
		v, ok := r.ReadVarUint64()
		if !ok || v != tc.value {
			t.Errorf("value %d: round trip = %d, %v", tc.value, v, ok)
		}
		if r.Remaining() != 0 {
			t.Errorf("value %d: %d bytes unconsumed", tc.value, r.Remaining())
		}
	}
}

// TestVarUint64KnownBytes pins byte-exact encodings, which are part of
// the wire format.
func TestVarUint64KnownBytes(t *testing.T) {
	tests := []struct {
		value uint64
		wire  []byte
	}{
		{0, []byte{0}},
		{240, []byte{240}},
		{241, []byte{241, 1}},
		{2287, []byte{248, 255}},
		{2288, []byte{249, 0, 0}},
		{67823, []byte{249, 0xFF, 0xFF}},
		{67824, []byte{250, 0xF0, 0x08, 0x01}},
		{1<<32 - 1, []byte{251, 0xFF, 0xFF, 0xFF, 0xFF}},
		{math.MaxUint64, []byte{255, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
	}
	for _, tc := range tests {
		w := NewWriter(make([]byte, MaxVarUint64Len))
		w.WriteVarUint64(tc.value)
		if !bytes.Equal(w.Bytes(), tc.wire) {
			t.Errorf("value %d: wire = % X, want % X", tc.value, w.Bytes(), tc.wire)
		}
		v, ok := NewReader(tc.wire).ReadVarUint64()
		if !ok || v != tc.value {
			t.Errorf("wire % X: decode = %d, %v; want %d", tc.wire, v, ok, tc.value)
		}
	}
}

// TestVarUint64Truncated feeds every proper prefix of each boundary
// encoding: a header byte implying more tail bytes than remain must fail
// without consuming anything.
func TestVarUint64Truncated(t *testing.T) {
	for _, tc := range varintBoundaries {
		w := NewWriter(make([]byte, MaxVarUint64Len))
		w.WriteVarUint64(tc.value)
		full := w.Bytes()
		for cut := 0; cut < len(full); cut++ {
			r := NewReader(full[:cut])
			if _, ok := r.ReadVarUint64(); ok {
				t.Errorf("value %d cut to %d bytes: decode succeeded", tc.value, cut)
			}
			if r.Position() != 0 {
				t.Errorf("value %d cut to %d bytes: failed decode moved position to %d",
					tc.value, cut, r.Position())
			}
		}
	}
}

func TestVarUint64RandomRoundTrip(t *testing.T) {
	rng := newTestRNG(t)
	const iterations = 100000

	for i := 0; i < iterations; i++ {
		// Bias toward small magnitudes so every tier gets traffic.
		v := rng.Uint64() >> (rng.UintN(64) & 63)
		w := NewWriter(make([]byte, MaxVarUint64Len))
		if !w.WriteVarUint64(v) {
			t.Fatalf("iter %d: write of %d failed", i, v)
		}
		got, ok := NewReader(w.Bytes()).ReadVarUint64()
		if !ok || got != v {
			t.Fatalf("iter %d: round trip of %d = %d, %v", i, v, got, ok)
		}
	}
}

// TestVarUint64Monotonic verifies larger values never encode shorter,
// so worst-case sizing by value bound is sound.
func TestVarUint64Monotonic(t *testing.T) {
	rng := newTestRNG(t)
	const iterations = 10000

	for i := 0; i < iterations; i++ {
		a := rng.Uint64() >> (rng.UintN(64) & 63)
		b := rng.Uint64() >> (rng.UintN(64) & 63)
		if a > b {
			a, b = b, a
		}
		if VarUint64Len(a) > VarUint64Len(b) {
			t.Fatalf("iter %d: len(%d)=%d > len(%d)=%d",
				i, a, VarUint64Len(a), b, VarUint64Len(b))
		}
	}
}
