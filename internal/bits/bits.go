// Package bits provides low-level bit manipulation primitives.
package bits

import "math/bits"

// Tree node flag bytes map child 0 to the most significant bit (0x80).
// The MSB-first order is part of the wire format: two implementations
// must agree on it bit for bit to interoperate.

// ChildFlag returns the mask for child i in a node flag byte.
func ChildFlag(i int) byte {
	return 0x80 >> i
}

// SetChild returns flags with child i marked changed.
func SetChild(flags byte, i int) byte {
	return flags | (0x80 >> i)
}

// ChildSet reports whether child i is marked changed in flags.
func ChildSet(flags byte, i int) bool {
	return flags&(0x80>>i) != 0
}

// ChangedChildren returns the number of children marked changed.
func ChangedChildren(flags byte) int {
	return bits.OnesCount8(flags)
}
