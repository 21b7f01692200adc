package snapdelta

import (
	"bytes"
	"fmt"

	intbits "github.com/renlow/snapdelta/internal/bits"
	"github.com/renlow/snapdelta/wire"
)

// Tree-delta patch wire format: a pre-order traversal of an 8-way
// partition tree. Each visited node contributes one flag byte whose bit
// i (MSB first, child 0 = 0x80) marks child i as changed. Children of a
// node spanning more than 8 bytes recurse; children of a node spanning
// at most 8 bytes are single bytes, and each changed one is written raw
// after the flag byte. There is no top-level length field: the decoder
// replays the identical partition from len(previous).
//
// The split is near-equal and gapless: div, rem = len/8, len%8; the
// first rem children get div+1 bytes, the rest div bytes.

// treeFanout is the partition arity. Fixed by the wire format.
const treeFanout = 8

// MaxTreePatchSize returns the worst-case patch size for a snapshot of
// the given length: every byte changed plus one flag byte for every node
// in the fully-expanded partition tree. CompressTree requires at least
// this much free space in the destination.
//
// The tree codec trades per-node overhead against granularity: scattered
// single-byte changes cost less than with the block codec, while dense
// changes cost up to this bound.
func MaxTreePatchSize(length int) int {
	return length + treeFlagBound(length)
}

// treeFlagBound counts the nodes of a fully-expanded partition tree over
// length bytes, one flag byte each. Levels deepen until a node spans at
// most treeFanout bytes; the worst-case node at each level spans the
// ceiling split of its parent.
func treeFlagBound(length int) int {
	if length == 0 {
		return 0
	}
	levels := 1
	for span := length; span > treeFanout; span = (span + treeFanout - 1) / treeFanout {
		levels++
	}
	nodes := 0
	perLevel := 1
	for range levels {
		nodes += perLevel
		perLevel *= treeFanout
	}
	return nodes
}

// CompressTree diffs two equal-length snapshots with a recursive 8-way
// partition and writes the patch. A zero-length snapshot produces an
// empty patch. Returns false without writing anything if patch has less
// than MaxTreePatchSize free space.
//
// Mismatched snapshot lengths are a programmer error and panic.
func CompressTree(previous, current []byte, patch *wire.Writer) bool {
	if len(previous) != len(current) {
		panic(fmt.Sprintf("snapdelta: snapshot length mismatch: previous %d bytes, current %d bytes",
			len(previous), len(current)))
	}
	if len(previous) == 0 {
		return true
	}
	if patch.Space() < MaxTreePatchSize(len(previous)) {
		return false
	}
	compressRange(previous, current, 0, len(previous), patch)
	return true
}

// compressRange encodes one node covering [start, start+length).
// Capacity was verified up front, so writes cannot fail.
func compressRange(previous, current []byte, start, length int, patch *wire.Writer) {
	div, rem := length/treeFanout, length%treeFanout

	var flags byte
	childStart := start
	for i := range treeFanout {
		n := div
		if i < rem {
			n++
		}
		if !bytes.Equal(previous[childStart:childStart+n], current[childStart:childStart+n]) {
			flags = intbits.SetChild(flags, i)
		}
		childStart += n
	}
	mustWrite(patch.WriteUint8(flags))

	childStart = start
	for i := range treeFanout {
		n := div
		if i < rem {
			n++
		}
		if intbits.ChildSet(flags, i) {
			if length <= treeFanout {
				// Leaf level: each child is a single byte.
				mustWrite(patch.WriteUint8(current[childStart]))
			} else {
				compressRange(previous, current, childStart, n, patch)
			}
		}
		childStart += n
	}
}

// DecompressTree reconstructs the current snapshot from the previous one
// and a patch produced by CompressTree. On success the patch reader is
// left positioned just past the patch bytes.
//
// Returns false on a truncated or structurally invalid patch, or when
// out has less free space than len(previous).
func DecompressTree(previous []byte, patch *wire.Reader, out *wire.Writer) bool {
	if len(previous) == 0 {
		return true
	}
	if out.Space() < len(previous) {
		return false
	}
	return decompressRange(previous, patch, 0, len(previous), out)
}

// decompressRange replays one node covering [start, start+length),
// writing exactly length bytes to out.
func decompressRange(previous []byte, patch *wire.Reader, start, length int, out *wire.Writer) bool {
	flags, ok := patch.ReadUint8()
	if !ok {
		return false
	}
	div, rem := length/treeFanout, length%treeFanout
	childStart := start
	for i := range treeFanout {
		n := div
		if i < rem {
			n++
		}
		switch {
		case !intbits.ChildSet(flags, i):
			mustWrite(out.WriteBytes(previous[childStart : childStart+n]))
		case n == 0:
			// A changed flag on an empty child cannot be produced by the
			// encoder; the patch is corrupt.
			return false
		case length <= treeFanout:
			b, ok := patch.ReadUint8()
			if !ok {
				return false
			}
			mustWrite(out.WriteUint8(b))
		default:
			if !decompressRange(previous, patch, childStart, n, out) {
				return false
			}
		}
		childStart += n
	}
	return true
}
