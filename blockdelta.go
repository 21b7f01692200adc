package snapdelta

import (
	"bytes"
	"fmt"

	"github.com/renlow/snapdelta/wire"
)

// Block-delta patch wire format (all little-endian):
//
//	Offset  Size  Field
//	0       4     runCount             uint32
//	4       4     changedBlocksOffset  int32 (relative to patch start)
//	8       var   run lengths          varints, strictly alternating
//	        var   changed block bytes  raw, in block order
//
// The first run is always the "unchanged" run, even when it has length
// zero. This is a fixed protocol invariant, not a tunable.

// blockPatchHeaderSize is the fixed patch header width: runCount plus
// changedBlocksOffset.
const blockPatchHeaderSize = 8

// maxRunVarintLen is the worst-case varint width of a run length. Run
// lengths are block counts and block counts fit in 32 bits, so a run
// varint never exceeds 5 bytes.
const maxRunVarintLen = 5

func blockCount(length, blockSize int) int {
	if length == 0 {
		return 0
	}
	return (length + blockSize - 1) / blockSize
}

// MaxBlockPatchSize returns the worst-case patch size for a snapshot of
// the given length: every byte changed plus the header plus maximal run
// alternation overhead. CompressBlocks requires at least this much free
// space in the destination.
func MaxBlockPatchSize(length, blockSize int) int {
	if blockSize < 1 {
		panic("snapdelta: block size must be at least 1")
	}
	return length + blockPatchHeaderSize + maxRunVarintLen*blockCount(length, blockSize)
}

// CompressBlocks diffs two equal-length snapshots block by block and
// writes a run-length-encoded patch. Returns false without writing
// anything if patch has less than MaxBlockPatchSize free space.
//
// Mismatched snapshot lengths and blockSize < 1 are programmer errors
// and panic.
func CompressBlocks(previous, current []byte, blockSize int, patch *wire.Writer) bool {
	if len(previous) != len(current) {
		panic(fmt.Sprintf("snapdelta: snapshot length mismatch: previous %d bytes, current %d bytes",
			len(previous), len(current)))
	}
	if blockSize < 1 {
		panic("snapdelta: block size must be at least 1")
	}
	if patch.Space() < MaxBlockPatchSize(len(previous), blockSize) {
		return false
	}

	start := patch.Position()
	// Header is backpatched once the run sequence is known.
	mustWrite(patch.WriteUint32(0))
	mustWrite(patch.WriteInt32(0))

	// Run-length encode the per-block change flags. The first run covers
	// unchanged blocks (possibly zero of them); runs then strictly
	// alternate.
	n := blockCount(len(previous), blockSize)
	runCount := uint32(0)
	runLen := uint64(0)
	inChangedRun := false
	for i := 0; i < n; i++ {
		lo := i * blockSize
		hi := min(lo+blockSize, len(previous))
		changed := !bytes.Equal(previous[lo:hi], current[lo:hi])
		if changed == inChangedRun {
			runLen++
			continue
		}
		mustWrite(patch.WriteVarUint64(runLen))
		runCount++
		inChangedRun = changed
		runLen = 1
	}
	if n > 0 {
		mustWrite(patch.WriteVarUint64(runLen))
		runCount++
	}

	changedOffset := patch.Position() - start
	end := patch.Position()
	patch.SetPosition(start)
	mustWrite(patch.WriteUint32(runCount))
	mustWrite(patch.WriteInt32(int32(changedOffset)))
	patch.SetPosition(end)

	// Changed block contents, in block order. Unchanged blocks contribute
	// nothing; the decoder copies them from the previous snapshot.
	for i := 0; i < n; i++ {
		lo := i * blockSize
		hi := min(lo+blockSize, len(previous))
		if !bytes.Equal(previous[lo:hi], current[lo:hi]) {
			mustWrite(patch.WriteBytes(current[lo:hi]))
		}
	}
	return true
}

// DecompressBlocks reconstructs the current snapshot from the previous
// one and a patch produced by CompressBlocks with the same blockSize.
// On success the patch reader is left positioned at the end of the
// changed-data section, so a caller can continue reading whatever
// follows the patch in a larger message.
//
// Returns false on a truncated or structurally invalid patch, or when
// out has less free space than len(previous). A false return means the
// patch source must be treated as untrustworthy; no partial recovery is
// attempted.
func DecompressBlocks(previous []byte, patch *wire.Reader, blockSize int, out *wire.Writer) bool {
	if blockSize < 1 {
		panic("snapdelta: block size must be at least 1")
	}
	if out.Space() < len(previous) {
		return false
	}

	start := patch.Position()
	runCount, ok := patch.ReadUint32()
	if !ok {
		return false
	}
	changedOffset, ok := patch.ReadInt32()
	if !ok {
		return false
	}
	if int(changedOffset) < blockPatchHeaderSize || start+int(changedOffset) > patch.Len() {
		return false
	}

	n := blockCount(len(previous), blockSize)
	// changedCursor walks the changed-block contents section while the
	// main cursor walks the run-length sequence.
	changedCursor := start + int(changedOffset)
	blockIndex := 0
	inChangedRun := false
	for run := uint32(0); run < runCount; run++ {
		runLen, ok := patch.ReadVarUint64()
		if !ok || runLen > uint64(n-blockIndex) {
			return false
		}
		if inChangedRun {
			resume := patch.Position()
			patch.SetPosition(changedCursor)
			for range runLen {
				lo := blockIndex * blockSize
				hi := min(lo+blockSize, len(previous))
				block, ok := patch.ReadBytes(hi - lo)
				if !ok {
					return false
				}
				mustWrite(out.WriteBytes(block))
				blockIndex++
			}
			changedCursor = patch.Position()
			patch.SetPosition(resume)
		} else {
			for range runLen {
				lo := blockIndex * blockSize
				hi := min(lo+blockSize, len(previous))
				mustWrite(out.WriteBytes(previous[lo:hi]))
				blockIndex++
			}
		}
		inChangedRun = !inChangedRun
	}
	if blockIndex != n {
		return false
	}
	patch.SetPosition(changedCursor)
	return true
}

// mustWrite asserts a buffer write that was covered by an up-front
// capacity check. A failure here is a programming defect, not a runtime
// condition.
func mustWrite(ok bool) {
	if !ok {
		panic("snapdelta: buffer write failed after capacity was verified")
	}
}
