// Package snapdelta implements a deterministic, zero-allocation binary
// codec and delta-compression engine for fixed-size entity-state
// snapshots, producing minimal wire patches for a replication protocol.
//
// Two codecs diff equal-length snapshots: a run-length block diff and a
// recursive 8-way tree diff. Both round-trip byte-exactly; which one
// wins depends on how the changed bytes cluster.
//
// # Basic Usage
//
// Compressing one snapshot pair:
//
//	patch := wire.NewWriter(make([]byte, snapdelta.MaxBlockPatchSize(len(prev), 16)))
//	if !snapdelta.CompressBlocks(prev, curr, 16, patch) {
//	    // destination too small; send a full snapshot instead
//	}
//	send(patch.Bytes())
//
// Applying it on the receive side:
//
//	out := wire.NewWriter(make([]byte, len(prev)))
//	if !snapdelta.DecompressBlocks(prev, wire.NewReader(received), 16, out) {
//	    // corrupt patch; terminate the session
//	}
//	curr := out.Bytes()
//
// Recording a patch stream for late-join replay:
//
//	jw, err := snapdelta.CreateJournal("entity.sdj", snapshotLen,
//	    snapdelta.WithCodec(snapdelta.CodecTree))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for tick, snapshot := range ticks {
//	    if err := jw.Append(tick, snapshot); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//	if err := jw.Close(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Error Model
//
// Capacity shortfalls are recoverable and reported as a false return
// with no state mutated. Precondition violations (mismatched snapshot
// lengths, writes failing after capacity was verified) are programmer
// errors and panic. Corrupt patches are detected on decode and reported
// as a false return or a sentinel error from the errors package; callers
// should treat the source as untrustworthy rather than retry.
//
// # Package Structure
//
//   - Delta codecs: blockdelta.go (CompressBlocks, DecompressBlocks),
//     treedelta.go (CompressTree, DecompressTree)
//   - Wire primitives: wire/ (bounded Writer/Reader, varint codec)
//   - Snapshot digest: digest.go (Digest64)
//   - Patch journal: journal.go (OpenJournal, Replay), journal_writer.go
//     (CreateJournal, Append), journal_options.go (With* options)
//   - Parallel helper: batch.go (CompressBatch)
//   - Errors: errors/ (exported sentinels)
//   - Platform: fallocate_*.go, fadvise_*.go, madvise_*.go
package snapdelta
