package snapdelta

import (
	"encoding/binary"
	"fmt"
	"hash"
	"os"

	snaperrors "github.com/renlow/snapdelta/errors"
	"github.com/renlow/snapdelta/wire"
)

// JournalWriter appends a stream of snapshot patches to a journal file.
// Each Append diffs the new snapshot against the previously appended one
// (starting from an all-zero base snapshot) and writes one record:
//
//	[u32 patchLen][u64 tick][u64 snapshotDigest][patch bytes]
//
// The stream checksum is computed incrementally while the record bytes
// are still hot in cache; Close seals the file with the footer.
//
// A JournalWriter is not safe for concurrent use.
type JournalWriter struct {
	file *os.File
	cfg  *journalConfig

	snapshotLen int
	previous    []byte // last appended snapshot (starts all-zero)
	scratch     []byte // patch build buffer, sized to the codec's worst case

	hasher hash.Hash64

	written     int64 // bytes written so far, header included
	recordCount uint64
	lastTick    uint64
	closed      bool
}

// CreateJournal creates a journal file for snapshots of snapshotLen
// bytes. The file is unreadable by OpenJournal until Close has written
// the footer.
func CreateJournal(path string, snapshotLen int, opts ...JournalOption) (*JournalWriter, error) {
	if snapshotLen < 0 {
		panic("snapdelta: snapshot length must not be negative")
	}
	cfg := defaultJournalConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.codec != CodecBlock && cfg.codec != CodecTree {
		return nil, snaperrors.ErrUnknownCodec
	}
	if cfg.codec == CodecBlock && cfg.blockSize < 1 {
		return nil, snaperrors.ErrInvalidBlockSize
	}
	if cfg.capacityHint < 0 {
		return nil, snaperrors.ErrInvalidCapacity
	}
	hasher, err := newStreamHasher(cfg.checksum)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}
	if cfg.capacityHint > 0 {
		if err := fallocateFile(file, cfg.capacityHint); err != nil {
			file.Close()
			os.Remove(path)
			return nil, fmt.Errorf("preallocate journal: %w", err)
		}
	}

	header := journalHeader{
		Magic:       journalMagic,
		Version:     journalVersion,
		Codec:       cfg.codec,
		Checksum:    cfg.checksum,
		SnapshotLen: uint32(snapshotLen),
		BaseTick:    cfg.baseTick,
	}
	if cfg.codec == CodecBlock {
		header.BlockSize = uint32(cfg.blockSize)
	}
	var headerBuf [journalHeaderSize]byte
	header.encodeTo(headerBuf[:])
	if _, err := file.Write(headerBuf[:]); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write journal header: %w", err)
	}

	var maxPatch int
	if cfg.codec == CodecBlock {
		maxPatch = MaxBlockPatchSize(snapshotLen, cfg.blockSize)
	} else {
		maxPatch = MaxTreePatchSize(snapshotLen)
	}

	return &JournalWriter{
		file:        file,
		cfg:         cfg,
		snapshotLen: snapshotLen,
		previous:    make([]byte, snapshotLen),
		scratch:     make([]byte, maxPatch),
		hasher:      hasher,
		written:     journalHeaderSize,
		lastTick:    cfg.baseTick,
	}, nil
}

// Append compresses current against the previously appended snapshot and
// writes one record. Ticks must be strictly increasing and current must
// be exactly the journal's snapshot length.
func (w *JournalWriter) Append(tick uint64, current []byte) error {
	if w.closed {
		return snaperrors.ErrJournalClosed
	}
	if len(current) != w.snapshotLen {
		return snaperrors.ErrSnapshotLength
	}
	if w.recordCount == 0 {
		if tick < w.cfg.baseTick {
			return snaperrors.ErrTickOrder
		}
	} else if tick <= w.lastTick {
		return snaperrors.ErrTickOrder
	}

	patch := wire.NewWriter(w.scratch)
	var ok bool
	if w.cfg.codec == CodecBlock {
		ok = CompressBlocks(w.previous, current, w.cfg.blockSize, patch)
	} else {
		ok = CompressTree(w.previous, current, patch)
	}
	if !ok {
		// scratch is sized to the codec's maximum patch size
		panic("snapdelta: patch buffer smaller than maximum patch size")
	}

	var recordHeader [recordHeaderSize]byte
	binary.LittleEndian.PutUint32(recordHeader[0:4], uint32(patch.Position()))
	binary.LittleEndian.PutUint64(recordHeader[4:12], tick)
	binary.LittleEndian.PutUint64(recordHeader[12:20], Digest64(current))

	if _, err := w.file.Write(recordHeader[:]); err != nil {
		return fmt.Errorf("write journal record: %w", err)
	}
	if _, err := w.file.Write(patch.Bytes()); err != nil {
		return fmt.Errorf("write journal record: %w", err)
	}
	w.hasher.Write(recordHeader[:])
	w.hasher.Write(patch.Bytes())

	w.written += int64(recordHeaderSize + patch.Position())
	w.recordCount++
	w.lastTick = tick
	copy(w.previous, current)
	return nil
}

// RecordCount returns the number of records appended so far.
func (w *JournalWriter) RecordCount() uint64 { return w.recordCount }

// Close writes the footer, trims any preallocated tail, syncs, and
// closes the file. Calling Close more than once is a no-op.
func (w *JournalWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	footer := journalFooter{
		RecordCount:    w.recordCount,
		StreamChecksum: w.hasher.Sum64(),
	}
	var footerBuf [journalFooterSize]byte
	footer.encodeTo(footerBuf[:])
	if _, err := w.file.Write(footerBuf[:]); err != nil {
		w.file.Close()
		return fmt.Errorf("write journal footer: %w", err)
	}
	w.written += journalFooterSize

	// Preallocation may have left the file longer than what was written.
	if err := w.file.Truncate(w.written); err != nil {
		w.file.Close()
		return fmt.Errorf("truncate journal: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		w.file.Close()
		return fmt.Errorf("sync journal: %w", err)
	}
	return w.file.Close()
}
