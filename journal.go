package snapdelta

import (
	"encoding/binary"
	"fmt"
	"hash"
	"os"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"
	"github.com/spaolacci/murmur3"

	snaperrors "github.com/renlow/snapdelta/errors"
	"github.com/renlow/snapdelta/wire"
)

const (
	// magic number for snapdelta journal files
	// "SDJL" in little-endian
	journalMagic = uint32(0x4C4A4453)

	// journalVersion is the current journal format version
	journalVersion = uint16(0x0001)

	// journalHeaderSize is the exact size of the serialized header (64 bytes)
	journalHeaderSize = 64

	// journalFooterSize is the exact size of the serialized footer (32 bytes)
	journalFooterSize = 32

	// recordHeaderSize is the fixed prefix of each journal record
	recordHeaderSize = 20
)

// journalHeader is the 64-byte file header.
//
// Layout:
//
//	Offset  Size  Field        Type
//	0       4     Magic        0x4C4A4453 ("SDJL")
//	4       2     Version      0x0001
//	6       2     Codec        uint16_le (0=block, 1=tree)
//	8       2     Checksum     uint16_le (0=xxhash64, 1=murmur3)
//	10      4     BlockSize    uint32_le (block codec only; 0 for tree)
//	14      4     SnapshotLen  uint32_le
//	18      8     BaseTick     uint64_le
//	26      38    Reserved     [38]byte (zero)
//
// Every patch in a journal targets the same fixed-length snapshot; the
// stream starts from an all-zero snapshot at BaseTick.
type journalHeader struct {
	Magic       uint32
	Version     uint16
	Codec       Codec
	Checksum    ChecksumAlgorithm
	BlockSize   uint32
	SnapshotLen uint32
	BaseTick    uint64
	Reserved    [38]byte
}

// encodeTo serializes the header to an existing buffer.
func (h *journalHeader) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], uint16(h.Codec))
	binary.LittleEndian.PutUint16(buf[8:10], uint16(h.Checksum))
	binary.LittleEndian.PutUint32(buf[10:14], h.BlockSize)
	binary.LittleEndian.PutUint32(buf[14:18], h.SnapshotLen)
	binary.LittleEndian.PutUint64(buf[18:26], h.BaseTick)
	copy(buf[26:64], h.Reserved[:])
}

// decodeJournalHeader parses a 64-byte header.
func decodeJournalHeader(buf []byte) (*journalHeader, error) {
	if len(buf) < journalHeaderSize {
		return nil, snaperrors.ErrTruncatedFile
	}

	h := &journalHeader{
		Magic:       binary.LittleEndian.Uint32(buf[0:4]),
		Version:     binary.LittleEndian.Uint16(buf[4:6]),
		Codec:       Codec(binary.LittleEndian.Uint16(buf[6:8])),
		Checksum:    ChecksumAlgorithm(binary.LittleEndian.Uint16(buf[8:10])),
		BlockSize:   binary.LittleEndian.Uint32(buf[10:14]),
		SnapshotLen: binary.LittleEndian.Uint32(buf[14:18]),
		BaseTick:    binary.LittleEndian.Uint64(buf[18:26]),
	}
	copy(h.Reserved[:], buf[26:64])

	if h.Magic != journalMagic {
		return nil, snaperrors.ErrInvalidMagic
	}
	if h.Version != journalVersion {
		return nil, snaperrors.ErrInvalidVersion
	}
	if h.Codec != CodecBlock && h.Codec != CodecTree {
		return nil, snaperrors.ErrUnknownCodec
	}
	if h.Codec == CodecBlock && h.BlockSize == 0 {
		return nil, snaperrors.ErrCorruptRecord
	}
	return h, nil
}

// journalFooter is the 32-byte file footer.
//
// Layout:
//
//	Offset  Size  Field           Type
//	0       8     RecordCount     uint64_le
//	8       8     StreamChecksum  uint64_le (algorithm from header)
//	16      16    Reserved        [16]byte (zero)
//
// StreamChecksum covers every byte of the record region, record headers
// included.
type journalFooter struct {
	RecordCount    uint64
	StreamChecksum uint64
	Reserved       [16]byte
}

// encodeTo serializes the footer into an existing buffer.
func (f *journalFooter) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], f.RecordCount)
	binary.LittleEndian.PutUint64(buf[8:16], f.StreamChecksum)
	copy(buf[16:32], f.Reserved[:])
}

// decodeJournalFooter parses a 32-byte footer.
func decodeJournalFooter(buf []byte) (*journalFooter, error) {
	if len(buf) < journalFooterSize {
		return nil, snaperrors.ErrTruncatedFile
	}

	f := &journalFooter{
		RecordCount:    binary.LittleEndian.Uint64(buf[0:8]),
		StreamChecksum: binary.LittleEndian.Uint64(buf[8:16]),
	}
	copy(f.Reserved[:], buf[16:32])

	return f, nil
}

// newStreamHasher returns the streaming hasher for a checksum algorithm.
func newStreamHasher(a ChecksumAlgorithm) (hash.Hash64, error) {
	switch a {
	case ChecksumXXHash64:
		return xxhash.New(), nil
	case ChecksumMurmur3:
		return murmur3.New64(), nil
	default:
		return nil, snaperrors.ErrUnknownChecksum
	}
}

// Journal is a read-only patch journal opened for replay.
//
// Thread safety:
// - Replay and the accessor methods are safe for concurrent use
// - Close is NOT safe to call concurrently with Replay
// - After Close returns, no methods may be called on the Journal
type Journal struct {
	mmap mmap.MMap

	header  *journalHeader
	footer  *journalFooter
	records []byte // view into mmap between header and footer

	closed atomic.Bool
}

// OpenJournal opens a journal file for replay. It memory-maps the file,
// validates the header and footer, verifies the stream checksum over the
// whole record region, and closes the file descriptor.
func OpenJournal(path string) (*Journal, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat journal: %w", err)
	}
	size := info.Size()
	if size < journalHeaderSize+journalFooterSize {
		file.Close()
		return nil, snaperrors.ErrTruncatedFile
	}

	// Replay walks the file front to back exactly once.
	fadviseSequential(int(file.Fd()), 0, size)

	m, err := mmap.Map(file, mmap.RDONLY, 0)
	// File descriptor is no longer needed once the mapping exists.
	file.Close()
	if err != nil {
		return nil, fmt.Errorf("mmap journal: %w", err)
	}

	j := &Journal{mmap: m}
	j.header, err = decodeJournalHeader(m[:journalHeaderSize])
	if err != nil {
		m.Unmap()
		return nil, err
	}
	j.footer, err = decodeJournalFooter(m[size-journalFooterSize:])
	if err != nil {
		m.Unmap()
		return nil, err
	}
	j.records = m[journalHeaderSize : size-journalFooterSize]

	madviseWillNeed(j.records)

	hasher, err := newStreamHasher(j.header.Checksum)
	if err != nil {
		m.Unmap()
		return nil, err
	}
	hasher.Write(j.records)
	if hasher.Sum64() != j.footer.StreamChecksum {
		m.Unmap()
		return nil, snaperrors.ErrChecksumFailed
	}

	return j, nil
}

// Codec returns the delta codec used by the journal's patches.
func (j *Journal) Codec() Codec { return j.header.Codec }

// BlockSize returns the block codec's block size (0 for the tree codec).
func (j *Journal) BlockSize() int { return int(j.header.BlockSize) }

// SnapshotLen returns the fixed snapshot length in bytes.
func (j *Journal) SnapshotLen() int { return int(j.header.SnapshotLen) }

// BaseTick returns the tick of the implicit all-zero base snapshot.
func (j *Journal) BaseTick() uint64 { return j.header.BaseTick }

// Checksum returns the footer stream checksum algorithm.
func (j *Journal) Checksum() ChecksumAlgorithm { return j.header.Checksum }

// RecordCount returns the number of patches in the journal.
func (j *Journal) RecordCount() uint64 { return j.footer.RecordCount }

// Size returns the journal file size in bytes.
func (j *Journal) Size() int64 { return int64(len(j.mmap)) }

// Replay reconstructs every snapshot in order, starting from the
// all-zero base snapshot, and calls fn with each tick and snapshot. The
// snapshot slice is reused between calls; fn must copy it to retain it.
// Each reconstructed snapshot is verified against the digest recorded at
// append time; a mismatch aborts with ErrDigestMismatch. If fn returns
// an error, the replay stops and returns it.
func (j *Journal) Replay(fn func(tick uint64, snapshot []byte) error) error {
	if j.closed.Load() {
		return snaperrors.ErrJournalClosed
	}

	snapshotLen := int(j.header.SnapshotLen)
	previous := make([]byte, snapshotLen)
	current := make([]byte, snapshotLen)

	r := wire.NewReader(j.records)
	for range j.footer.RecordCount {
		patchLen, ok := r.ReadUint32()
		if !ok {
			return snaperrors.ErrCorruptRecord
		}
		tick, ok := r.ReadUint64()
		if !ok {
			return snaperrors.ErrCorruptRecord
		}
		digest, ok := r.ReadUint64()
		if !ok {
			return snaperrors.ErrCorruptRecord
		}

		patchStart := r.Position()
		out := wire.NewWriter(current)
		switch j.header.Codec {
		case CodecBlock:
			ok = DecompressBlocks(previous, r, int(j.header.BlockSize), out)
		case CodecTree:
			ok = DecompressTree(previous, r, out)
		}
		// The decoder leaves the reader just past the patch; the recorded
		// length must agree, and the output must cover the full snapshot.
		if !ok || r.Position()-patchStart != int(patchLen) || out.Position() != snapshotLen {
			return snaperrors.ErrCorruptRecord
		}
		if Digest64(current) != digest {
			return snaperrors.ErrDigestMismatch
		}
		if err := fn(tick, current); err != nil {
			return err
		}
		previous, current = current, previous
	}
	if r.Remaining() != 0 {
		return snaperrors.ErrCorruptRecord
	}
	return nil
}

// Close unmaps the journal. Not safe to call concurrently with Replay.
func (j *Journal) Close() error {
	if j.closed.Swap(true) {
		return nil
	}
	return j.mmap.Unmap()
}
