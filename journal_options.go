package snapdelta

// Codec identifies which delta algorithm a journal's patches use.
type Codec uint16

const (
	// CodecBlock is the run-length block diff (CompressBlocks).
	CodecBlock Codec = iota
	// CodecTree is the recursive 8-way diff (CompressTree).
	CodecTree
)

func (c Codec) String() string {
	switch c {
	case CodecBlock:
		return "block"
	case CodecTree:
		return "tree"
	default:
		return "unknown"
	}
}

// ChecksumAlgorithm identifies the stream checksum recorded in a
// journal's footer.
type ChecksumAlgorithm uint16

const (
	// ChecksumXXHash64 is the default stream checksum.
	ChecksumXXHash64 ChecksumAlgorithm = iota
	// ChecksumMurmur3 selects murmur3-64 instead.
	ChecksumMurmur3
)

func (a ChecksumAlgorithm) String() string {
	switch a {
	case ChecksumXXHash64:
		return "xxhash64"
	case ChecksumMurmur3:
		return "murmur3"
	default:
		return "unknown"
	}
}

// JournalOption is a functional option for configuring journal creation.
type JournalOption func(*journalConfig)

type journalConfig struct {
	codec        Codec
	blockSize    int
	checksum     ChecksumAlgorithm
	baseTick     uint64
	capacityHint int64
}

func defaultJournalConfig() *journalConfig {
	return &journalConfig{
		codec:     CodecBlock,
		blockSize: 16, // Reasonable default for component-sized fields; override via WithBlockSize
		checksum:  ChecksumXXHash64,
	}
}

// WithCodec selects the delta codec for all patches in the journal.
func WithCodec(c Codec) JournalOption {
	return func(cfg *journalConfig) {
		cfg.codec = c
	}
}

// WithBlockSize sets the block codec's block size in bytes. Ignored by
// the tree codec.
func WithBlockSize(n int) JournalOption {
	return func(cfg *journalConfig) {
		cfg.blockSize = n
	}
}

// WithChecksum selects the footer stream checksum algorithm.
func WithChecksum(a ChecksumAlgorithm) JournalOption {
	return func(cfg *journalConfig) {
		cfg.checksum = a
	}
}

// WithBaseTick records the tick the journal's zero snapshot corresponds
// to. Informational; stored in the header for consumers.
func WithBaseTick(tick uint64) JournalOption {
	return func(cfg *journalConfig) {
		cfg.baseTick = tick
	}
}

// WithCapacityHint pre-allocates disk space for the journal file. The
// file is truncated to its real size on Close, so over-estimating only
// costs transient disk reservation. A hint of 0 disables preallocation.
func WithCapacityHint(bytes int64) JournalOption {
	return func(cfg *journalConfig) {
		cfg.capacityHint = bytes
	}
}
