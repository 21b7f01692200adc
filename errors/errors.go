// Package errors defines all exported error sentinels for the snapdelta library.
//
// This is the single source of truth for error values. Both the top-level
// snapdelta package and its command-line tools import from here, ensuring
// errors.Is checks work across package boundaries.
package errors

import "errors"

// Journal write errors
var (
	ErrJournalClosed  = errors.New("snapdelta: journal is closed")
	ErrSnapshotLength = errors.New("snapdelta: snapshot length does not match journal")
	ErrTickOrder      = errors.New("snapdelta: ticks must be appended in strictly increasing order")
)

// Journal read errors
var (
	ErrInvalidMagic    = errors.New("snapdelta: invalid magic number")
	ErrInvalidVersion  = errors.New("snapdelta: unsupported version")
	ErrTruncatedFile   = errors.New("snapdelta: journal file is truncated")
	ErrChecksumFailed  = errors.New("snapdelta: journal checksum verification failed")
	ErrCorruptRecord   = errors.New("snapdelta: journal record is corrupted")
	ErrDigestMismatch  = errors.New("snapdelta: reconstructed snapshot digest mismatch")
	ErrUnknownCodec    = errors.New("snapdelta: unknown patch codec")
	ErrUnknownChecksum = errors.New("snapdelta: unknown checksum algorithm")
)

// Configuration errors
var (
	ErrInvalidBlockSize = errors.New("snapdelta: block size must be at least 1")
	ErrInvalidCapacity  = errors.New("snapdelta: capacity hint must not be negative")
)

// Batch errors
var (
	ErrBatchSizeMismatch = errors.New("snapdelta: previous and current batch sizes differ")
)
