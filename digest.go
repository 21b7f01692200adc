package snapdelta

import (
	"github.com/zeebo/xxh3"
)

// Digest64 applies xxHash3-64 to a snapshot, returning a digest suitable
// for desync detection: a receiver compares the digest of a reconstructed
// snapshot against the digest the sender computed over the original.
//
// The digest is not cryptographic. It detects corruption and divergence,
// not tampering.
func Digest64(snapshot []byte) uint64 {
	return xxh3.Hash(snapshot)
}
