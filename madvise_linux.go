//go:build linux

package snapdelta

import "golang.org/x/sys/unix"

// madviseWillNeed asks the kernel to start reading a mapped region ahead
// of first access. Applied to the record region right after a journal is
// mapped, since checksum verification touches every page anyway.
// Best-effort: errors are silently ignored.
func madviseWillNeed(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, unix.MADV_WILLNEED)
}
